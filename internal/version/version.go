// Package version holds build metadata overridable via -ldflags, the
// Go equivalent of the original's build.rs-generated BUILD_ID/BUILD_DATE
// constants.
package version

import "fmt"

// These are meant to be set with -ldflags "-X ...=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the version line printed by -v/--version.
func String() string {
	return fmt.Sprintf("eit-stream v.%s commit:%s built:%s", Version, Commit, Date)
}
