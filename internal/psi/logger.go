package psi

import "github.com/asticode/go-astikit"

// A package-global logger, same pattern as the teacher's logger.go:
// low-level wire code only ever needs to report unhandled descriptor
// tags, which doesn't warrant threading a logger through every call.
var logger = astikit.AdaptStdLogger(nil)

// SetLogger installs l as the destination for psi's internal warnings.
func SetLogger(l astikit.StdLogger) { logger = astikit.AdaptStdLogger(l) }
