// Package epg holds the read-only-after-load program listing store the
// EIT builder consumes. The XMLTV loader itself (the Loader interface
// below, and its concrete xmltv implementation in xmltv.go) is an
// external collaborator per spec.md §1, but its shape is pinned here
// because §6 names exactly what the engine requires of it.
package epg

// Event is one programme entry for a channel, as described in
// spec.md §3. Codepage is intentionally absent here: per the §9 Open
// Question resolution, codepage is stamped onto the EitItem at
// construction time in the engine, not onto the EPG's own events.
type Event struct {
	Start       int64
	Stop        int64
	Title       string
	Description string
	Category    string
	Language    string
}

// Duration returns Stop-Start in seconds.
func (e Event) Duration() int64 { return e.Stop - e.Start }

// Channel is one XMLTV channel's ordered, non-overlapping event list.
type Channel struct {
	XMLTVID string
	Events  []Event
}

// Store is the in-memory channel->events map produced by a Loader.
// It is immutable in shape after Load returns; nothing in this
// package mutates a Store's Channels slice contents afterwards.
type Store struct {
	channels map[string]*Channel
}

// NewStore builds an empty Store, ready for Add.
func NewStore() *Store {
	return &Store{channels: make(map[string]*Channel)}
}

// Add registers a channel's events, replacing any previous entry with
// the same xmltv id.
func (s *Store) Add(xmltvID string, events []Event) {
	s.channels[xmltvID] = &Channel{XMLTVID: xmltvID, Events: events}
}

// Channel looks up a channel by its XMLTV id. The second return value
// is false if the id is not present in the store.
func (s *Store) Channel(xmltvID string) (*Channel, bool) {
	c, ok := s.channels[xmltvID]
	return c, ok
}

// Len returns the number of loaded channels.
func (s *Store) Len() int { return len(s.channels) }

// Channels returns every loaded channel, for merging multiple Stores
// together (one per distinct XMLTV source a config file names).
func (s *Store) Channels() []*Channel {
	out := make([]*Channel, 0, len(s.channels))
	for _, c := range s.channels {
		out = append(out, c)
	}
	return out
}

// Loader parses an external program-listing source into a Store. The
// production implementation (XMLTVLoader in xmltv.go) reads xmltv.org
// XML; tests substitute a Store built directly via NewStore/Add.
type Loader interface {
	Load(path string) (*Store, error)
}
