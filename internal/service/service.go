// Package service holds the per-service mutable EIT state: the two
// owned tables (present/following and schedule) and the tick that
// ages out finished events, promotes the next one, and marks the
// running flag. Grounded on original_source/src/main.rs's Service
// type, generalized from its drain-and-push rule to the
// clone-on-promote rule (see DESIGN.md).
package service

import "github.com/cesbo/eit-stream/internal/psi"

// Service is one EIT-carrying program within a multiplex. Owned
// exclusively by the engine; EPGRef is the XMLTV channel id its
// events are sourced from.
type Service struct {
	ONID     uint16
	TSID     uint16
	PNR      uint16
	Codepage byte
	XMLTVID  string
	EPGRef   string

	Present  *psi.Eit
	Schedule *psi.Eit

	nextEventID uint16
}

// New returns a Service with empty present/schedule tables stamped
// with the right table ids and service identifiers, per spec.md §4.1.
func New(onid, tsid, pnr uint16, codepage byte, xmltvID string) *Service {
	return &Service{
		ONID:     onid,
		TSID:     tsid,
		PNR:      pnr,
		Codepage: codepage,
		XMLTVID:  xmltvID,
		EPGRef:   xmltvID,
		Present: &psi.Eit{
			TableID: psi.TableIDEITPresentFollowing,
			PNR:     pnr,
			TSID:    tsid,
			ONID:    onid,
		},
		Schedule: &psi.Eit{
			TableID: psi.TableIDEITSchedule,
			PNR:     pnr,
			TSID:    tsid,
			ONID:    onid,
		},
	}
}

// NextEventID returns the next monotonic event id for this service,
// starting at 1 and never reused for the process lifetime.
func (s *Service) NextEventID() uint16 {
	s.nextEventID++
	return s.nextEventID
}

// Tick runs the complete §4.2 state transition for one cycle.
func (s *Service) Tick(now int64) {
	// 1. Age out the current event.
	if len(s.Present.Items) > 0 {
		head := s.Present.Items[0]
		if head.Start+head.Duration <= now {
			s.Present.Items = s.Present.Items[1:]
			if len(s.Schedule.Items) > 0 {
				s.Schedule.Items = s.Schedule.Items[1:]
			}
			s.Present.BumpVersion()
			s.Schedule.BumpVersion()
		}
	}

	// 2. Promote next.
	if len(s.Present.Items) == 0 {
		if len(s.Schedule.Items) == 0 {
			return
		}
		s.Present.Items = append(s.Present.Items, s.Schedule.Items[0].Clone())
	}

	// 3. Check readiness.
	if s.Present.Items[0].Start > now {
		return
	}

	// 4. Attach following.
	if len(s.Present.Items) == 1 && len(s.Schedule.Items) >= 2 {
		s.Present.Items = append(s.Present.Items, s.Schedule.Items[1].Clone())
	}

	// 5. Mark running.
	s.Present.Items[0].Status = psi.RunningStatusRunning
}
