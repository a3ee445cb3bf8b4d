package engine

import (
	"github.com/cesbo/eit-stream/internal/epg"
	"github.com/cesbo/eit-stream/internal/psi"
	"github.com/cesbo/eit-stream/internal/service"
)

// Warnf is the seam application wiring uses to route builder warnings
// (XMLTV id not found, empty schedule) to the structured logger,
// per spec.md §4.1/§7. Defaults to a no-op so tests stay quiet.
var Warnf = func(format string, args ...interface{}) {}

// buildService materializes svc's schedule table from the EPG store,
// per spec.md §4.1. present starts empty; promotion happens in the
// service state machine's first Tick.
func buildService(svc *service.Service, store *epg.Store, now int64, eitDays int) {
	lastTime := now + int64(eitDays)*86400

	ch, ok := store.Channel(svc.EPGRef)
	if !ok {
		Warnf("service pnr=%d: xmltv id %q not found in epg, leaving idle", svc.PNR, svc.EPGRef)
		return
	}

	for _, ev := range ch.Events {
		if ev.Start > lastTime {
			break
		}
		if ev.Stop <= now {
			continue
		}

		item := &psi.EitItem{
			EventID:  svc.NextEventID(),
			Start:    ev.Start,
			Duration: ev.Duration(),
			Status:   psi.RunningStatusUndefined,
			ShortEvent: &psi.ShortEventDescriptor{
				Language:  languageCode(ev.Language),
				EventName: withCodepagePrefix(svc.Codepage, ev.Title),
				Text:      withCodepagePrefix(svc.Codepage, ev.Description),
			},
		}
		if ev.Category != "" {
			item.ExtendedEvent = &psi.ExtendedEventDescriptor{
				Language: languageCode(ev.Language),
				Text:     withCodepagePrefix(svc.Codepage, ev.Category),
			}
		}

		svc.Schedule.Items = append(svc.Schedule.Items, item)
	}

	if len(svc.Schedule.Items) == 0 {
		Warnf("service pnr=%d: empty schedule after build", svc.PNR)
	}
}

func withCodepagePrefix(codepage byte, s string) []byte {
	prefix := psi.Codepage(codepage).Prefix()
	b := make([]byte, 0, len(prefix)+len(s))
	b = append(b, prefix...)
	b = append(b, s...)
	return b
}

func languageCode(lang string) [3]byte {
	var out [3]byte
	if lang == "" {
		copy(out[:], "eng")
		return out
	}
	copy(out[:], lang)
	return out
}
