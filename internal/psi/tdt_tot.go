package psi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// Tdt is the Time and Date Table: a single UTC timestamp, no syntax
// header, no CRC32. Ported from the teacher's data_tot.go TDT shape.
type Tdt struct {
	Time time.Time
}

// Demux renders t as one TS packet on PIDTDT, advancing *cc.
func (t *Tdt) Demux(cc *uint8) ([]byte, error) {
	body := &bytes.Buffer{}
	w := bitio.NewWriter(body)
	if err := writeDVBTime(w, t.Time); err != nil {
		return nil, fmt.Errorf("writing tdt time: %w", err)
	}
	if w.TryError != nil {
		return nil, w.TryError
	}

	section, err := writeSection(TableIDTDT, false, false, 0, 0, 0, 0, body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("writing tdt section: %w", err)
	}

	return demuxSection(PIDTDT, cc, section)
}

// Tot is the Time Offset Table: a UTC timestamp plus a
// local_time_offset descriptor loop, with a CRC32 but no syntax
// header — the asymmetry the teacher's data_psi.go classification
// functions (hasPSISyntaxHeader/hasCRC32) call out explicitly.
type Tot struct {
	Time    time.Time
	Offsets LocalTimeOffsetDescriptor
}

// Demux renders t as one TS packet on PIDTDT (TOT shares TDT's PID),
// advancing *cc.
func (t *Tot) Demux(cc *uint8) ([]byte, error) {
	body := &bytes.Buffer{}
	w := bitio.NewWriter(body)
	if err := writeDVBTime(w, t.Time); err != nil {
		return nil, fmt.Errorf("writing tot time: %w", err)
	}

	w.TryWriteBits(0xf, 4) // reserved_future_use
	w.TryWriteBits(uint64(t.Offsets.length()+2), 12)
	if err := t.Offsets.write(w); err != nil {
		return nil, fmt.Errorf("writing tot offsets: %w", err)
	}
	if w.TryError != nil {
		return nil, w.TryError
	}

	section, err := writeSection(TableIDTOT, false, true, 0, 0, 0, 0, body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("writing tot section: %w", err)
	}

	return demuxSection(PIDTDT, cc, section)
}

// demuxSection wraps a single rendered section in a pointer_field byte
// and packetizes it, per spec.md §4.4.
func demuxSection(pid uint16, cc *uint8, section []byte) ([]byte, error) {
	payload := make([]byte, 0, len(section)+1)
	payload = append(payload, 0x00) // pointer_field: section starts immediately
	payload = append(payload, section...)

	buf := &bytes.Buffer{}
	if err := writePackets(buf, pid, cc, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Demux renders e as one or more TS packets on PIDEIT, splitting its
// items across sections per spec.md §4.4 and advancing *cc once per
// packet. Each section starts at a fresh packet (pointer_field=0x00);
// EITs never share a packet to keep per-event-table continuity simple
// to reason about.
func (e *Eit) Demux(cc *uint8) ([]byte, error) {
	sections, err := splitSections(e)
	if err != nil {
		return nil, fmt.Errorf("splitting eit sections: %w", err)
	}

	out := &bytes.Buffer{}
	last := uint8(len(sections) - 1)
	for i, sec := range sections {
		syntaxAndBody := &bytes.Buffer{}
		w := bitio.NewWriter(syntaxAndBody)

		w.TryWriteBits(uint64(e.PNR), 16) // service_id (table_id_extension)
		w.TryWriteBits(0x3, 2)            // reserved
		w.TryWriteBits(uint64(e.Version), 5)
		w.TryWriteBool(true) // current_next_indicator
		w.TryWriteByte(uint8(i))
		w.TryWriteByte(last)
		w.TryWriteBits(uint64(e.TSID), 16)
		w.TryWriteBits(uint64(e.ONID), 16)
		w.TryWriteByte(last) // segment_last_section_number: single segment
		w.TryWriteByte(e.TableID)
		w.TryWrite(sec.bytes)
		if w.TryError != nil {
			return nil, fmt.Errorf("assembling eit section %d: %w", i, w.TryError)
		}

		rendered, err := writeRawSection(e.TableID, true, syntaxAndBody.Bytes())
		if err != nil {
			return nil, fmt.Errorf("writing eit section %d: %w", i, err)
		}

		packets, err := demuxSection(PIDEIT, cc, rendered)
		if err != nil {
			return nil, err
		}
		out.Write(packets)
	}

	return out.Bytes(), nil
}
