// Package psi implements the bit-exact DVB PSI wire codec this engine
// depends on: EIT, TDT/TOT section and descriptor serialization, CRC32,
// and 188-byte Transport Stream packet framing. It plays the role
// spec.md §4.4 calls the "PSI demuxer primitive" and §3's EitItem/Eit
// types, ported from the teacher package's data_eit.go/data_psi.go/
// packet.go/descriptor.go (read-side parsing generalized here to
// write-side serialization, since this engine only ever emits).
package psi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// Table ids, per spec.md §6.
const (
	TableIDEITPresentFollowing uint8 = 0x4e
	TableIDEITSchedule         uint8 = 0x50
	TableIDTDT                 uint8 = 0x70
	TableIDTOT                 uint8 = 0x73
)

// PIDs, per spec.md §6.
const (
	PIDEIT  uint16 = 0x12
	PIDTDT  uint16 = 0x14
	PIDNull uint16 = 0x1fff
)

// DVB running statuses. Only Undefined and Running are used by this
// engine per spec.md §3/§4.2.
const (
	RunningStatusUndefined uint8 = 0
	RunningStatusRunning   uint8 = 4
)

// maxSectionBodyBytes is the largest a section's section_length (the
// 11-byte EIT syntax header, the event rows and the CRC32) may be
// before its events must be split across sections, per spec.md §4.4.
const maxSectionBodyBytes = 4093

// eitSectionOverheadBytes is the part of section_length that is not
// event rows: the 11-byte EIT syntax header plus the 4-byte CRC32.
const eitSectionOverheadBytes = 11 + 4

// EitItem is one EIT event row, per spec.md §3.
type EitItem struct {
	EventID      uint16
	Start        int64 // Unix seconds.
	Duration     int64 // seconds.
	Status       uint8 // 3-bit DVB running status.
	FreeCAMode   bool
	ShortEvent   *ShortEventDescriptor
	ExtendedEvent *ExtendedEventDescriptor
}

// Clone returns a shallow copy of the item with independent
// descriptor pointers, so promoting an item into `present` can't let
// later mutation of the clone alias the item still owned by
// `schedule` — see spec.md §9 ("Mutable-during-iteration").
func (it *EitItem) Clone() *EitItem {
	c := *it
	if it.ShortEvent != nil {
		se := *it.ShortEvent
		c.ShortEvent = &se
	}
	if it.ExtendedEvent != nil {
		ee := *it.ExtendedEvent
		c.ExtendedEvent = &ee
	}
	return &c
}

func (it *EitItem) descriptors() []descriptorWriter {
	var ds []descriptorWriter
	if it.ShortEvent != nil {
		ds = append(ds, it.ShortEvent)
	}
	if it.ExtendedEvent != nil {
		ds = append(ds, it.ExtendedEvent)
	}
	return ds
}

type descriptorWriter interface {
	write(w *bitio.Writer) error
	length() uint8
}

func descriptorsLength(ds []descriptorWriter) uint16 {
	n := uint16(0)
	for _, d := range ds {
		n += 2 + uint16(d.length()) // tag + length byte + body
	}
	return n
}

// Eit is one DVB table (present/following or schedule), per spec.md §3.
type Eit struct {
	TableID uint8
	PNR     uint16
	TSID    uint16
	ONID    uint16
	Version uint8 // 5 bits, wraps mod 32.
	Items   []*EitItem
}

// BumpVersion increments Version modulo 32, per spec.md §4.2.
func (e *Eit) BumpVersion() {
	e.Version = (e.Version + 1) & 0x1f
}

// writeEitItem writes one EIT event row (event_id, start, duration,
// status/free_ca_mode, descriptor loop).
func writeEitItem(w *bitio.Writer, it *EitItem) error {
	w.TryWriteBits(uint64(it.EventID), 16)

	if err := writeDVBTime(w, time.Unix(it.Start, 0)); err != nil {
		return fmt.Errorf("writing event start: %w", err)
	}
	if err := writeDVBDurationSeconds(w, time.Duration(it.Duration)*time.Second); err != nil {
		return fmt.Errorf("writing event duration: %w", err)
	}

	w.TryWriteBits(uint64(it.Status), 3)
	w.TryWriteBool(it.FreeCAMode)

	ds := it.descriptors()
	w.TryWriteBits(uint64(descriptorsLength(ds)), 12)

	for _, d := range ds {
		if err := d.write(w); err != nil {
			return err
		}
	}

	return w.TryError
}

func readEitItem(r *bitio.CountReader) (*EitItem, error) {
	it := &EitItem{}
	it.EventID = uint16(r.TryReadBits(16))

	start, err := readDVBTime(r)
	if err != nil {
		return nil, fmt.Errorf("reading event start: %w", err)
	}
	it.Start = start.Unix()

	dur, err := readDVBDurationSeconds(r)
	if err != nil {
		return nil, fmt.Errorf("reading event duration: %w", err)
	}
	it.Duration = int64(dur / time.Second)

	it.Status = uint8(r.TryReadBits(3))
	it.FreeCAMode = r.TryReadBool()

	loopLength := r.TryReadBits(12)
	offsetEnd := r.BitsCount/8 + int64(loopLength)

	for r.BitsCount/8 < offsetEnd {
		tag := r.TryReadByte()
		length := r.TryReadByte()
		switch tag {
		case DescriptorTagShortEvent:
			se, err := readShortEventDescriptor(r)
			if err != nil {
				return nil, fmt.Errorf("reading short event descriptor: %w", err)
			}
			it.ShortEvent = se
		case DescriptorTagExtendedEvent:
			ee, err := readExtendedEventDescriptor(r)
			if err != nil {
				return nil, fmt.Errorf("reading extended event descriptor: %w", err)
			}
			it.ExtendedEvent = ee
		default:
			logger.Error(fmt.Sprintf("psi: skipping unknown descriptor tag 0x%x", tag))
			skip := make([]byte, length)
			TryReadFull(r, skip)
		}
	}

	return it, r.TryError
}

// sectionBody is a rendered EIT section's syntax-section body
// (everything between the 11-byte syntax header and the trailing
// CRC32), used to decide where to split across sections.
type sectionBody struct {
	items []*EitItem
	bytes []byte
}

// splitSections partitions e.Items into one or more section bodies,
// each small enough that its section_length stays within
// maxSectionBodyBytes, per spec.md §4.4.
func splitSections(e *Eit) ([]sectionBody, error) {
	var sections []sectionBody
	var cur []byte
	var curItems []*EitItem

	flush := func() {
		sections = append(sections, sectionBody{items: curItems, bytes: cur})
		cur = nil
		curItems = nil
	}

	for _, it := range e.Items {
		buf := &bytes.Buffer{}
		w := bitio.NewWriter(buf)
		if err := writeEitItem(w, it); err != nil {
			return nil, err
		}
		itemBytes := buf.Bytes()

		if len(cur)+len(itemBytes) > maxSectionBodyBytes-eitSectionOverheadBytes && len(cur) > 0 {
			flush()
		}
		cur = append(cur, itemBytes...)
		curItems = append(curItems, it)
	}

	if len(cur) > 0 || len(sections) == 0 {
		flush()
	}

	return sections, nil
}
