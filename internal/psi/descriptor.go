package psi

import (
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// Descriptor tags used by this engine. Ported from the teacher
// package's descriptor.go tag table, trimmed to the three descriptors
// spec.md §4.1/§4.5 actually need.
const (
	DescriptorTagShortEvent      = 0x4d
	DescriptorTagExtendedEvent   = 0x4e
	DescriptorTagLocalTimeOffset = 0x58
)

// ShortEventDescriptor carries an event's name and a short text,
// grounded on the teacher's DescriptorShortEvent.
type ShortEventDescriptor struct {
	Language  [3]byte
	EventName []byte
	Text      []byte
}

func (d *ShortEventDescriptor) length() uint8 {
	return uint8(3 + 1 + len(d.EventName) + 1 + len(d.Text))
}

func (d *ShortEventDescriptor) write(w *bitio.Writer) error {
	w.TryWriteByte(DescriptorTagShortEvent)
	w.TryWriteByte(d.length())
	w.TryWrite(d.Language[:])
	w.TryWriteByte(uint8(len(d.EventName)))
	w.TryWrite(d.EventName)
	w.TryWriteByte(uint8(len(d.Text)))
	w.TryWrite(d.Text)
	return w.TryError
}

func readShortEventDescriptor(r *bitio.CountReader) (*ShortEventDescriptor, error) {
	d := &ShortEventDescriptor{}
	lang := make([]byte, 3)
	TryReadFull(r, lang)
	copy(d.Language[:], lang)

	nameLen := r.TryReadByte()
	d.EventName = make([]byte, nameLen)
	TryReadFull(r, d.EventName)

	textLen := r.TryReadByte()
	d.Text = make([]byte, textLen)
	TryReadFull(r, d.Text)

	return d, r.TryError
}

// ExtendedEventDescriptor carries one further text field for an event,
// grounded on the teacher's DescriptorExtendedEvent (Items support
// dropped: this engine never splits a text across descriptor items).
type ExtendedEventDescriptor struct {
	Number               uint8
	LastDescriptorNumber uint8
	Language             [3]byte
	Text                 []byte
}

func (d *ExtendedEventDescriptor) length() uint8 {
	return uint8(1 + 3 + 1 + 1 + len(d.Text)) // numbers byte, lang, items-length byte (0), text-length byte, text
}

func (d *ExtendedEventDescriptor) write(w *bitio.Writer) error {
	w.TryWriteByte(DescriptorTagExtendedEvent)
	w.TryWriteByte(d.length())
	w.TryWriteBits(uint64(d.Number), 4)
	w.TryWriteBits(uint64(d.LastDescriptorNumber), 4)
	w.TryWrite(d.Language[:])
	w.TryWriteByte(0) // length of items, always empty
	w.TryWriteByte(uint8(len(d.Text)))
	w.TryWrite(d.Text)
	return w.TryError
}

func readExtendedEventDescriptor(r *bitio.CountReader) (*ExtendedEventDescriptor, error) {
	d := &ExtendedEventDescriptor{}
	d.Number = uint8(r.TryReadBits(4))
	d.LastDescriptorNumber = uint8(r.TryReadBits(4))

	lang := make([]byte, 3)
	TryReadFull(r, lang)
	copy(d.Language[:], lang)

	itemsLength := r.TryReadByte()
	skip := make([]byte, itemsLength)
	TryReadFull(r, skip)

	textLen := r.TryReadByte()
	d.Text = make([]byte, textLen)
	TryReadFull(r, d.Text)

	return d, r.TryError
}

// LocalTimeOffsetItem is one entry of a local-time-offset descriptor,
// per spec.md §4.5. Ported from the teacher's
// DescriptorLocalTimeOffsetItem. TimeOfChange and NextTimeOffset are
// written as given; a zero TimeOfChange is written as an all-zero
// time_of_change field, and the engine leaves both unset.
type LocalTimeOffsetItem struct {
	CountryCode     [3]byte
	RegionID        uint8
	OffsetPolarity  bool // false = '+', true = '-'
	Offset          time.Duration
	TimeOfChange    time.Time
	NextTimeOffset  time.Duration
}

// LocalTimeOffsetDescriptor is a sequence of offset items (one, in
// this engine's usage).
type LocalTimeOffsetDescriptor []LocalTimeOffsetItem

func (d LocalTimeOffsetDescriptor) length() uint8 {
	return uint8(13 * len(d))
}

func (d LocalTimeOffsetDescriptor) write(w *bitio.Writer) error {
	w.TryWriteByte(DescriptorTagLocalTimeOffset)
	w.TryWriteByte(d.length())
	for _, item := range d {
		w.TryWrite(item.CountryCode[:])
		w.TryWriteBits(uint64(item.RegionID), 6)
		w.TryWriteBool(true) // reserved
		w.TryWriteBool(item.OffsetPolarity)
		if err := writeDVBDurationMinutes(w, item.Offset); err != nil {
			return fmt.Errorf("writing local time offset: %w", err)
		}
		if item.TimeOfChange.IsZero() {
			// time_of_change has no scheduled change to report; the
			// zero Go time.Time isn't a real MJD date, so write the
			// literal all-zero 40-bit field spec.md §4.5 calls for
			// instead of running it through the MJD formula.
			w.TryWriteBits(0, 40)
		} else if err := writeDVBTime(w, item.TimeOfChange); err != nil {
			return fmt.Errorf("writing time of change: %w", err)
		}
		if err := writeDVBDurationMinutes(w, item.NextTimeOffset); err != nil {
			return fmt.Errorf("writing next time offset: %w", err)
		}
	}
	return w.TryError
}

func readLocalTimeOffsetDescriptor(r *bitio.CountReader, descriptorLength uint8) (LocalTimeOffsetDescriptor, error) {
	offsetEnd := r.BitsCount/8 + int64(descriptorLength)
	var d LocalTimeOffsetDescriptor
	for r.BitsCount/8 < offsetEnd {
		item := LocalTimeOffsetItem{}
		cc := make([]byte, 3)
		TryReadFull(r, cc)
		copy(item.CountryCode[:], cc)

		item.RegionID = uint8(r.TryReadBits(6))
		_ = r.TryReadBool() // reserved
		item.OffsetPolarity = r.TryReadBool()

		var err error
		if item.Offset, err = readDVBDurationMinutes(r); err != nil {
			return nil, fmt.Errorf("reading local time offset: %w", err)
		}
		if item.TimeOfChange, err = readDVBTime(r); err != nil {
			return nil, fmt.Errorf("reading time of change: %w", err)
		}
		if item.NextTimeOffset, err = readDVBDurationMinutes(r); err != nil {
			return nil, fmt.Errorf("reading next time offset: %w", err)
		}
		d = append(d, item)
	}
	return d, r.TryError
}
