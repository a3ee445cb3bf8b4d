package psi

import (
	"bytes"
	"testing"
	"time"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortEventDescriptorRoundTrip(t *testing.T) {
	want := &ShortEventDescriptor{
		Language:  [3]byte{'e', 'n', 'g'},
		EventName: []byte("News"),
		Text:      []byte("Evening bulletin"),
	}

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, want.write(w))

	r := bitio.NewCountReader(bytes.NewReader(buf.Bytes()))
	tag := r.TryReadByte()
	length := r.TryReadByte()
	require.Equal(t, uint8(DescriptorTagShortEvent), tag)
	require.Equal(t, want.length(), length)

	got, err := readShortEventDescriptor(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExtendedEventDescriptorRoundTrip(t *testing.T) {
	want := &ExtendedEventDescriptor{
		Number:               0,
		LastDescriptorNumber: 0,
		Language:             [3]byte{'e', 'n', 'g'},
		Text:                 []byte("A longer synopsis of the programme."),
	}

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, want.write(w))

	r := bitio.NewCountReader(bytes.NewReader(buf.Bytes()))
	_ = r.TryReadByte() // tag
	_ = r.TryReadByte() // length

	got, err := readExtendedEventDescriptor(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocalTimeOffsetDescriptorRoundTrip(t *testing.T) {
	want := LocalTimeOffsetDescriptor{{
		CountryCode:    [3]byte{'f', 'r', 'a'},
		RegionID:       0,
		OffsetPolarity: false,
		Offset:         time.Hour,
		TimeOfChange:   time.Date(2026, 7, 29, 1, 0, 0, 0, time.UTC),
		NextTimeOffset: time.Hour,
	}}

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, want.write(w))

	r := bitio.NewCountReader(bytes.NewReader(buf.Bytes()))
	_ = r.TryReadByte() // tag
	length := r.TryReadByte()

	got, err := readLocalTimeOffsetDescriptor(r, length)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].CountryCode, got[0].CountryCode)
	assert.Equal(t, want[0].RegionID, got[0].RegionID)
	assert.Equal(t, want[0].OffsetPolarity, got[0].OffsetPolarity)
	assert.Equal(t, want[0].Offset, got[0].Offset)
	assert.True(t, want[0].TimeOfChange.Equal(got[0].TimeOfChange))
	assert.Equal(t, want[0].NextTimeOffset, got[0].NextTimeOffset)
}

// TestLocalTimeOffsetDescriptorZeroTimeOfChangeWritesLiteralZero exercises
// the exact item shape emitTdtTot constructs (a zero-value TimeOfChange,
// meaning "no scheduled offset change"): the wire field must be the literal
// all-zero 40 bits, not whatever writeDVBTime's MJD formula produces when
// fed the zero time.Time.
func TestLocalTimeOffsetDescriptorZeroTimeOfChangeWritesLiteralZero(t *testing.T) {
	d := LocalTimeOffsetDescriptor{{
		CountryCode:    [3]byte{'f', 'r', 'a'},
		OffsetPolarity: false,
		Offset:         time.Hour,
	}}

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, d.write(w))

	b := buf.Bytes()
	// tag(1) + length(1) + country(3) + region/polarity(1) + offset(2) = 8
	timeOfChange := b[8:13]
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, timeOfChange)
}
