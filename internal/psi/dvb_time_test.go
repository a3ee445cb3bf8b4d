package psi

import (
	"bytes"
	"testing"
	"time"

	"github.com/icza/bitio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDVBTimeRoundTrip(t *testing.T) {
	want, err := time.Parse("2006-01-02 15:04:05", "1993-10-13 12:45:00")
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, writeDVBTime(w, want))

	assert.Equal(t, []byte{0xc0, 0x79, 0x12, 0x45, 0x0}, buf.Bytes())

	r := bitio.NewCountReader(bytes.NewReader(buf.Bytes()))
	got, err := readDVBTime(r)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestDVBDurationSecondsRoundTrip(t *testing.T) {
	want := time.Hour + 45*time.Minute + 30*time.Second

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, writeDVBDurationSeconds(w, want))
	assert.Equal(t, []byte{0x1, 0x45, 0x30}, buf.Bytes())

	r := bitio.NewCountReader(bytes.NewReader(buf.Bytes()))
	got, err := readDVBDurationSeconds(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDVBDurationMinutesRoundTrip(t *testing.T) {
	want := time.Hour + 45*time.Minute

	buf := &bytes.Buffer{}
	w := bitio.NewWriter(buf)
	require.NoError(t, writeDVBDurationMinutes(w, want))
	assert.Equal(t, []byte{0x1, 0x45}, buf.Bytes())

	r := bitio.NewCountReader(bytes.NewReader(buf.Bytes()))
	got, err := readDVBDurationMinutes(r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBCD(t *testing.T) {
	assert.Equal(t, uint8(0x45), bcd(45))
	assert.Equal(t, uint8(45), fromBCD(0x45))
	assert.Equal(t, uint8(0x0), bcd(0))
}
