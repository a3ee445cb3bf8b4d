package psi

import (
	"fmt"
	"time"

	"github.com/icza/bitio"
)

// DVB time is a 40-bit field: 16-bit Modified Julian Date followed by
// a 24-bit BCD UTC time (HHMMSS). DVB duration is a 24-bit BCD
// HHMMSS. Ported from the teacher package's dvb.go, which implements
// both directions against the same MJD arithmetic
// (ETSI EN 300 468 Annex C).

// writeDVBTime writes t (treated as UTC) as MJD+BCD.
func writeDVBTime(w *bitio.Writer, t time.Time) error {
	t = t.UTC()
	year := t.Year() - 1900
	month := t.Month()
	day := t.Day()

	l := 0
	if month <= time.February {
		l = 1
	}

	mjd := 14956 + day + int(float64(year-l)*365.25) + int(float64(int(month)+1+l*12)*30.6001)

	d := t.Sub(t.Truncate(24 * time.Hour))

	w.TryWriteBits(uint64(mjd), 16)
	if err := writeDVBDurationSeconds(w, d); err != nil {
		return err
	}
	return w.TryError
}

// readDVBTime parses a 40-bit MJD+BCD time, for round-trip tests.
func readDVBTime(r *bitio.CountReader) (time.Time, error) {
	mjd := uint16(r.TryReadBits(16))

	yt := int((float32(mjd) - 15078.2) / 365.25)
	mt := int((float64(mjd) - 14956.1 - float64(uint16(float64(yt)*365.25))) / 30.6001)
	d := int(mjd - 14956 - uint16(float64(yt)*365.25) - uint16(float64(mt)*30.6001))

	var k int
	if mt == 14 || mt == 15 {
		k = 1
	}
	y := yt + k
	m := mt - 1 - k*12

	dur, err := readDVBDurationSeconds(r)
	if err != nil {
		return time.Time{}, fmt.Errorf("reading DVB duration failed: %w", err)
	}

	date := time.Date(1900+y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return date.Add(dur), r.TryError
}

func writeDVBDurationSeconds(w *bitio.Writer, d time.Duration) error {
	hours := uint8(d.Hours())
	minutes := uint8(int(d.Minutes()) % 60)
	seconds := uint8(int(d.Seconds()) % 60)

	w.TryWriteByte(bcd(hours))
	w.TryWriteByte(bcd(minutes))
	w.TryWriteByte(bcd(seconds))

	return w.TryError
}

func readDVBDurationSeconds(r *bitio.CountReader) (time.Duration, error) {
	h := fromBCD(r.TryReadByte())
	m := fromBCD(r.TryReadByte())
	s := fromBCD(r.TryReadByte())
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, r.TryError
}

func writeDVBDurationMinutes(w *bitio.Writer, d time.Duration) error {
	hours := uint8(d.Hours())
	minutes := uint8(int(d.Minutes()) % 60)

	w.TryWriteByte(bcd(hours))
	w.TryWriteByte(bcd(minutes))

	return w.TryError
}

func readDVBDurationMinutes(r *bitio.CountReader) (time.Duration, error) {
	h := fromBCD(r.TryReadByte())
	m := fromBCD(r.TryReadByte())
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, r.TryError
}

func bcd(n uint8) uint8 {
	return (n/10)<<4 | n%10
}

func fromBCD(b byte) uint8 {
	return (b>>4)*10 + b&0xf
}
