package psi

import (
	"bytes"

	"github.com/icza/bitio"
)

// writeSection renders one PSI section: a 3-byte header (table_id,
// section_syntax_indicator, a private bit, two reserved bits, 12-bit
// section_length),
// an optional generic syntax header (table_id_extension, version, 2
// section index bytes), the body, and an optional trailing CRC32.
// Ported from the teacher package's writePSISection/
// writePSISectionSyntaxHeader (data_psi.go), generalized from PAT/PMT
// to TDT/TOT's shapes. EIT's syntax header carries extra fields the
// generic form doesn't, so Eit.Demux uses writeRawSection instead.
func writeSection(
	tableID uint8,
	hasSyntaxHeader, hasCRC bool,
	tableIDExtension uint16,
	version uint8,
	sectionNumber, lastSectionNumber uint8,
	body []byte,
) ([]byte, error) {
	inner := &bytes.Buffer{}

	var w *bitio.Writer
	var cw *crc32Writer
	if hasCRC {
		cw = newCRC32Writer(inner)
		w = bitio.NewWriter(cw)
	} else {
		w = bitio.NewWriter(inner)
	}

	if hasSyntaxHeader {
		w.TryWriteBits(uint64(tableIDExtension), 16)
		w.TryWriteBits(0x3, 2) // reserved
		w.TryWriteBits(uint64(version), 5)
		w.TryWriteBool(true) // current_next_indicator
		w.TryWriteByte(sectionNumber)
		w.TryWriteByte(lastSectionNumber)
	}
	w.TryWrite(body)

	if w.TryError != nil {
		return nil, w.TryError
	}

	return finishSection(tableID, hasSyntaxHeader, hasCRC, inner.Bytes(), cw)
}

// writeRawSection renders a section whose syntax header and body were
// already assembled by the caller as syntaxAndBody (used by EIT, whose
// syntax header has fields — transport_stream_id, original_network_id,
// segment_last_section_number, last_table_id — the generic PSI syntax
// header above doesn't carry).
func writeRawSection(tableID uint8, hasCRC bool, syntaxAndBody []byte) ([]byte, error) {
	inner := &bytes.Buffer{}

	var cw *crc32Writer
	var w *bitio.Writer
	if hasCRC {
		cw = newCRC32Writer(inner)
		w = bitio.NewWriter(cw)
	} else {
		w = bitio.NewWriter(inner)
	}
	w.TryWrite(syntaxAndBody)
	if w.TryError != nil {
		return nil, w.TryError
	}

	return finishSection(tableID, true, hasCRC, inner.Bytes(), cw)
}

func finishSection(tableID uint8, ssi, hasCRC bool, innerBytes []byte, cw *crc32Writer) ([]byte, error) {
	sectionLength := len(innerBytes)
	if hasCRC {
		sectionLength += 4
	}

	out := &bytes.Buffer{}
	ow := bitio.NewWriter(out)
	ow.TryWriteByte(tableID)
	ow.TryWriteBool(ssi)     // section_syntax_indicator
	ow.TryWriteBool(true)    // reserved/private bit
	ow.TryWriteBits(0x3, 2)  // reserved
	ow.TryWriteBits(uint64(sectionLength), 12)
	ow.TryWrite(innerBytes)

	if hasCRC {
		// The CRC covers the whole section, 3-byte header included.
		ow.TryWriteBits(uint64(ComputeCRC32(out.Bytes())), 32)
	}

	return out.Bytes(), ow.TryError
}

// sectionHeader holds the parsed form of a section's fixed 3-byte
// header, used by the tests in section_test.go.
type sectionHeader struct {
	TableID                uint8
	SectionSyntaxIndicator bool
	SectionLength          uint16
}

func readSectionHeader(r *bitio.CountReader) (sectionHeader, error) {
	h := sectionHeader{}
	h.TableID = r.TryReadByte()
	h.SectionSyntaxIndicator = r.TryReadBool()
	_ = r.TryReadBool()     // reserved/private bit
	_ = r.TryReadBits(2)    // reserved
	h.SectionLength = uint16(r.TryReadBits(12))
	return h, r.TryError
}
