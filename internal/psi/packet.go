package psi

import (
	"bytes"

	"github.com/icza/bitio"
)

// PacketSize is the fixed MPEG-TS packet size this engine emits.
const PacketSize = 188

const syncByte = 0x47

// packetHeaderSize is the 4-byte fixed TS header: sync byte, flags+PID
// (2 bytes), and scrambling/adaptation/continuity-counter byte.
const packetHeaderSize = 4

// payloadCapacity is how many body bytes fit after the fixed header
// when no adaptation field is present.
const payloadCapacity = PacketSize - packetHeaderSize

// writePackets wraps payload (a pointer-field byte followed by one or
// more complete PSI sections) into 188-byte TS packets on pid,
// advancing *cc (4-bit, wraps mod 16) once per packet and setting
// payload_unit_start_indicator on the first packet only. The final
// packet is padded with 0xFF stuffing bytes — table id 0xFF is the
// DVB "stop parsing" sentinel, so trailing stuffing within a payload
// is the standard way to fill a packet past the last real section.
// Ported from the teacher package's packet.go (parsePacketHeader),
// generalized to the write direction.
func writePackets(buf *bytes.Buffer, pid uint16, cc *uint8, payload []byte) error {
	first := true
	for len(payload) > 0 || first {
		chunk := payload
		if len(chunk) > payloadCapacity {
			chunk = payload[:payloadCapacity]
		}
		payload = payload[len(chunk):]

		if err := writePacket(buf, pid, cc, first, chunk, len(payload) == 0); err != nil {
			return err
		}
		first = false

		if len(payload) == 0 {
			break
		}
	}
	return nil
}

// writePacket writes a single 188-byte packet. pusi marks the packet
// containing a section start. When pad is true and chunk is shorter
// than payloadCapacity, the remainder is filled with 0xFF stuffing.
func writePacket(buf *bytes.Buffer, pid uint16, cc *uint8, pusi bool, chunk []byte, pad bool) error {
	w := bitio.NewWriter(buf)

	w.TryWriteByte(syncByte)
	w.TryWriteBool(false) // transport_error_indicator
	w.TryWriteBool(pusi)
	w.TryWriteBool(false) // transport_priority
	w.TryWriteBits(uint64(pid), 13)
	w.TryWriteBits(0x0, 2) // transport_scrambling_control
	w.TryWriteBool(false)  // adaptation_field present
	w.TryWriteBool(true)   // payload present
	w.TryWriteBits(uint64(*cc), 4)

	w.TryWrite(chunk)
	if pad && len(chunk) < payloadCapacity {
		stuffing := make([]byte, payloadCapacity-len(chunk))
		for i := range stuffing {
			stuffing[i] = 0xff
		}
		w.TryWrite(stuffing)
	}

	if w.TryError != nil {
		return w.TryError
	}

	*cc = (*cc + 1) & 0xf
	return nil
}

// writeNullPackets appends n NULL packets (PID 0x1FFF, stuffed with
// 0xFF) to buf, used to pad a cycle's emission up to a 7-packet block
// boundary per spec.md §4.3. NULL packets carry no continuity
// counter discipline (§6: PID 0x1FFF is explicitly a padding PID).
func writeNullPackets(buf *bytes.Buffer, n int) error {
	cc := uint8(0)
	stuffing := bytes.Repeat([]byte{0xff}, payloadCapacity)
	for i := 0; i < n; i++ {
		if err := writePacket(buf, PIDNull, &cc, false, stuffing, false); err != nil {
			return err
		}
	}
	return nil
}

// PadToBlockBoundary appends NULL packets to buf until its length is a
// multiple of 7*PacketSize (1316 bytes), per spec.md §4.3 steps 1-3.
func PadToBlockBoundary(buf *bytes.Buffer) error {
	const block = 7 * PacketSize
	rem := buf.Len() % block
	if rem == 0 {
		return nil
	}
	missing := block - rem
	return writeNullPackets(buf, missing/PacketSize)
}

// readPacketHeader decodes bytes 1-3 of a TS packet header; used only
// by packet_test.go and eit_test.go to assert on our own written
// packets, kept minimal since this engine never needs to parse an
// upstream TS (spec.md §1 Non-goals).
func readPacketHeader(b []byte) (pid uint16, pusi bool, cc uint8, hasAdaptation, hasPayload bool) {
	pusi = b[0]&0x40 > 0
	pid = uint16(b[0]&0x1f)<<8 | uint16(b[1])
	hasAdaptation = b[2]&0x20 > 0
	hasPayload = b[2]&0x10 > 0
	cc = b[2] & 0xf
	return
}
