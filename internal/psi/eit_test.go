package psi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItem(id uint16) *EitItem {
	return &EitItem{
		EventID:  id,
		Start:    time.Date(2026, 7, 29, 20, 0, 0, 0, time.UTC).Unix(),
		Duration: 1800,
		Status:   RunningStatusUndefined,
		ShortEvent: &ShortEventDescriptor{
			Language:  [3]byte{'e', 'n', 'g'},
			EventName: []byte("Show"),
			Text:      []byte("Synopsis"),
		},
	}
}

func TestEitItemCloneIsIndependent(t *testing.T) {
	it := sampleItem(1)
	clone := it.Clone()
	clone.ShortEvent.EventName = []byte("Changed")

	assert.Equal(t, []byte("Show"), it.ShortEvent.EventName)
	assert.NotSame(t, it.ShortEvent, clone.ShortEvent)
}

func TestSplitSectionsSingleSection(t *testing.T) {
	e := &Eit{
		TableID: TableIDEITPresentFollowing,
		PNR:     1,
		Items:   []*EitItem{sampleItem(1), sampleItem(2)},
	}

	sections, err := splitSections(e)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Len(t, sections[0].items, 2)
}

func TestSplitSectionsOverflowsToMultipleSections(t *testing.T) {
	e := &Eit{TableID: TableIDEITSchedule, PNR: 1}
	for i := 0; i < 400; i++ {
		e.Items = append(e.Items, sampleItem(uint16(i)))
	}

	sections, err := splitSections(e)
	require.NoError(t, err)
	assert.Greater(t, len(sections), 1)

	total := 0
	for _, s := range sections {
		assert.LessOrEqual(t, len(s.bytes), maxSectionBodyBytes)
		total += len(s.items)
	}
	assert.Equal(t, len(e.Items), total)
}

func TestEitDemuxProducesWholePackets(t *testing.T) {
	e := &Eit{
		TableID: TableIDEITPresentFollowing,
		PNR:     7,
		TSID:    1,
		ONID:    1,
		Items:   []*EitItem{sampleItem(100)},
	}

	var cc uint8
	out, err := e.Demux(&cc)
	require.NoError(t, err)
	require.NotZero(t, len(out))
	assert.Zero(t, len(out)%PacketSize)
	assert.Equal(t, byte(syncByte), out[0])
}

func TestEitDemuxAdvancesContinuityCounterMod16(t *testing.T) {
	e := &Eit{TableID: TableIDEITSchedule, PNR: 1}
	for i := 0; i < 400; i++ {
		e.Items = append(e.Items, sampleItem(uint16(i)))
	}

	cc := uint8(14)
	out, err := e.Demux(&cc)
	require.NoError(t, err)

	npackets := len(out) / PacketSize
	assert.Equal(t, uint8((14+npackets)%16), cc)

	for i := 0; i < npackets; i++ {
		pkt := out[i*PacketSize : (i+1)*PacketSize]
		_, _, gotCC, _, _ := readPacketHeader(pkt[1:])
		assert.Equal(t, uint8((14+i)%16), gotCC)
	}
}

func TestBumpVersionWrapsModulo32(t *testing.T) {
	e := &Eit{Version: 31}
	e.BumpVersion()
	assert.Equal(t, uint8(0), e.Version)
}
