package service

import (
	"testing"

	"github.com/cesbo/eit-stream/internal/psi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemAt(id uint16, start, duration int64) *psi.EitItem {
	return &psi.EitItem{EventID: id, Start: start, Duration: duration}
}

func TestTickPromotesFirstEventWhenStarted(t *testing.T) {
	now := int64(1000)
	svc := New(1, 1, 100, 0, "ch1")
	svc.Schedule.Items = []*psi.EitItem{itemAt(1, now-100, 150)} // running now

	svc.Tick(now)

	require.Len(t, svc.Present.Items, 1)
	assert.Equal(t, uint8(psi.RunningStatusRunning), svc.Present.Items[0].Status)
}

func TestTickPromotesButLeavesStatusUndefinedForFutureEvent(t *testing.T) {
	now := int64(1000)
	svc := New(1, 1, 100, 0, "ch1")
	svc.Schedule.Items = []*psi.EitItem{itemAt(1, now+10, 600)}

	svc.Tick(now)

	require.Len(t, svc.Present.Items, 1)
	assert.Equal(t, uint8(psi.RunningStatusUndefined), svc.Present.Items[0].Status)
}

func TestTickAttachesFollowing(t *testing.T) {
	now := int64(1000)
	svc := New(1, 1, 100, 0, "ch1")
	svc.Schedule.Items = []*psi.EitItem{
		itemAt(1, now-50, 100),
		itemAt(2, now+50, 600),
	}

	svc.Tick(now)

	require.Len(t, svc.Present.Items, 2)
	assert.Equal(t, uint16(1), svc.Present.Items[0].EventID)
	assert.Equal(t, uint16(2), svc.Present.Items[1].EventID)
	assert.Equal(t, uint8(psi.RunningStatusRunning), svc.Present.Items[0].Status)
}

func TestTickIsIdempotentWithoutClockAdvance(t *testing.T) {
	now := int64(1000)
	svc := New(1, 1, 100, 0, "ch1")
	svc.Schedule.Items = []*psi.EitItem{
		itemAt(1, now-50, 100),
		itemAt(2, now+50, 600),
	}

	svc.Tick(now)
	presentVersion := svc.Present.Version
	scheduleVersion := svc.Schedule.Version
	presentLen := len(svc.Present.Items)

	svc.Tick(now)

	assert.Equal(t, presentVersion, svc.Present.Version)
	assert.Equal(t, scheduleVersion, svc.Schedule.Version)
	assert.Len(t, svc.Present.Items, presentLen)
}

func TestAgeOutScenario(t *testing.T) {
	now := int64(1000)
	svc := New(1, 1, 100, 0, "ch1")
	svc.Schedule.Items = []*psi.EitItem{
		itemAt(1, now-100, 150), // running: now-100..now+50
		itemAt(2, now+100, 600), // now+100..now+700, starts later
	}

	svc.Tick(now)
	require.Len(t, svc.Present.Items, 2)
	assert.Equal(t, uint8(psi.RunningStatusRunning), svc.Present.Items[0].Status)

	// t = now+60: E1 aged out, E2 not yet started (starts at now+100).
	svc.Tick(now + 60)
	require.Len(t, svc.Present.Items, 1)
	assert.Equal(t, uint16(2), svc.Present.Items[0].EventID)
	assert.Equal(t, uint8(psi.RunningStatusUndefined), svc.Present.Items[0].Status)
	assert.Equal(t, uint8(1), svc.Present.Version)
	assert.Equal(t, uint8(1), svc.Schedule.Version)

	// t = now+110: E2 has started.
	svc.Tick(now + 110)
	require.Len(t, svc.Present.Items, 1)
	assert.Equal(t, uint8(psi.RunningStatusRunning), svc.Present.Items[0].Status)
}

func TestTickIdleWhenScheduleEmpty(t *testing.T) {
	svc := New(1, 1, 100, 0, "ch1")
	svc.Tick(1000)
	assert.Empty(t, svc.Present.Items)
}

func TestNextEventIDStartsAtOneAndIncrements(t *testing.T) {
	svc := New(1, 1, 100, 0, "ch1")
	assert.Equal(t, uint16(1), svc.NextEventID())
	assert.Equal(t, uint16(2), svc.NextEventID())
}
