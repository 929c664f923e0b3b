package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func statusAt(t *testing.T, at time.Time) *MarketStatusService {
	t.Helper()
	svc := NewMarketStatusService()
	svc.now = func() time.Time { return at }
	return svc
}

func istTime(year int, month time.Month, day, hour, minute int) time.Time {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func TestStatusOpenDuringSession(t *testing.T) {
	// Wednesday 11:00 IST.
	svc := statusAt(t, istTime(2025, time.June, 4, 11, 0))
	status := svc.Status()

	assert.True(t, status.IsOpen)
	assert.False(t, status.IsWeekend)
	assert.Contains(t, status.Message, "OPEN")
}

func TestStatusClosedBeforeOpen(t *testing.T) {
	// Wednesday 08:00 IST.
	svc := statusAt(t, istTime(2025, time.June, 4, 8, 0))
	status := svc.Status()

	assert.False(t, status.IsOpen)
	assert.Contains(t, status.Message, "opens today")
}

func TestStatusClosedAfterClose(t *testing.T) {
	// Wednesday 16:00 IST.
	svc := statusAt(t, istTime(2025, time.June, 4, 16, 0))
	status := svc.Status()

	assert.False(t, status.IsOpen)
	assert.Contains(t, status.Message, "closed at 3:30 PM")
}

func TestStatusWeekend(t *testing.T) {
	// Saturday noon IST.
	svc := statusAt(t, istTime(2025, time.June, 7, 12, 0))
	status := svc.Status()

	assert.False(t, status.IsOpen)
	assert.True(t, status.IsWeekend)
	assert.Equal(t, "Saturday", status.CurrentDay)
	assert.Contains(t, status.Message, "weekend")
}

func TestStatusSessionBoundaries(t *testing.T) {
	// The open and close minutes are both in-session.
	open := statusAt(t, istTime(2025, time.June, 4, 9, 15)).Status()
	assert.True(t, open.IsOpen)

	closing := statusAt(t, istTime(2025, time.June, 4, 15, 30)).Status()
	assert.True(t, closing.IsOpen)

	justBefore := statusAt(t, istTime(2025, time.June, 4, 9, 14)).Status()
	assert.False(t, justBefore.IsOpen)

	justAfter := statusAt(t, istTime(2025, time.June, 4, 15, 31)).Status()
	assert.False(t, justAfter.IsOpen)
}
