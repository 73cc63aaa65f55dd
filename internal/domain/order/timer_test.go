package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// confirmScheduled creates a session tracking an order scheduled today at the
// given time.
func confirmScheduled(t *testing.T, at string) *Session {
	t.Helper()

	s := newTestSession(newMockRepo())
	s.AddItem("kebab", "Chicken Kebab", decimal.RequireFromString("10.00"))

	req := pickupRequest()
	req.Schedule = Schedule{Date: testTime.Format(DateLayout), Time: at}
	_, err := s.Confirm(context.Background(), req)
	require.NoError(t, err)
	return s
}

func at(hour, min int) time.Time {
	return time.Date(testTime.Year(), testTime.Month(), testTime.Day(), hour, min, 0, 0, time.UTC)
}

func TestCheckSchedule_OutsideReminderWindow(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	_, ok := s.CheckSchedule(at(18, 0)) // 30 minutes out
	assert.False(t, ok)
}

func TestCheckSchedule_ReminderFiresOnceInWindow(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	ev, ok := s.CheckSchedule(at(18, 22)) // 8 minutes out
	require.True(t, ok)
	assert.Equal(t, EventReminder, ev.Kind)
	assert.Equal(t, 8, ev.Minutes)
	assert.Contains(t, ev.Message, "Pick up")
	assert.Contains(t, ev.Message, "8 minutes")

	// Repeated polls at the same simulated time must not re-fire.
	_, ok = s.CheckSchedule(at(18, 22))
	assert.False(t, ok)
	_, ok = s.CheckSchedule(at(18, 25))
	assert.False(t, ok)

	assert.True(t, s.State().ShowReminder)
}

func TestCheckSchedule_TimeUpFiresOncePerOrder(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	ev, ok := s.CheckSchedule(at(18, 30))
	require.True(t, ok)
	assert.Equal(t, EventTimeUp, ev.Kind)

	st := s.State()
	assert.True(t, st.ShowTimeUp)
	assert.False(t, st.ShowReminder, "time-up suppresses the reminder")

	_, ok = s.CheckSchedule(at(18, 30))
	assert.False(t, ok)
	_, ok = s.CheckSchedule(at(18, 45))
	assert.False(t, ok)
}

func TestCheckSchedule_TimeUpSuppressesLaterReminder(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	_, ok := s.CheckSchedule(at(18, 35))
	require.True(t, ok)

	// Clock oddities must not resurrect the reminder for this order.
	_, ok = s.CheckSchedule(at(18, 25))
	assert.False(t, ok)
}

func TestCheckSchedule_OtherDayIsIgnored(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	tomorrow := at(18, 29).AddDate(0, 0, 1)
	_, ok := s.CheckSchedule(tomorrow)
	assert.False(t, ok)
}

func TestCheckSchedule_NothingTracked(t *testing.T) {
	s := newTestSession(newMockRepo())
	_, ok := s.CheckSchedule(at(18, 30))
	assert.False(t, ok)
}

func TestCheckSchedule_GuardsResetOnNewOrder(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	_, ok := s.CheckSchedule(at(18, 25))
	require.True(t, ok)

	// Confirm a fresh order; the one-shot guards start over.
	s.AddItem("naan", "Garlic Naan", decimal.RequireFromString("3.50"))
	req := pickupRequest()
	req.Schedule = Schedule{Date: testTime.Format(DateLayout), Time: "07:00 PM"}
	_, err := s.Confirm(context.Background(), req)
	require.NoError(t, err)

	ev, ok := s.CheckSchedule(at(18, 55))
	require.True(t, ok)
	assert.Equal(t, EventReminder, ev.Kind)
	assert.Equal(t, 5, ev.Minutes)
}

func TestDismissReminder(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	_, ok := s.CheckSchedule(at(18, 25))
	require.True(t, ok)
	require.True(t, s.State().ShowReminder)

	s.DismissReminder()
	assert.False(t, s.State().ShowReminder)

	// Dismissal does not reset the one-shot guard.
	_, ok = s.CheckSchedule(at(18, 26))
	assert.False(t, ok)
}

func TestTimer_ReminderAutoDismisses(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")

	tm := NewTimer(s, time.Minute, 20*time.Millisecond, zap.NewNop())
	tm.now = func() time.Time { return at(18, 25) }

	tm.tick()
	require.True(t, s.State().ShowReminder)

	assert.Eventually(t, func() bool {
		return !s.State().ShowReminder
	}, time.Second, 5*time.Millisecond)
}

func TestTimer_RunStopsWithContext(t *testing.T) {
	s := confirmScheduled(t, "06:30 PM")
	tm := NewTimer(s, 5*time.Millisecond, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tm.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timer did not stop")
	}
}
