package order

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Timer defaults.
const (
	DefaultPollInterval = 15 * time.Second
	DefaultAutoDismiss  = 30 * time.Second
)

// Timer periodically polls a session's schedule and surfaces reminder and
// time-up events. It is intentionally poll-based: the schedule is compared
// against wall-clock time, not store events.
type Timer struct {
	session     *Session
	interval    time.Duration
	autoDismiss time.Duration
	now         func() time.Time
	lg          *zap.Logger

	dismiss *time.Timer
}

// NewTimer creates a timer for the session. Non-positive durations fall back
// to the defaults.
func NewTimer(s *Session, interval, autoDismiss time.Duration, lg *zap.Logger) *Timer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if autoDismiss <= 0 {
		autoDismiss = DefaultAutoDismiss
	}
	return &Timer{
		session:     s,
		interval:    interval,
		autoDismiss: autoDismiss,
		now:         time.Now,
		lg:          lg,
	}
}

// Run polls until ctx is cancelled. It must be stopped in lockstep with the
// owning session's lifetime.
func (t *Timer) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	defer func() {
		if t.dismiss != nil {
			t.dismiss.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick runs one poll. A fired reminder is auto-dismissed after the configured
// delay unless the customer dismisses it first.
func (t *Timer) tick() {
	ev, ok := t.session.CheckSchedule(t.now())
	if !ok {
		return
	}

	switch ev.Kind {
	case EventReminder:
		t.lg.Info("reservation reminder",
			zap.String("order_id", ev.OrderID),
			zap.Int("minutes_remaining", ev.Minutes),
		)
		if t.dismiss != nil {
			t.dismiss.Stop()
		}
		t.dismiss = time.AfterFunc(t.autoDismiss, t.session.DismissReminder)
	case EventTimeUp:
		t.lg.Info("scheduled time reached", zap.String("order_id", ev.OrderID))
	}
}
