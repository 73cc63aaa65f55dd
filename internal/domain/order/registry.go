package order

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry owns the lifecycle sessions of all connected customers. Each
// session gets a history watch loop and a reservation timer scoped to the
// registry's context, so teardown stops every background loop.
type Registry struct {
	ctx         context.Context
	repo        Repository
	profiles    ProfileStore
	lg          *zap.Logger
	interval    time.Duration
	autoDismiss time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a session registry. ctx bounds the lifetime of all
// session watch loops and timers.
func NewRegistry(ctx context.Context, repo Repository, profiles ProfileStore, interval, autoDismiss time.Duration, lg *zap.Logger) *Registry {
	return &Registry{
		ctx:         ctx,
		repo:        repo,
		profiles:    profiles,
		lg:          lg,
		interval:    interval,
		autoDismiss: autoDismiss,
		sessions:    make(map[string]*Session),
	}
}

// Session returns the lifecycle manager for the customer, creating and
// starting it on first use.
func (r *Registry) Session(customerID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[customerID]; ok {
		return s
	}

	s := NewSession(customerID, r.repo, r.profiles, r.lg)

	// Seed the history synchronously: pricing depends on the prior-order
	// count, so the first quote must not run against an empty snapshot while
	// the watch loop is still connecting.
	if hist, err := r.repo.ListByCustomer(r.ctx, customerID); err != nil {
		r.lg.Warn("seed order history", zap.String("customer_id", customerID), zap.Error(err))
	} else {
		s.onHistory(hist)
	}

	r.sessions[customerID] = s

	go func() {
		if err := s.Run(r.ctx); err != nil {
			r.lg.Error("session watch loop", zap.String("customer_id", customerID), zap.Error(err))
		}
	}()
	go func() {
		_ = NewTimer(s, r.interval, r.autoDismiss, r.lg).Run(r.ctx)
	}()

	return s
}
