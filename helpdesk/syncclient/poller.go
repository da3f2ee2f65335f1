// helpdesk/syncclient/poller.go
package syncclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"helpdesk/helpdesk/utils/apperrors"
)

type State string

const (
	StateIdle     State = "IDLE"
	StateFetching State = "FETCHING"
	StateMerged   State = "MERGED"
	StateFailed   State = "FAILED"
)

// FetchFunc performs one fetch round against the server.
type FetchFunc func(ctx context.Context) (*ServerView, error)

// Poller drives the fetch/merge cycle. At most one fetch is in flight at a
// time; ticks that land mid-fetch are dropped, not queued.
type Poller struct {
	fetch  FetchFunc
	logger *zap.Logger

	mu         sync.Mutex
	state      State
	lastResult State
	snap       Snapshot
	halted     bool
}

func NewPoller(fetch FetchFunc, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetch:      fetch,
		logger:     logger,
		state:      StateIdle,
		lastResult: StateIdle,
	}
}

// State reports where the cycle currently is: IDLE between polls, FETCHING
// while one is in flight. The cycle always returns to IDLE when it ends.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastResult reports how the most recent completed cycle ended: MERGED,
// FAILED, or IDLE when no cycle has run yet.
func (p *Poller) LastResult() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastResult
}

// Snapshot returns the last good merge. Slices are owned by the snapshot
// and never mutated after publication.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// AddPending registers a locally sent message for optimistic display. It
// retires automatically once a poll observes the message server-side.
func (p *Poller) AddPending(msg PendingMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Pending = append(p.snap.Pending, msg)
}

// Poll runs one fetch/merge cycle. It is a no-op while another cycle is in
// flight or after a permission failure halted the poller.
func (p *Poller) Poll(ctx context.Context) {
	p.mu.Lock()
	if p.state == StateFetching || p.halted {
		p.mu.Unlock()
		return
	}
	p.state = StateFetching
	p.mu.Unlock()

	view, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateIdle
	if err != nil {
		p.lastResult = StateFailed
		if errors.Is(err, apperrors.ErrForbidden) || errors.Is(err, apperrors.ErrStaleRole) {
			// Access changed under us. Keep the last snapshot for
			// display but stop polling until re-login.
			p.snap.PermissionChanged = true
			p.halted = true
			p.logger.Warn("permission changed, polling halted", zap.Error(err))
			return
		}
		p.logger.Warn("poll failed, keeping last snapshot", zap.Error(err))
		return
	}
	p.snap = merge(p.snap, view, time.Now())
	p.lastResult = StateMerged
}

// Halted reports whether a permission failure stopped the cycle.
func (p *Poller) Halted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halted
}

// Run polls at the given interval until the context is cancelled or a
// permission failure halts the poller. The first poll fires immediately.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.Halted() {
				return
			}
			p.Poll(ctx)
		}
	}
}
