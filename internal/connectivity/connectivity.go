// Package connectivity reports whether the client can currently reach the
// remote store. Mutating collection operations are refused while offline.
package connectivity

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
)

// Checker reports network reachability.
type Checker interface {
	Online(ctx context.Context) bool
}

// Toggle is a manually driven Checker. The zero value is online.
type Toggle struct {
	offline atomic.Bool
}

// NewToggle returns a Toggle in the given state.
func NewToggle(online bool) *Toggle {
	t := &Toggle{}
	t.Set(online)
	return t
}

// Online implements Checker.
func (t *Toggle) Online(context.Context) bool { return !t.offline.Load() }

// Set switches the reported state.
func (t *Toggle) Set(online bool) { t.offline.Store(!online) }

// Pinger is anything that can check reachability of the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe treats a successful ping as online.
type Probe struct {
	target  Pinger
	timeout time.Duration
}

// NewProbe creates a Probe. A non-positive timeout defaults to 2 seconds.
func NewProbe(target Pinger, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{target: target, timeout: timeout}
}

// Online implements Checker.
func (p *Probe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.target.Ping(ctx); err != nil {
		logger.Get().Debugw("store unreachable", "error", err)
		return false
	}
	return true
}

// All is online only when every checker is. An empty All is online.
type All []Checker

// Online implements Checker.
func (a All) Online(ctx context.Context) bool {
	for _, c := range a {
		if !c.Online(ctx) {
			return false
		}
	}
	return true
}
