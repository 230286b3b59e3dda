// Package configsync keeps a client in step with the global configuration
// and with the signed-in user's record by polling the store.
package configsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/session"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 10 * time.Second

// Message shown to a user whose record disappeared.
const removedMessage = "Your account was removed"

// ReloadScope tells a reload hook who asked for it.
type ReloadScope string

const (
	ReloadGlobal ReloadScope = "global"
	ReloadUser   ReloadScope = "user"
)

// Hooks are the client reactions the syncer triggers.
type Hooks struct {
	// Reload discards in-memory state and fetches it again.
	Reload func(ctx context.Context, scope ReloadScope)
	// Admin refreshes the admin views. It runs on every user tick of an
	// admin session.
	Admin func(ctx context.Context) error
}

// Options configures a Syncer.
type Options struct {
	Interval time.Duration
	Now      calendar.Clock
	Hooks    Hooks
}

// Syncer polls the global configuration and the current user.
type Syncer struct {
	config   services.ConfigServicer
	users    services.UserServicer
	session  *session.Manager
	interval time.Duration
	now      calendar.Clock
	hooks    Hooks

	mu        sync.RWMutex
	snapshot  *models.SystemConfig
	lastToken string
	seen      bool
}

// New creates a Syncer.
func New(config services.ConfigServicer, users services.UserServicer, sess *session.Manager, opts Options) *Syncer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = calendar.System
	}
	return &Syncer{
		config:   config,
		users:    users,
		session:  sess,
		interval: opts.Interval,
		now:      opts.Now,
		hooks:    opts.Hooks,
	}
}

// Run fetches the configuration once, then polls both channels until ctx is
// done. Each channel runs on its own goroutine so its ticks never overlap.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.SyncGlobal(ctx); err != nil {
		logger.Get().Warnw("initial config sync failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.poll(ctx, "global", s.SyncGlobal) })
	g.Go(func() error { return s.poll(ctx, "user", s.SyncUser) })
	return g.Wait()
}

func (s *Syncer) poll(ctx context.Context, channel string, tick func(context.Context) error) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := tick(ctx); err != nil && ctx.Err() == nil {
				logger.Get().Warnw("sync tick failed", "channel", channel, "error", err)
			}
		}
	}
}

// SyncGlobal fetches the configuration and applies it. The first observed
// global refresh token is only recorded; every later change triggers one
// reload. A locked system evicts non-admin sessions.
func (s *Syncer) SyncGlobal(ctx context.Context) error {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	snap := *cfg
	s.snapshot = &snap
	reload := s.seen && cfg.GlobalRefreshID != s.lastToken
	s.lastToken = cfg.GlobalRefreshID
	s.seen = true
	s.mu.Unlock()

	if reload {
		logger.Get().Infow("global reload requested", "token", cfg.GlobalRefreshID)
		s.reload(ctx, ReloadGlobal)
	}

	if cfg.IsSystemLocked {
		t, ok := s.session.Ticket()
		user := s.session.User()
		if ok && user != nil && user.UID == t.UID && !user.IsAdmin() {
			s.session.Evict(ctx, t, cfg.LockMessage())
		}
	}
	return nil
}

// SyncUser refetches the signed-in user. A removed or suspended user is
// evicted. A rotated refresh token or a role change reloads the session so
// role-scoped state is rebuilt for the new identity. Other profile edits are
// applied silently. Nothing happens unless the session is active.
func (s *Syncer) SyncUser(ctx context.Context) error {
	if s.session.State() != session.Active {
		return nil
	}
	t, ok := s.session.Ticket()
	if !ok {
		return nil
	}
	current := s.session.User()
	if current == nil || current.UID != t.UID {
		return nil
	}

	fresh, err := s.users.GetUser(ctx, t.UID)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		s.session.Evict(ctx, t, removedMessage)
		return nil
	}
	if err != nil {
		return err
	}

	if fresh.Blocked(calendar.Today(s.now)) {
		s.session.Evict(ctx, t, apperrors.ErrAccountSuspended.Message)
		return nil
	}

	switch {
	case fresh.RefreshID != current.RefreshID, fresh.Role != current.Role:
		if s.session.RefreshIdentity(t, fresh) {
			logger.Get().Infow("session reload requested", "uid", t.UID, "role", fresh.Role)
			s.reload(ctx, ReloadUser)
		}
	case profileChanged(current, fresh):
		s.session.RefreshIdentity(t, fresh)
	}

	if fresh.IsAdmin() && s.hooks.Admin != nil {
		if err := s.hooks.Admin(ctx); err != nil {
			logger.Get().Warnw("admin views refresh failed", "error", err)
		}
	}
	return nil
}

// Snapshot returns the last fetched configuration, or the defaults before the
// first fetch.
func (s *Syncer) Snapshot() models.SystemConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return models.DefaultSystemConfig()
	}
	return *s.snapshot
}

// LoggingEnabled reports the audit toggle of the last snapshot.
func (s *Syncer) LoggingEnabled() bool {
	return s.Snapshot().IsLoggingEnabled
}

func (s *Syncer) reload(ctx context.Context, scope ReloadScope) {
	if s.hooks.Reload != nil {
		s.hooks.Reload(ctx, scope)
	}
}

func profileChanged(a, b *models.User) bool {
	return a.Name != b.Name ||
		a.Avatar != b.Avatar ||
		a.SuspensionDate != b.SuspensionDate
}
