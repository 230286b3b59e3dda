// Package app assembles a client over one store: the session, the sync loop
// and the mirrors of the signed-in user's data.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	"github.com/marcosbarbosa-dev/appfinance/internal/collections"
	"github.com/marcosbarbosa-dev/appfinance/internal/configsync"
	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/session"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// Options configures an App.
type Options struct {
	Identity     session.IdentityStore
	Online       connectivity.Checker
	SyncInterval time.Duration
	LogoutDelay  time.Duration
	Now          calendar.Clock
}

// App is one client of the store.
type App struct {
	Store    store.Store
	Services *services.Set
	Session  *session.Manager
	Sync     *configsync.Syncer

	Categories   *collections.Categories
	Accounts     *collections.Accounts
	Transactions *collections.Transactions
	Users        *collections.Users
	Logs         *collections.Logs

	online  connectivity.Checker
	unwatch func()

	// mu serializes binding and unbinding the mirrors.
	mu sync.Mutex
}

// New wires a client over st. The mirrors follow the session: they load
// when it becomes active and empty when it ends.
func New(st store.Store, opts Options) *App {
	if opts.Online == nil {
		opts.Online = connectivity.NewProbe(st, 0)
	}
	svc := services.NewSet(st)
	a := &App{
		Store:    st,
		Services: svc,
		Session: session.NewManager(svc.Users, session.Options{
			Identity:    opts.Identity,
			LogoutDelay: opts.LogoutDelay,
			Now:         opts.Now,
		}),
		Categories:   collections.NewCategories(opts.Online),
		Accounts:     collections.NewAccounts(opts.Online),
		Transactions: collections.NewTransactions(opts.Online),
		Users:        collections.NewUsers(opts.Online),
		Logs:         collections.NewLogs(opts.Online),
		online:       opts.Online,
	}
	a.Sync = configsync.New(svc.Config, svc.Users, a.Session, configsync.Options{
		Interval: opts.SyncInterval,
		Now:      opts.Now,
		Hooks: configsync.Hooks{
			Reload: a.reload,
			Admin:  a.refreshAdmin,
		},
	})
	a.unwatch = a.Session.OnChange(a.onSessionChange)
	return a
}

// Online reports whether remote writes are currently possible.
func (a *App) Online(ctx context.Context) bool {
	return a.online.Online(ctx)
}

// Run keeps the client in sync until ctx is done.
func (a *App) Run(ctx context.Context) error {
	return a.Sync.Run(ctx)
}

// Close detaches the mirrors from the session and the store.
func (a *App) Close() {
	a.unwatch()
	a.unbind()
}

func (a *App) onSessionChange(c session.Change) {
	switch {
	case c.To == session.Active && c.From != session.Active:
		a.bind(context.Background(), c.User)
	case c.To == session.LoggingOut || c.To == session.LoggedOut:
		a.unbind()
	}
}

// bind loads every mirror the user may see and keeps them current.
func (a *App) bind(ctx context.Context, user *models.User) {
	if user == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	uid := user.UID
	attach(ctx, a.Store, a.Categories, collections.ForUser[models.Category](a.Services.Categories, uid),
		func(c *models.Category) bool { return c.VisibleTo(uid) })
	attach(ctx, a.Store, a.Accounts, collections.ForUser[models.BankAccount](a.Services.Accounts, uid),
		func(b *models.BankAccount) bool { return b.VisibleTo(uid) })
	attach(ctx, a.Store, a.Transactions.Collection, collections.ForTransactions(a.Services.Transactions, uid),
		func(t *models.Transaction) bool { return t.VisibleTo(uid) })

	if !user.IsAdmin() {
		return
	}
	attach(ctx, a.Store, a.Users.Collection, collections.ForAdmin(a.Services.Users, user), nil)
	attach(ctx, a.Store, a.Logs.Collection, collections.ForAudit(a.Services.Audit, user), nil)
}

func (a *App) unbind() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Categories.Reset()
	a.Accounts.Reset()
	a.Transactions.Reset()
	a.Users.Reset()
	a.Logs.Reset()
}

func attach[E any, P collections.Keyed[E]](ctx context.Context, st store.Store, c *collections.Collection[E, P], b collections.Backend[E], visible func(P) bool) {
	if err := c.Load(ctx, b); err != nil {
		logger.Get().Warnw("mirror not loaded", "table", c.Table(), "error", err)
	}
	c.Watch(st, visible)
}

// reload discards the mirrors and fetches them again for the current user.
func (a *App) reload(ctx context.Context, scope configsync.ReloadScope) {
	logger.Get().Infow("reloading client data", "scope", string(scope))
	a.unbind()
	if a.Session.State() != session.Active {
		return
	}
	a.bind(ctx, a.Session.User())
}

// refreshAdmin reloads the user directory and the audit trail.
func (a *App) refreshAdmin(ctx context.Context) error {
	user := a.Session.User()
	if user == nil || !user.IsAdmin() {
		return nil
	}
	if err := a.Users.Load(ctx, collections.ForAdmin(a.Services.Users, user)); err != nil {
		return err
	}
	return a.Logs.Load(ctx, collections.ForAudit(a.Services.Audit, user))
}

// MonthlyReport aggregates the mirrored transactions of a "YYYY-MM" month.
func (a *App) MonthlyReport(month string) (services.MonthlyReport, error) {
	from, to, err := calendar.MonthRange(month)
	if err != nil {
		return services.MonthlyReport{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be YYYY-MM")
	}
	var txs []models.Transaction
	for _, tx := range a.Transactions.All() {
		if tx.Date >= from && tx.Date <= to {
			txs = append(txs, tx)
		}
	}
	return services.BuildMonthlyReport(month, txs, a.Accounts.All(), a.Categories.All()), nil
}
