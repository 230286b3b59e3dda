// Package session owns the signed-in identity of a client and its login,
// first-login and logout lifecycle.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// State is a step of the session lifecycle.
type State int

const (
	LoggedOut State = iota
	Authenticating
	FirstLoginRequired
	Active
	LoggingOut
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Authenticating:
		return "authenticating"
	case FirstLoginRequired:
		return "first_login_required"
	case Active:
		return "active"
	case LoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// LandingView is the view shown after sign-in and after logout.
const LandingView = "dashboard"

// ErrBusy is returned when an operation does not fit the current state.
var ErrBusy = errors.New("session: operation not allowed in the current state")

// Change describes one state transition.
type Change struct {
	From   State
	To     State
	User   *models.User
	Reason string
}

// Ticket identifies one sign-in. Results of slow remote calls are applied
// only while the ticket they were started with is still current.
type Ticket struct {
	UID   string
	epoch uint64
}

// Options configures a Manager.
type Options struct {
	// Identity persists the signed-in user. Defaults to memory.
	Identity IdentityStore
	// LogoutDelay is how long the session stays in LoggingOut.
	LogoutDelay time.Duration
	// Now dates suspensions of an identity restored offline. Defaults to
	// the wall clock.
	Now calendar.Clock
}

// Manager is the session state machine. It is safe for concurrent use.
type Manager struct {
	users    services.UserServicer
	identity IdentityStore
	delay    time.Duration
	now      calendar.Clock

	mu        sync.RWMutex
	state     State
	user      *models.User
	reason    string
	view      string
	epoch     uint64
	listeners map[int]func(Change)
	nextID    int
}

// NewManager creates a logged-out Manager.
func NewManager(users services.UserServicer, opts Options) *Manager {
	if opts.Identity == nil {
		opts.Identity = &MemoryIdentityStore{}
	}
	if opts.Now == nil {
		opts.Now = calendar.System
	}
	return &Manager{
		users:     users,
		identity:  opts.Identity,
		delay:     opts.LogoutDelay,
		now:       opts.Now,
		view:      LandingView,
		listeners: make(map[int]func(Change)),
	}
}

// OnChange registers fn for every state transition until cancel is called.
// Listeners run outside the manager lock.
func (m *Manager) OnChange(fn func(Change)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneUser(m.user)
}

// Reason returns the message of the last failed login or forced logout.
func (m *Manager) Reason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}

// View returns the active view.
func (m *Manager) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// SetView records the active view.
func (m *Manager) SetView(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = view
}

// Ticket returns the ticket of the current sign-in. ok is false when nobody
// is signed in.
func (m *Manager) Ticket() (Ticket, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !signedIn(m.state) || m.user == nil {
		return Ticket{}, false
	}
	return Ticket{UID: m.user.UID, epoch: m.epoch}, true
}

// Login authenticates username and password. On failure the session returns
// to LoggedOut and Reason holds the user-facing message.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = models.NormalizeUsername(username)

	m.mu.Lock()
	if m.state != LoggedOut {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.epoch++
	epoch := m.epoch
	change := m.transition(Authenticating, nil, "")
	m.mu.Unlock()
	m.notify(change)

	user, err := m.users.Login(ctx, username, password)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	if err != nil {
		change = m.transition(LoggedOut, nil, errorMessage(err))
		m.mu.Unlock()
		m.notify(change)
		return nil, err
	}
	to := Active
	if user.IsFirstLogin {
		to = FirstLoginRequired
	}
	m.view = LandingView
	change = m.transition(to, user, "")
	m.persist(user)
	m.mu.Unlock()

	logger.Get().Infow("signed in", "uid", user.UID, "state", to.String())
	m.notify(change)
	return cloneUser(user), nil
}

// Restore resumes a persisted session. The stored identity is checked
// against the store; a session that is no longer valid is discarded. When
// the store cannot be reached the persisted identity is trusted until the
// next sync, unless it is already inactive or suspended as of today.
func (m *Manager) Restore(ctx context.Context) (*models.User, error) {
	if m.State() != LoggedOut {
		return nil, ErrBusy
	}
	stored, err := m.identity.Load()
	if err != nil {
		logger.Get().Warnw("discarding persisted identity", "error", err)
		m.clearIdentity()
		return nil, nil
	}
	if stored == nil {
		return nil, nil
	}

	user, err := m.users.ValidateSession(ctx, stored.UID)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrStaleSession):
		m.reject(err)
		return nil, nil
	case stored.Blocked(calendar.Today(m.now)):
		logger.Get().Infow("persisted identity is suspended", "uid", stored.UID, "error", err)
		m.reject(apperrors.ErrAccountSuspended)
		return nil, nil
	default:
		logger.Get().Warnw("could not validate persisted identity", "uid", stored.UID, "error", err)
		user = stored
	}

	m.mu.Lock()
	if m.state != LoggedOut {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.epoch++
	to := Active
	if user.IsFirstLogin {
		to = FirstLoginRequired
	}
	m.view = LandingView
	change := m.transition(to, user, "")
	m.persist(user)
	m.mu.Unlock()

	m.notify(change)
	return cloneUser(user), nil
}

// CompleteFirstLogin replaces the default password and activates the session.
func (m *Manager) CompleteFirstLogin(ctx context.Context, password, confirm string) (*models.User, error) {
	if m.State() != FirstLoginRequired {
		return nil, ErrBusy
	}
	return m.UpdateProfile(ctx, services.ProfileUpdate{Password: password, Confirm: confirm})
}

// UpdateProfile changes the signed-in user's password, name or avatar. The
// in-session identity reflects the change immediately and a pending first
// login is completed.
func (m *Manager) UpdateProfile(ctx context.Context, update services.ProfileUpdate) (*models.User, error) {
	t, ok := m.Ticket()
	if !ok {
		return nil, apperrors.ErrUnauthorized
	}
	if update.Password != "" || update.Confirm != "" {
		if err := services.ValidateNewPassword(update.Password, update.Confirm); err != nil {
			return nil, err
		}
	}

	user, err := m.users.UpdateProfile(ctx, t.UID, update)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if !m.current(t) {
		m.mu.Unlock()
		return nil, apperrors.ErrStaleSession
	}
	change := m.transition(Active, user, "")
	m.persist(user)
	m.mu.Unlock()

	m.notify(change)
	return cloneUser(user), nil
}

// Logout ends the session. reason is shown while the session closes; it is
// empty for a user-initiated logout.
func (m *Manager) Logout(ctx context.Context, reason string) error {
	t, ok := m.Ticket()
	if !ok {
		return ErrBusy
	}
	m.end(ctx, t, reason)
	return nil
}

// Evict forces the session identified by t to log out. It reports false when
// t is no longer the current sign-in.
func (m *Manager) Evict(ctx context.Context, t Ticket, reason string) bool {
	if !m.end(ctx, t, reason) {
		return false
	}
	logger.Get().Infow("session evicted", "uid", t.UID, "reason", reason)
	return true
}

// RefreshIdentity replaces the in-session copy of the user without changing
// the state. It reports false when t is no longer current.
func (m *Manager) RefreshIdentity(t Ticket, user *models.User) bool {
	m.mu.Lock()
	if !m.current(t) || user == nil || user.UID != t.UID {
		m.mu.Unlock()
		return false
	}
	m.user = cloneUser(user)
	m.persist(user)
	m.mu.Unlock()
	return true
}

// end runs the logout sequence for t: LoggingOut, audit, clear, delay,
// LoggedOut.
func (m *Manager) end(ctx context.Context, t Ticket, reason string) bool {
	m.mu.Lock()
	if !m.current(t) {
		m.mu.Unlock()
		return false
	}
	user := m.user
	m.epoch++
	epoch := m.epoch
	change := m.transition(LoggingOut, user, reason)
	m.mu.Unlock()
	m.notify(change)

	m.users.Logout(ctx, user)
	m.clearIdentity()

	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	m.mu.Lock()
	if m.epoch != epoch || m.state != LoggingOut {
		m.mu.Unlock()
		return true
	}
	m.view = LandingView
	change = m.transition(LoggedOut, nil, reason)
	m.mu.Unlock()
	m.notify(change)
	return true
}

// transition must be called with mu held.
func (m *Manager) transition(to State, user *models.User, reason string) Change {
	from := m.state
	m.state = to
	m.user = cloneUser(user)
	m.reason = reason
	return Change{From: from, To: to, User: cloneUser(user), Reason: reason}
}

// current must be called with mu held.
func (m *Manager) current(t Ticket) bool {
	return signedIn(m.state) && m.user != nil && m.epoch == t.epoch && m.user.UID == t.UID
}

func (m *Manager) notify(change Change) {
	m.mu.RLock()
	fns := make([]func(Change), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.RUnlock()
	for _, fn := range fns {
		fn(change)
	}
}

// persist must be called with mu held so a concurrent logout cannot be
// followed by a stale save.
func (m *Manager) persist(user *models.User) {
	if err := m.identity.Save(user); err != nil {
		logger.Get().Warnw("failed to persist identity", "uid", user.UID, "error", err)
	}
}

// reject drops the persisted identity and keeps err's message as the
// logged-out reason.
func (m *Manager) reject(err error) {
	m.clearIdentity()
	m.mu.Lock()
	m.reason = errorMessage(err)
	m.mu.Unlock()
}

func (m *Manager) clearIdentity() {
	if err := m.identity.Clear(); err != nil {
		logger.Get().Warnw("failed to clear persisted identity", "error", err)
	}
}

func signedIn(s State) bool {
	return s == Active || s == FirstLoginRequired
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return strings.TrimSpace(err.Error())
}
