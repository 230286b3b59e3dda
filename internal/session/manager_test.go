package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

type testEnv struct {
	db    *gorm.DB
	users services.UserServicer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	st := store.NewGormStore(db)
	config := services.NewConfigService(st)
	audit := services.NewAuditService(st, config)
	return &testEnv{db: db, users: services.NewUserService(st, audit, config)}
}

func (e *testEnv) logCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.SystemLog{}).Count(&n).Error)
	return n
}

// recorder collects transitions in order.
type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) path() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, 0, len(r.changes)+1)
	for i, c := range r.changes {
		if i == 0 {
			out = append(out, c.From)
		}
		out = append(out, c.To)
	}
	return out
}

// unreachableUsers fails every session check as if the store were down.
type unreachableUsers struct {
	services.UserServicer
}

func (unreachableUsers) ValidateSession(context.Context, string) (*models.User, error) {
	return nil, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("dial tcp: connection refused"))
}

func pinned(day string) func() time.Time {
	return func() time.Time {
		d, _ := time.Parse("2006-01-02", day)
		return d.Add(9 * time.Hour)
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success activates the session", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		identity := &MemoryIdentityStore{}
		m := NewManager(env.users, Options{Identity: identity})
		rec := &recorder{}
		m.OnChange(rec.record)

		got, err := m.Login(ctx, " "+user.Username+" ", testutil.TestPassword)
		require.NoError(t, err)
		assert.Equal(t, user.UID, got.UID)
		assert.Equal(t, Active, m.State())
		assert.Equal(t, LandingView, m.View())
		assert.Equal(t, []State{LoggedOut, Authenticating, Active}, rec.path())

		persisted, err := identity.Load()
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, user.UID, persisted.UID)
	})

	t.Run("second login while signed in is refused", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		m := NewManager(env.users, Options{})

		_, err := m.Login(ctx, user.Username, testutil.TestPassword)
		require.NoError(t, err)
		_, err = m.Login(ctx, user.Username, testutil.TestPassword)
		assert.ErrorIs(t, err, ErrBusy)
		assert.Equal(t, Active, m.State())
	})

	failures := []struct {
		name     string
		mutate   func(*models.User)
		config   *models.SystemConfig
		username func(*models.User) string
		password string
		code     string
		reason   string
	}{
		{
			name:     "unknown user",
			username: func(*models.User) string { return "nobody" },
			password: testutil.TestPassword,
			code:     "USER_NOT_FOUND",
			reason:   apperrors.ErrUserNotFound.Message,
		},
		{
			name:     "inactive user",
			mutate:   func(u *models.User) { u.IsActive = false },
			password: testutil.TestPassword,
			code:     "ACCOUNT_SUSPENDED",
			reason:   apperrors.ErrAccountSuspended.Message,
		},
		{
			name:     "suspension date reached",
			mutate:   func(u *models.User) { u.SuspensionDate = "2000-01-01" },
			password: testutil.TestPassword,
			code:     "ACCOUNT_SUSPENDED",
			reason:   apperrors.ErrAccountSuspended.Message,
		},
		{
			name:     "system locked",
			config:   &models.SystemConfig{IsSystemLocked: true, MaintenanceMessage: "Back at noon", IsLoggingEnabled: true},
			password: testutil.TestPassword,
			code:     "SYSTEM_LOCKED",
			reason:   "Back at noon",
		},
		{
			name:     "wrong password",
			password: "not-the-password",
			code:     "INVALID_CREDENTIALS",
			reason:   apperrors.ErrInvalidCredentials.Message,
		},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			mutate := tc.mutate
			if mutate == nil {
				mutate = func(*models.User) {}
			}
			user := testutil.CreateTestUserWith(t, env.db, mutate)
			if tc.config != nil {
				testutil.SetSystemConfig(t, env.db, *tc.config)
			}
			username := user.Username
			if tc.username != nil {
				username = tc.username(user)
			}

			m := NewManager(env.users, Options{})
			rec := &recorder{}
			m.OnChange(rec.record)

			_, err := m.Login(ctx, username, tc.password)
			requireCode(t, err, tc.code)
			assert.Equal(t, LoggedOut, m.State())
			assert.Equal(t, tc.reason, m.Reason())
			assert.Nil(t, m.User())
			assert.Equal(t, []State{LoggedOut, Authenticating, LoggedOut}, rec.path())
			assert.Zero(t, env.logCount(t), "failed logins are never audited")
		})
	}

	t.Run("admin ignores suspension date and system lock", func(t *testing.T) {
		env := newTestEnv(t)
		admin := testutil.CreateTestUserWith(t, env.db, func(u *models.User) {
			u.Role = models.RoleAdmin
			u.SuspensionDate = "2000-01-01"
		})
		testutil.SetSystemConfig(t, env.db, models.SystemConfig{IsSystemLocked: true, IsLoggingEnabled: true})
		m := NewManager(env.users, Options{})

		_, err := m.Login(ctx, admin.Username, testutil.TestPassword)
		require.NoError(t, err)
		assert.Equal(t, Active, m.State())
	})
}

func TestFirstLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUserWith(t, env.db, func(u *models.User) {
		u.Username = "joana"
		u.IsFirstLogin = true
	})
	m := NewManager(env.users, Options{})

	_, err := m.Login(ctx, "joana", testutil.TestPassword)
	requireCode(t, err, "INVALID_CREDENTIALS")

	_, err = m.Login(ctx, "joana", "joana")
	require.NoError(t, err)
	assert.Equal(t, FirstLoginRequired, m.State())

	_, err = m.CompleteFirstLogin(ctx, "abc", "abc")
	requireCode(t, err, "PASSWORD_TOO_SHORT")
	_, err = m.CompleteFirstLogin(ctx, "secret1", "secret2")
	requireCode(t, err, "PASSWORD_MISMATCH")
	assert.Equal(t, FirstLoginRequired, m.State())

	got, err := m.CompleteFirstLogin(ctx, "secret1", "secret1")
	require.NoError(t, err)
	assert.False(t, got.IsFirstLogin)
	assert.Equal(t, Active, m.State())
	assert.False(t, m.User().IsFirstLogin)

	_, err = m.CompleteFirstLogin(ctx, "secret2", "secret2")
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, m.Logout(ctx, ""))
	_, err = m.Login(ctx, "joana", "joana")
	requireCode(t, err, "INVALID_CREDENTIALS")
	_, err = m.Login(ctx, "joana", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.UID, m.User().UID)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	identity := &MemoryIdentityStore{}
	m := NewManager(env.users, Options{Identity: identity})

	name := "Renamed"
	_, err := m.UpdateProfile(ctx, services.ProfileUpdate{Name: &name})
	requireCode(t, err, "UNAUTHORIZED")

	_, err = m.Login(ctx, user.Username, testutil.TestPassword)
	require.NoError(t, err)

	_, err = m.UpdateProfile(ctx, services.ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", m.User().Name)

	persisted, err := identity.Load()
	require.NoError(t, err)
	assert.Equal(t, "Renamed", persisted.Name)

	avatar := "unicorn"
	_, err = m.UpdateProfile(ctx, services.ProfileUpdate{Avatar: &avatar})
	requireCode(t, err, "INVALID_INPUT")
	assert.Equal(t, "", m.User().Avatar)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("admin logout is audited", func(t *testing.T) {
		env := newTestEnv(t)
		admin := testutil.CreateTestAdmin(t, env.db)
		identity := &MemoryIdentityStore{}
		m := NewManager(env.users, Options{Identity: identity})

		_, err := m.Login(ctx, admin.Username, testutil.TestPassword)
		require.NoError(t, err)
		m.SetView("reports")

		require.NoError(t, m.Logout(ctx, ""))
		assert.Equal(t, LoggedOut, m.State())
		assert.Equal(t, LandingView, m.View())
		assert.Nil(t, m.User())
		assert.EqualValues(t, 2, env.logCount(t), "login and logout")

		persisted, err := identity.Load()
		require.NoError(t, err)
		assert.Nil(t, persisted)
	})

	t.Run("regular user logout is not audited", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		m := NewManager(env.users, Options{})

		_, err := m.Login(ctx, user.Username, testutil.TestPassword)
		require.NoError(t, err)
		require.NoError(t, m.Logout(ctx, ""))
		assert.Zero(t, env.logCount(t))
	})

	t.Run("passes through LoggingOut with the reason", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		m := NewManager(env.users, Options{LogoutDelay: 20 * time.Millisecond})
		_, err := m.Login(ctx, user.Username, testutil.TestPassword)
		require.NoError(t, err)

		rec := &recorder{}
		m.OnChange(rec.record)
		start := time.Now()
		require.NoError(t, m.Logout(ctx, "Session closed by administrator"))

		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		assert.Equal(t, []State{Active, LoggingOut, LoggedOut}, rec.path())
		assert.Equal(t, "Session closed by administrator", m.Reason())
	})

	t.Run("logout without a session", func(t *testing.T) {
		env := newTestEnv(t)
		m := NewManager(env.users, Options{})
		assert.ErrorIs(t, m.Logout(ctx, ""), ErrBusy)
	})
}

func TestStaleTickets(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	m := NewManager(env.users, Options{})

	_, err := m.Login(ctx, user.Username, testutil.TestPassword)
	require.NoError(t, err)
	old, ok := m.Ticket()
	require.True(t, ok)

	require.NoError(t, m.Logout(ctx, ""))
	_, ok = m.Ticket()
	assert.False(t, ok)

	_, err = m.Login(ctx, user.Username, testutil.TestPassword)
	require.NoError(t, err)

	renamed := *m.User()
	renamed.Name = "Ghost"
	assert.False(t, m.RefreshIdentity(old, &renamed), "a result from an earlier sign-in is dropped")
	assert.False(t, m.Evict(ctx, old, "stale"))
	assert.Equal(t, Active, m.State())
	assert.Equal(t, user.Name, m.User().Name)

	current, ok := m.Ticket()
	require.True(t, ok)
	assert.True(t, m.RefreshIdentity(current, &renamed))
	assert.Equal(t, "Ghost", m.User().Name)
	assert.True(t, m.Evict(ctx, current, "Your account was removed"))
	assert.Equal(t, LoggedOut, m.State())
	assert.Equal(t, "Your account was removed", m.Reason())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("resumes a valid session", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		identity := NewFileIdentityStore(filepath.Join(t.TempDir(), "nested", "session.json"))

		first := NewManager(env.users, Options{Identity: identity})
		_, err := first.Login(ctx, user.Username, testutil.TestPassword)
		require.NoError(t, err)

		second := NewManager(env.users, Options{Identity: identity})
		got, err := second.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.UID, got.UID)
		assert.Equal(t, Active, second.State())
	})

	t.Run("nothing persisted", func(t *testing.T) {
		env := newTestEnv(t)
		m := NewManager(env.users, Options{Identity: NewFileIdentityStore(filepath.Join(t.TempDir(), "session.json"))})
		got, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, LoggedOut, m.State())
	})

	t.Run("discards a suspended identity", func(t *testing.T) {
		env := newTestEnv(t)
		user := testutil.CreateTestUser(t, env.db)
		path := filepath.Join(t.TempDir(), "session.json")
		identity := NewFileIdentityStore(path)
		require.NoError(t, identity.Save(user))
		require.NoError(t, env.db.Model(&models.User{}).Where("uid = ?", user.UID).Update("is_active", false).Error)

		m := NewManager(env.users, Options{Identity: identity})
		got, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, LoggedOut, m.State())
		assert.Equal(t, apperrors.ErrAccountSuspended.Message, m.Reason())
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unreachable store trusts an identity in good standing", func(t *testing.T) {
		identity := &MemoryIdentityStore{}
		require.NoError(t, identity.Save(&models.User{UID: "u1", Username: "maria", Role: models.RoleUser, IsActive: true, SuspensionDate: "2024-06-01"}))

		m := NewManager(unreachableUsers{}, Options{Identity: identity, Now: pinned("2024-05-31")})
		got, err := m.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, Active, m.State())
	})

	t.Run("unreachable store still honours the stored suspension", func(t *testing.T) {
		tests := []struct {
			name string
			user models.User
		}{
			{"deactivated", models.User{UID: "u1", Username: "maria", Role: models.RoleUser}},
			{"suspension date reached", models.User{UID: "u1", Username: "maria", Role: models.RoleUser, IsActive: true, SuspensionDate: "2024-06-01"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "session.json")
				identity := NewFileIdentityStore(path)
				require.NoError(t, identity.Save(&tt.user))
				var rec recorder

				m := NewManager(unreachableUsers{}, Options{Identity: identity, Now: pinned("2024-06-01")})
				m.OnChange(rec.record)
				got, err := m.Restore(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)
				assert.Equal(t, LoggedOut, m.State())
				assert.Equal(t, apperrors.ErrAccountSuspended.Message, m.Reason())
				assert.Empty(t, rec.path(), "the session never became active")
				_, statErr := os.Stat(path)
				assert.True(t, os.IsNotExist(statErr))
			})
		}
	})

	t.Run("discards a corrupt identity", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"uid":"x"}`), 0o600))

		m := NewManager(env.users, Options{Identity: NewFileIdentityStore(path)})
		got, err := m.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "first_login_required", FirstLoginRequired.String())
	assert.Equal(t, "unknown", State(42).String())
}
