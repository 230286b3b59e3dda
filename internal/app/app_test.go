package app

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/session"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

func TestMain(m *testing.M) {
	logger.Set(zap.NewNop())
	os.Exit(m.Run())
}

type testEnv struct {
	db     *gorm.DB
	online *connectivity.Toggle
	app    *App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	online := connectivity.NewToggle(true)
	a := New(store.NewGormStore(db), Options{Online: online})
	t.Cleanup(a.Close)
	return &testEnv{db: db, online: online, app: a}
}

func (e *testEnv) login(t *testing.T, user *models.User) {
	t.Helper()
	_, err := e.app.Session.Login(context.Background(), user.Username, testutil.TestPassword)
	require.NoError(t, err)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestApp_MirrorsFollowSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	other := testutil.CreateTestUser(t, env.db)
	own := testutil.CreateTestCategory(t, env.db, user.UID, models.CategoryTypeExpense)
	shared := testutil.CreateTestCategory(t, env.db, "", models.CategoryTypeIncome)
	testutil.CreateTestCategory(t, env.db, other.UID, models.CategoryTypeExpense)
	account := testutil.CreateTestBankAccount(t, env.db, user.UID, models.AccountTypeChecking)
	testutil.CreateTestTransaction(t, env.db, user.UID, account.ID, models.TransactionTypeExpense, "10", "2024-05-02")

	assert.Zero(t, env.app.Categories.Len())

	env.login(t, user)
	assert.Equal(t, 2, env.app.Categories.Len())
	_, ok := env.app.Categories.Get(own.ID)
	assert.True(t, ok)
	_, ok = env.app.Categories.Get(shared.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, env.app.Accounts.Len())
	assert.Equal(t, 1, env.app.Transactions.Len())
	assert.Zero(t, env.app.Users.Len(), "only admins mirror the user directory")
	assert.Zero(t, env.app.Logs.Len())

	t.Run("writes from elsewhere arrive", func(t *testing.T) {
		_, err := env.app.Services.Categories.Save(ctx, user.UID, &models.Category{Name: "Pets", Type: models.CategoryTypeExpense})
		require.NoError(t, err)
		assert.Equal(t, 3, env.app.Categories.Len())

		_, err = env.app.Services.Categories.Save(ctx, other.UID, &models.Category{Name: "Hidden", Type: models.CategoryTypeExpense})
		require.NoError(t, err)
		assert.Equal(t, 3, env.app.Categories.Len())
	})

	require.NoError(t, env.app.Session.Logout(ctx, ""))
	assert.Equal(t, session.LoggedOut, env.app.Session.State())
	assert.Zero(t, env.app.Categories.Len())
	assert.Zero(t, env.app.Accounts.Len())
	assert.Zero(t, env.app.Transactions.Len())

	_, err := env.app.Categories.Save(ctx, &models.Category{Name: "Late", Type: models.CategoryTypeExpense})
	requireCode(t, err, "UNAUTHORIZED")
}

func TestApp_Admin(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.db)
	testutil.CreateTestUser(t, env.db)

	env.login(t, admin)
	assert.Equal(t, 2, env.app.Users.Len())
	require.Equal(t, 1, env.app.Logs.Len())
	assert.Equal(t, models.ActionLogin, env.app.Logs.All()[0].Action)

	t.Run("admin refresh picks up new users", func(t *testing.T) {
		testutil.CreateTestUser(t, env.db)
		require.NoError(t, env.app.refreshAdmin(context.Background()))
		assert.Equal(t, 3, env.app.Users.Len())
	})
}

func TestApp_RoleChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := testutil.CreateTestAdmin(t, env.db)
	testutil.CreateTestUser(t, env.db)
	setRole := func(role models.Role) {
		require.NoError(t, env.db.Model(&models.User{}).Where("uid = ?", admin.UID).Update("role", role).Error)
		require.NoError(t, env.app.Sync.SyncUser(ctx))
	}

	env.login(t, admin)
	require.Equal(t, 2, env.app.Users.Len())

	setRole(models.RoleUser)
	assert.Equal(t, session.Active, env.app.Session.State())
	assert.Zero(t, env.app.Users.Len(), "a demoted admin loses the user directory")
	assert.Zero(t, env.app.Logs.Len())
	_, err := env.app.Users.ForceRefresh(ctx, admin.UID)
	requireCode(t, err, "UNAUTHORIZED")

	setRole(models.RoleAdmin)
	assert.Equal(t, 2, env.app.Users.Len())
}

func TestApp_FirstLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUserWith(t, env.db, func(u *models.User) { u.IsFirstLogin = true })
	testutil.CreateTestCategory(t, env.db, user.UID, models.CategoryTypeExpense)

	env.login(t, user)
	assert.Equal(t, session.FirstLoginRequired, env.app.Session.State())
	assert.Zero(t, env.app.Categories.Len(), "nothing loads before the password is changed")

	_, err := env.app.Session.CompleteFirstLogin(ctx, "s3cret!", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, session.Active, env.app.Session.State())
	assert.Equal(t, 1, env.app.Categories.Len())
}

func TestApp_GlobalReload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	env.login(t, user)

	testutil.SetSystemConfig(t, env.db, models.SystemConfig{IsLoggingEnabled: true, GlobalRefreshID: "a"})
	require.NoError(t, env.app.Sync.SyncGlobal(ctx))

	// Written behind the store, so only a reload can see it.
	testutil.CreateTestCategory(t, env.db, user.UID, models.CategoryTypeExpense)
	assert.Zero(t, env.app.Categories.Len())

	testutil.SetSystemConfig(t, env.db, models.SystemConfig{IsLoggingEnabled: true, GlobalRefreshID: "b"})
	require.NoError(t, env.app.Sync.SyncGlobal(ctx))
	assert.Equal(t, 1, env.app.Categories.Len())
	assert.Equal(t, session.Active, env.app.Session.State())

	t.Run("system lock evicts", func(t *testing.T) {
		testutil.SetSystemConfig(t, env.db, models.SystemConfig{IsSystemLocked: true, GlobalRefreshID: "b", MaintenanceMessage: "Back soon"})
		require.NoError(t, env.app.Sync.SyncGlobal(ctx))
		assert.Equal(t, session.LoggedOut, env.app.Session.State())
		assert.Equal(t, "Back soon", env.app.Session.Reason())
		assert.Zero(t, env.app.Categories.Len())
	})
}

func TestApp_Offline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	env.login(t, user)

	env.online.Set(false)
	assert.False(t, env.app.Online(ctx))
	_, err := env.app.Categories.Save(ctx, &models.Category{Name: "Trips", Type: models.CategoryTypeExpense})
	requireCode(t, err, "OFFLINE_BLOCKED")
	assert.Zero(t, env.app.Categories.Len())
}

func TestApp_MonthlyReport(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := testutil.CreateTestUser(t, env.db)
	env.login(t, user)

	account, err := env.app.Accounts.Save(ctx, &models.BankAccount{Name: "Wallet", Type: models.AccountTypeChecking})
	require.NoError(t, err)
	_, err = env.app.Categories.Save(ctx, &models.Category{Name: "Food", Type: models.CategoryTypeExpense})
	require.NoError(t, err)

	rows := []models.Transaction{
		{Description: "Salary", Amount: decimal.NewFromInt(3000), Type: models.TransactionTypeIncome, Date: "2024-05-05", AccountID: account.ID},
		{Description: "Lunch", Amount: decimal.RequireFromString("45.50"), Type: models.TransactionTypeExpense, Date: "2024-05-31", Category: "Food", AccountID: account.ID},
		{Description: "Gift", Amount: decimal.NewFromInt(100), Type: models.TransactionTypeExpense, Date: "2024-05-12", Category: "Gone", AccountID: account.ID},
		{Description: "Next month", Amount: decimal.NewFromInt(70), Type: models.TransactionTypeExpense, Date: "2024-06-01", Category: "Food", AccountID: account.ID},
	}
	_, err = env.app.Transactions.SaveBatch(ctx, rows)
	require.NoError(t, err)

	report, err := env.app.MonthlyReport("2024-05")
	require.NoError(t, err)
	assert.True(t, report.Income.Equal(decimal.NewFromInt(3000)))
	assert.True(t, report.Expense.Equal(decimal.RequireFromString("145.50")))
	assert.True(t, report.Balance.Equal(decimal.RequireFromString("2854.50")))

	labels := map[string]string{}
	for _, line := range report.ByCategory {
		labels[line.Label] = line.Total.String()
	}
	assert.Equal(t, map[string]string{"Food": "45.5", "Unknown category": "100"}, labels)

	_, err = env.app.MonthlyReport("May 2024")
	requireCode(t, err, "INVALID_INPUT")
}
