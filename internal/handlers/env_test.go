package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/marcosbarbosa-dev/appfinance/internal/middleware"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
	"github.com/marcosbarbosa-dev/appfinance/internal/testutil"
)

// handlerEnv wires real services over an isolated database for handlers
// whose behaviour depends on the visibility rules of the store.
type handlerEnv struct {
	db           *gorm.DB
	store        *store.GormStore
	config       services.ConfigServicer
	audit        services.AuditServicer
	users        services.UserServicer
	categories   services.CategoryServicer
	accounts     services.AccountServicer
	transactions services.TransactionServicer
	reports      services.ReportServicer
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	st := store.NewGormStore(db)
	env := &handlerEnv{db: db, store: st}
	env.config = services.NewConfigService(st)
	env.audit = services.NewAuditService(st, env.config)
	env.users = services.NewUserService(st, env.audit, env.config)
	env.categories = services.NewCategoryService(st)
	env.accounts = services.NewAccountService(st)
	env.transactions = services.NewTransactionService(st, env.accounts)
	env.reports = services.NewReportService(env.transactions, env.accounts, env.categories)
	return env
}

// router mounts every resource handler as user.
func (e *handlerEnv) router(user *models.User) *gin.Engine {
	r := newRouter()
	authed := r.Group("", injectUser(user))

	cat := NewCategoryHandler(e.categories)
	authed.POST("/categories", cat.CreateCategory)
	authed.GET("/categories", cat.GetUserCategories)
	authed.GET("/categories/:id", cat.GetCategoryByID)
	authed.PUT("/categories/:id", cat.UpdateCategory)
	authed.DELETE("/categories/:id", cat.DeleteCategory)

	acc := NewAccountHandler(e.accounts)
	authed.POST("/accounts", acc.CreateAccount)
	authed.GET("/accounts", acc.GetUserAccounts)
	authed.GET("/accounts/:id", acc.GetAccountByID)
	authed.PUT("/accounts/:id", acc.UpdateAccount)
	authed.DELETE("/accounts/:id", acc.DeleteAccount)

	tx := NewTransactionHandler(e.transactions)
	authed.POST("/transactions", tx.CreateTransaction)
	authed.POST("/transactions/series", tx.CreateSeries)
	authed.GET("/transactions", tx.GetUserTransactions)
	authed.GET("/transactions/:id", tx.GetTransactionByID)
	authed.PUT("/transactions/:id", tx.UpdateTransaction)
	authed.DELETE("/transactions/:id", tx.DeleteTransaction)

	rep := NewReportHandler(e.reports)
	authed.GET("/reports/monthly", rep.GetMonthly)

	sys := NewSystemHandler(e.config)
	r.GET("/system/config", sys.GetConfig)
	authed.PUT("/admin/system/config", sys.UpdateConfig)
	authed.POST("/admin/system/refresh", sys.ForceGlobalRefresh)

	adm := NewAdminHandler(e.users, e.audit)
	authed.GET("/admin/users", adm.ListUsers)
	authed.POST("/admin/users", adm.CreateUser)
	authed.PUT("/admin/users/:uid", adm.UpdateUser)
	authed.DELETE("/admin/users/:uid", adm.DeleteUser)
	authed.POST("/admin/users/:uid/reset-password", adm.ResetPassword)
	authed.POST("/admin/users/:uid/refresh", adm.ForceRefresh)
	authed.GET("/admin/logs", adm.ListLogs)
	authed.DELETE("/admin/logs/:id", adm.DeleteLog)
	authed.DELETE("/admin/logs", adm.ClearLogs)
	return r
}

// newRouter returns an engine that renders errors the way the API does.
func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

func dataOf(t *testing.T, result map[string]interface{}, key string) map[string]interface{} {
	t.Helper()
	obj, ok := result[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected %q object in response, got: %v", key, result)
	}
	return obj
}
