// Package server assembles the HTTP API: services, handlers and routes.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcosbarbosa-dev/appfinance/internal/handlers"
	"github.com/marcosbarbosa-dev/appfinance/internal/middleware"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// Options tunes the router.
type Options struct {
	Tokens    *middleware.TokenManager
	Heartbeat time.Duration
}

// NewRouter builds the gin engine with every route mounted under /api/v1.
func NewRouter(st store.Store, svc *services.Set, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, opts.Tokens)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	accountHandler := handlers.NewAccountHandler(svc.Accounts)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	systemHandler := handlers.NewSystemHandler(svc.Config)
	adminHandler := handlers.NewAdminHandler(svc.Users, svc.Audit)
	changeHandler := handlers.NewChangeHandler(st, svc.Users, opts.Heartbeat)
	healthHandler := handlers.NewHealthHandler(st)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", healthHandler.Health)

	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/system/config", systemHandler.GetConfig)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.Tokens), middleware.SessionGuard(svc.Users))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.PUT("/profile/password", authHandler.ChangePassword)

	// Everything else waits until the default password has been replaced.
	app := protected.Group("")
	app.Use(middleware.PasswordSet())

	app.GET("/changes", changeHandler.Stream)

	categories := app.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	accounts := app.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	transactions := app.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/series", transactionHandler.CreateSeries)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	app.GET("/reports/monthly", reportHandler.GetMonthly)

	admin := app.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.PUT("/system/config", systemHandler.UpdateConfig)
	admin.POST("/system/refresh", systemHandler.ForceGlobalRefresh)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:uid", adminHandler.UpdateUser)
	admin.DELETE("/users/:uid", adminHandler.DeleteUser)
	admin.POST("/users/:uid/reset-password", adminHandler.ResetPassword)
	admin.POST("/users/:uid/refresh", adminHandler.ForceRefresh)
	admin.GET("/logs", adminHandler.ListLogs)
	admin.DELETE("/logs", adminHandler.ClearLogs)
	admin.DELETE("/logs/:id", adminHandler.DeleteLog)

	return router
}
