package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the password of every fixture user that finished first login.
const TestPassword = "password123"

// CreateTestUser creates an active regular user who already changed the
// default password to TestPassword.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWith(t, db, func(u *models.User) {})
}

// CreateTestAdmin creates an active admin who already changed the default
// password to TestPassword.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWith(t, db, func(u *models.User) { u.Role = models.RoleAdmin })
}

// CreateTestUserWith creates a user after letting mutate adjust the defaults.
func CreateTestUserWith(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Username:     fmt.Sprintf("user%d", n),
		PasswordHash: string(hash),
		Name:         fmt.Sprintf("Test User %d", n),
		Role:         models.RoleUser,
		IsActive:     true,
		IsFirstLogin: false,
	}
	mutate(user)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category owned by userID. An empty userID
// creates a shared category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: models.StringPtr(userID),
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
		Icon:   "tag",
		Color:  "#3b82f6",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBankAccount creates a bank account owned by userID.
func CreateTestBankAccount(t *testing.T, db *gorm.DB, userID string, accountType models.AccountType) *models.BankAccount {
	t.Helper()

	account := &models.BankAccount{
		UserID:   models.StringPtr(userID),
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Type:     accountType,
		BankName: "Test Bank",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test bank account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a transaction with a signed amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount string, date string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Type:        txType,
		Amount:      decimal.RequireFromString(amount),
		Date:        date,
		Category:    "Test",
	}
	tx.NormalizeSign()
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// SetSystemConfig writes the singleton configuration row.
func SetSystemConfig(t *testing.T, db *gorm.DB, cfg models.SystemConfig) *models.SystemConfig {
	t.Helper()

	cfg.ID = models.SystemConfigID
	if err := db.Save(&cfg).Error; err != nil {
		t.Fatalf("failed to save system config: %v", err)
	}
	return &cfg
}
