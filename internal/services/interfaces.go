package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
)

// CreateUserInput holds the fields an admin sets when creating a user.
type CreateUserInput struct {
	Username       string
	Name           string
	Role           models.Role
	Avatar         string
	SuspensionDate string
}

// UpdateUserInput holds the fields an admin may change on a user.
// Nil fields are left untouched; an empty SuspensionDate grants lifetime access.
type UpdateUserInput struct {
	Name           *string
	Role           *models.Role
	IsActive       *bool
	Avatar         *string
	SuspensionDate *string
}

// ProfileUpdate holds the self-service changes a signed-in user may make.
// Any successful update clears the first-login flag.
type ProfileUpdate struct {
	Name     *string
	Avatar   *string
	Password string
	Confirm  string
}

// UserServicer defines the contract for authentication and user administration.
type UserServicer interface {
	Login(ctx context.Context, username, password string) (*models.User, error)
	Logout(ctx context.Context, user *models.User)
	ValidateSession(ctx context.Context, uid string) (*models.User, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, uid string, input UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, uid string) error
	ResetPassword(ctx context.Context, actor *models.User, uid string) (*models.User, error)
	ForceRefresh(ctx context.Context, actor *models.User, uid string) (*models.User, error)
	UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, uid, password, confirm string) (*models.User, error)
	EnsureAdmin(ctx context.Context, username, name, password string) (*models.User, bool, error)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	ListForUser(ctx context.Context, uid string) ([]models.Category, error)
	ListByType(ctx context.Context, uid string, categoryType models.CategoryType) ([]models.Category, error)
	Get(ctx context.Context, uid, id string) (*models.Category, error)
	Save(ctx context.Context, uid string, category *models.Category) (*models.Category, error)
	SaveBatch(ctx context.Context, uid string, categories []models.Category) ([]models.Category, error)
	Delete(ctx context.Context, uid, id string) error
}

// AccountServicer defines the contract for bank-account-related business logic.
type AccountServicer interface {
	ListForUser(ctx context.Context, uid string) ([]models.BankAccount, error)
	Get(ctx context.Context, uid, id string) (*models.BankAccount, error)
	Save(ctx context.Context, uid string, account *models.BankAccount) (*models.BankAccount, error)
	SaveBatch(ctx context.Context, uid string, accounts []models.BankAccount) ([]models.BankAccount, error)
	Delete(ctx context.Context, uid, id string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  string
	ToDate    string
	Type      *models.TransactionType
	Category  string
	AccountID string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	ListForUser(ctx context.Context, uid string) ([]models.Transaction, error)
	List(ctx context.Context, uid string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	Get(ctx context.Context, uid, id string) (*models.Transaction, error)
	Save(ctx context.Context, uid string, tx *models.Transaction) (*models.Transaction, error)
	SaveBatch(ctx context.Context, uid string, txs []models.Transaction) ([]models.Transaction, error)
	CreateSeries(ctx context.Context, uid string, base models.Transaction, number, total int) ([]models.Transaction, error)
	Delete(ctx context.Context, uid, id string) error
}

// AuditServicer defines the contract for the admin audit log.
type AuditServicer interface {
	Record(ctx context.Context, actor *models.User, action models.LogAction, details string) (*models.SystemLog, error)
	Recent(ctx context.Context, limit int) ([]models.SystemLog, error)
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.SystemLog], error)
	Delete(ctx context.Context, actor *models.User, id string) error
	Clear(ctx context.Context, actor *models.User) (int64, error)
}

// ConfigUpdate holds the fields an admin publishes to every client.
type ConfigUpdate struct {
	SupportInfo        *string
	MaintenanceMessage *string
	IsLoggingEnabled   *bool
	IsSystemLocked     *bool
}

// ConfigServicer defines the contract for the global configuration record.
type ConfigServicer interface {
	Get(ctx context.Context) (*models.SystemConfig, error)
	Update(ctx context.Context, actor *models.User, update ConfigUpdate) (*models.SystemConfig, error)
	RotateGlobalRefresh(ctx context.Context, actor *models.User) (*models.SystemConfig, error)
}

// ReportLine is one bucket of a report breakdown.
type ReportLine struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// MonthlyReport summarises one month of a user's transactions.
// Income and Expense are non-negative; breakdowns list outflows only.
type MonthlyReport struct {
	Month      string          `json:"month"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Balance    decimal.Decimal `json:"balance"`
	ByAccount  []ReportLine    `json:"by_account"`
	ByCategory []ReportLine    `json:"by_category"`
}

// ReportServicer defines the contract for reports.
type ReportServicer interface {
	Monthly(ctx context.Context, uid, month string) (*MonthlyReport, error)
}
