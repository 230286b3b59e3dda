package models

// AccountType represents the type of bank account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCreditCard AccountType = "credit_card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
)

// BankAccount is where money moves in and out. IsDefault marks the accounts
// seeded for a new user; it carries no deletion protection.
type BankAccount struct {
	Base
	UserID    *string     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name      string      `gorm:"not null" json:"name"`
	Type      AccountType `gorm:"not null" json:"type"`
	BankName  string      `json:"bank_name"`
	IsDefault bool        `gorm:"not null" json:"is_default"`
}

func (BankAccount) TableName() string { return "bank_accounts" }

// VisibleTo reports whether uid may see the account.
func (a *BankAccount) VisibleTo(uid string) bool { return ownedBy(a.UserID, uid) }

// Owner returns the owning user id, or "" for shared accounts.
func (a *BankAccount) Owner() string {
	if a.UserID == nil {
		return ""
	}
	return *a.UserID
}

// SetOwner assigns the owning user.
func (a *BankAccount) SetOwner(uid string) { a.UserID = StringPtr(uid) }
