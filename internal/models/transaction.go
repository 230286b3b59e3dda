package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "income"
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeCreditCard TransactionType = "credit_card"
)

// Transaction is a single money movement. Category holds the category name,
// not its id, so renaming or deleting a category leaves history untouched.
type Transaction struct {
	Base
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Description       string          `gorm:"not null" json:"description"`
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type              TransactionType `gorm:"not null" json:"type"`
	Date              string          `gorm:"size:10;not null;index" json:"date"`
	Category          string          `json:"category"`
	AccountID         string          `gorm:"index" json:"account_id"`
	InstallmentNumber *int            `json:"installment_number,omitempty"`
	TotalInstallments *int            `json:"total_installments,omitempty"`
}

func (Transaction) TableName() string { return "transactions" }

// VisibleTo reports whether uid owns the transaction.
func (t *Transaction) VisibleTo(uid string) bool { return t.UserID == uid }

// Owner returns the owning user id.
func (t *Transaction) Owner() string { return t.UserID }

// SetOwner assigns the owning user.
func (t *Transaction) SetOwner(uid string) { t.UserID = uid }

// NormalizeSign stores income as a positive amount and every other type as a
// negative one, whatever sign the caller supplied.
func (t *Transaction) NormalizeSign() {
	if t.Type == TransactionTypeIncome {
		t.Amount = t.Amount.Abs()
		return
	}
	t.Amount = t.Amount.Abs().Neg()
}

// InstallmentLabel returns the "(n/total)" suffix, or "" for single payments.
func (t *Transaction) InstallmentLabel() string {
	if t.InstallmentNumber == nil || t.TotalInstallments == nil {
		return ""
	}
	return fmt.Sprintf("(%d/%d)", *t.InstallmentNumber, *t.TotalInstallments)
}
