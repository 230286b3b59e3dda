package services

import (
	"context"
	"errors"
	"strings"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	repo     ownedRepo[models.Transaction, *models.Transaction]
	accounts AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(st store.Store, accounts AccountServicer) TransactionServicer {
	return &transactionService{
		repo:     ownedRepo[models.Transaction, *models.Transaction]{store: st, notFound: apperrors.ErrTransactionNotFound},
		accounts: accounts,
	}
}

// ListForUser returns every transaction of uid, newest first.
func (s *transactionService) ListForUser(ctx context.Context, uid string) ([]models.Transaction, error) {
	return s.repo.list(ctx, uid, store.Query{Order: "date DESC, created_at DESC"})
}

// List retrieves a paginated, filtered list of transactions for a user.
func (s *transactionService) List(ctx context.Context, uid string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Clamp()

	q := store.Query{Where: filter.conds()}
	total, err := s.repo.count(ctx, uid, q)
	if err != nil {
		return nil, err
	}

	q.Order = "date DESC, created_at DESC"
	q.Limit = page.PageSize
	q.Offset = page.Offset()
	txs, err := s.repo.list(ctx, uid, q)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(txs, page.Page, page.PageSize, total)
	return &result, nil
}

// Get retrieves a transaction by ID for a specific user
func (s *transactionService) Get(ctx context.Context, uid, id string) (*models.Transaction, error) {
	return s.repo.get(ctx, uid, id)
}

// Save creates or replaces a transaction owned by uid. The amount sign is
// normalised from the type.
func (s *transactionService) Save(ctx context.Context, uid string, tx *models.Transaction) (*models.Transaction, error) {
	if err := s.validate(ctx, uid, tx); err != nil {
		return nil, err
	}
	if err := s.repo.save(ctx, uid, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// SaveBatch inserts new transactions owned by uid.
func (s *transactionService) SaveBatch(ctx context.Context, uid string, txs []models.Transaction) ([]models.Transaction, error) {
	for i := range txs {
		if err := s.validate(ctx, uid, &txs[i]); err != nil {
			return nil, err
		}
	}
	return s.repo.saveBatch(ctx, uid, txs)
}

// CreateSeries splits a purchase into monthly installments from number
// through total. Nothing is written when the range is invalid.
func (s *transactionService) CreateSeries(ctx context.Context, uid string, base models.Transaction, number, total int) ([]models.Transaction, error) {
	if err := s.validate(ctx, uid, &base); err != nil {
		return nil, err
	}
	series, err := BuildInstallments(base, number, total)
	if err != nil {
		return nil, err
	}
	return s.repo.saveBatch(ctx, uid, series)
}

// Delete removes a transaction.
func (s *transactionService) Delete(ctx context.Context, uid, id string) error {
	return s.repo.delete(ctx, uid, id)
}

func (s *transactionService) validate(ctx context.Context, uid string, tx *models.Transaction) error {
	tx.Description = strings.TrimSpace(tx.Description)
	if tx.Description == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	switch tx.Type {
	case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeCreditCard:
	default:
		return apperrors.ErrInvalidTransactionType
	}
	if !calendar.Valid(tx.Date) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be YYYY-MM-DD")
	}
	if tx.Amount.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	if (tx.InstallmentNumber == nil) != (tx.TotalInstallments == nil) {
		return apperrors.ErrInvalidInstallments
	}
	if tx.InstallmentNumber != nil && (*tx.InstallmentNumber < 1 || *tx.InstallmentNumber > *tx.TotalInstallments) {
		return apperrors.ErrInvalidInstallments
	}
	tx.NormalizeSign()

	if tx.AccountID == "" {
		return nil
	}
	account, err := s.accounts.Get(ctx, uid, tx.AccountID)
	if errors.Is(err, apperrors.ErrBankAccountNotFound) {
		// Dangling references are allowed; reports label them.
		return nil
	}
	if err != nil {
		return err
	}
	isCard := account.Type == models.AccountTypeCreditCard
	if isCard != (tx.Type == models.TransactionTypeCreditCard) {
		if isCard {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "credit card accounts only accept credit card transactions")
		}
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "credit card transactions must use a credit card account")
	}
	return nil
}

func (f TransactionFilter) conds() []store.Cond {
	var conds []store.Cond
	if f.FromDate != "" {
		conds = append(conds, store.Cond{Column: "date", Op: ">=", Value: f.FromDate})
	}
	if f.ToDate != "" {
		conds = append(conds, store.Cond{Column: "date", Op: "<=", Value: f.ToDate})
	}
	if f.Type != nil {
		conds = append(conds, store.Eq("type", *f.Type))
	}
	if f.Category != "" {
		conds = append(conds, store.Eq("category", f.Category))
	}
	if f.AccountID != "" {
		conds = append(conds, store.Eq("account_id", f.AccountID))
	}
	return conds
}
