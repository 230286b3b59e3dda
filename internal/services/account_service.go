package services

import (
	"context"
	"strings"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// accountService handles bank-account-related business logic.
type accountService struct {
	repo ownedRepo[models.BankAccount, *models.BankAccount]
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(st store.Store) AccountServicer {
	return &accountService{
		repo: ownedRepo[models.BankAccount, *models.BankAccount]{store: st, shared: true, notFound: apperrors.ErrBankAccountNotFound},
	}
}

// ListForUser returns the visible accounts, default accounts first.
func (s *accountService) ListForUser(ctx context.Context, uid string) ([]models.BankAccount, error) {
	return s.repo.list(ctx, uid, store.Query{Order: "is_default DESC, name"})
}

// Get retrieves a visible account by ID
func (s *accountService) Get(ctx context.Context, uid, id string) (*models.BankAccount, error) {
	return s.repo.get(ctx, uid, id)
}

// Save creates or replaces an account owned by uid.
func (s *accountService) Save(ctx context.Context, uid string, account *models.BankAccount) (*models.BankAccount, error) {
	if err := validateAccount(account); err != nil {
		return nil, err
	}
	if err := s.repo.save(ctx, uid, account); err != nil {
		return nil, err
	}
	return account, nil
}

// SaveBatch inserts new accounts owned by uid.
func (s *accountService) SaveBatch(ctx context.Context, uid string, accounts []models.BankAccount) ([]models.BankAccount, error) {
	for i := range accounts {
		if err := validateAccount(&accounts[i]); err != nil {
			return nil, err
		}
	}
	return s.repo.saveBatch(ctx, uid, accounts)
}

// Delete removes an account. Default accounts are not protected and
// transactions pointing at the account are left as they are.
func (s *accountService) Delete(ctx context.Context, uid, id string) error {
	return s.repo.delete(ctx, uid, id)
}

func validateAccount(a *models.BankAccount) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	switch a.Type {
	case models.AccountTypeChecking, models.AccountTypeSavings, models.AccountTypeCreditCard,
		models.AccountTypeInvestment, models.AccountTypeCash:
		return nil
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported account type")
	}
}
