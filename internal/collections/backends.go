package collections

import (
	"context"

	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// OwnedService is satisfied by the category, bank account and transaction
// services.
type OwnedService[E any] interface {
	ListForUser(ctx context.Context, uid string) ([]E, error)
	Save(ctx context.Context, uid string, row *E) (*E, error)
	SaveBatch(ctx context.Context, uid string, rows []E) ([]E, error)
	Delete(ctx context.Context, uid, id string) error
}

type ownedBackend[E any] struct {
	svc OwnedService[E]
	uid string
}

// ForUser binds svc to the rows visible to uid.
func ForUser[E any](svc OwnedService[E], uid string) Backend[E] {
	return ownedBackend[E]{svc: svc, uid: uid}
}

func (b ownedBackend[E]) List(ctx context.Context) ([]E, error) {
	return b.svc.ListForUser(ctx, b.uid)
}

func (b ownedBackend[E]) Save(ctx context.Context, row *E) (*E, error) {
	return b.svc.Save(ctx, b.uid, row)
}

func (b ownedBackend[E]) SaveBatch(ctx context.Context, rows []E) ([]E, error) {
	return b.svc.SaveBatch(ctx, b.uid, rows)
}

func (b ownedBackend[E]) Delete(ctx context.Context, id string) error {
	return b.svc.Delete(ctx, b.uid, id)
}

// Categories mirrors the categories visible to the signed-in user.
type Categories = Collection[models.Category, *models.Category]

// Accounts mirrors the bank accounts visible to the signed-in user.
type Accounts = Collection[models.BankAccount, *models.BankAccount]

// NewCategories creates an empty category mirror.
func NewCategories(online connectivity.Checker) *Categories {
	return New[models.Category, *models.Category](models.Category{}.TableName(), online)
}

// NewAccounts creates an empty bank account mirror.
func NewAccounts(online connectivity.Checker) *Accounts {
	return New[models.BankAccount, *models.BankAccount](models.BankAccount{}.TableName(), online)
}

// ensure the services fit the mirrors.
var (
	_ OwnedService[models.Category]    = services.CategoryServicer(nil)
	_ OwnedService[models.BankAccount] = services.AccountServicer(nil)
	_ OwnedService[models.Transaction] = services.TransactionServicer(nil)
)
