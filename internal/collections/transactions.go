package collections

import (
	"context"

	"github.com/marcosbarbosa-dev/appfinance/internal/connectivity"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// SeriesBackend is a transaction backend able to create installment series.
type SeriesBackend interface {
	Backend[models.Transaction]
	CreateSeries(ctx context.Context, base models.Transaction, number, total int) ([]models.Transaction, error)
}

type transactionBackend struct {
	ownedBackend[models.Transaction]
	svc services.TransactionServicer
}

// ForTransactions binds svc to the transactions of uid.
func ForTransactions(svc services.TransactionServicer, uid string) SeriesBackend {
	return transactionBackend{ownedBackend: ownedBackend[models.Transaction]{svc: svc, uid: uid}, svc: svc}
}

func (b transactionBackend) CreateSeries(ctx context.Context, base models.Transaction, number, total int) ([]models.Transaction, error) {
	return b.svc.CreateSeries(ctx, b.uid, base, number, total)
}

// Transactions mirrors the signed-in user's transactions.
type Transactions struct {
	*Collection[models.Transaction, *models.Transaction]
}

// NewTransactions creates an empty transaction mirror.
func NewTransactions(online connectivity.Checker) *Transactions {
	return &Transactions{New[models.Transaction, *models.Transaction](models.Transaction{}.TableName(), online)}
}

// AddSeries creates the installments number through total of base. An
// inverted or non-positive range is rejected before anything is written.
func (t *Transactions) AddSeries(ctx context.Context, base models.Transaction, number, total int) ([]models.Transaction, error) {
	if number < 1 || total <= number {
		return nil, apperrors.ErrInvalidInstallments
	}
	b, rev, err := t.writable(ctx)
	if err != nil {
		return nil, err
	}
	series, ok := b.(SeriesBackend)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInternalServer, "installments are not supported by this backend")
	}

	rows, err := series.CreateSeries(ctx, base, number, total)
	if err != nil {
		return nil, err
	}
	t.put(rev, rows...)
	return append([]models.Transaction(nil), rows...), nil
}
