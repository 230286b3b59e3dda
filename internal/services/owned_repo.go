package services

import (
	"context"
	"errors"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// ownedRow is implemented by pointers to user-scoped rows.
type ownedRow[E any] interface {
	*E
	PrimaryKey() string
	EnsureID() string
	Owner() string
	SetOwner(uid string)
	VisibleTo(uid string) bool
}

// ownedRepo holds the visibility and ownership rules shared by categories,
// bank accounts and transactions. With shared set, rows without an owner are
// readable by everyone but writable by no one.
type ownedRepo[E any, P ownedRow[E]] struct {
	store    store.Store
	shared   bool
	notFound *apperrors.AppError
}

func (r ownedRepo[E, P]) scope(uid string) *store.Scope {
	return &store.Scope{Column: "user_id", OwnerID: uid, IncludeShared: r.shared}
}

func (r ownedRepo[E, P]) list(ctx context.Context, uid string, q store.Query) ([]E, error) {
	q.Scope = r.scope(uid)
	var rows []E
	if err := r.store.Find(ctx, &rows, q); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rows == nil {
		rows = []E{}
	}
	return rows, nil
}

func (r ownedRepo[E, P]) count(ctx context.Context, uid string, q store.Query) (int64, error) {
	q.Scope = r.scope(uid)
	n, err := r.store.Count(ctx, new(E), q)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

func (r ownedRepo[E, P]) get(ctx context.Context, uid, id string) (*E, error) {
	q := byID(id)
	q.Scope = r.scope(uid)
	var row E
	if err := r.store.First(ctx, &row, q); err != nil {
		return nil, readError(err, r.notFound)
	}
	return &row, nil
}

// claim injects uid as owner when the row has none and rejects rows that
// belong to someone else.
func (r ownedRepo[E, P]) claim(uid string, row P) error {
	if row.Owner() == "" {
		row.SetOwner(uid)
	}
	if row.Owner() != uid {
		return apperrors.ErrForbidden
	}
	return nil
}

// checkExisting rejects updates of stored rows the user does not own,
// including shared rows.
func (r ownedRepo[E, P]) checkExisting(ctx context.Context, uid string, row P) error {
	if row.PrimaryKey() == "" {
		return nil
	}
	var existing E
	err := r.store.First(ctx, &existing, byID(row.PrimaryKey()))
	switch {
	case err == nil:
		if P(&existing).Owner() != uid {
			if P(&existing).VisibleTo(uid) {
				return apperrors.ErrForbidden
			}
			return r.notFound
		}
		return nil
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

func (r ownedRepo[E, P]) save(ctx context.Context, uid string, row P) error {
	if err := r.claim(uid, row); err != nil {
		return err
	}
	if err := r.checkExisting(ctx, uid, row); err != nil {
		return err
	}
	row.EnsureID()
	if err := r.store.Upsert(ctx, row); err != nil {
		return writeError(err)
	}
	return nil
}

func (r ownedRepo[E, P]) saveBatch(ctx context.Context, uid string, rows []E) ([]E, error) {
	out := make([]E, len(rows))
	copy(out, rows)
	for i := range out {
		row := P(&out[i])
		if err := r.claim(uid, row); err != nil {
			return nil, err
		}
		row.EnsureID()
	}
	if len(out) == 0 {
		return out, nil
	}
	if err := r.store.Insert(ctx, &out); err != nil {
		return nil, writeError(err)
	}
	return out, nil
}

func (r ownedRepo[E, P]) delete(ctx context.Context, uid, id string) error {
	row, err := r.get(ctx, uid, id)
	if err != nil {
		return err
	}
	if P(row).Owner() != uid {
		return apperrors.ErrForbidden
	}
	if _, err := r.store.Delete(ctx, new(E), byID(id)); err != nil {
		return writeError(err)
	}
	return nil
}
