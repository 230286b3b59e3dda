package services

import (
	"errors"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// readError maps a store read failure to notFound or an internal error.
func readError(err error, notFound *apperrors.AppError) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// writeError maps a store write failure to a recoverable user-visible error.
func writeError(err error) error {
	return apperrors.Wrap(apperrors.ErrRemoteWriteFailed, err)
}

func byID(id string) store.Query {
	return store.Query{Where: []store.Cond{store.Eq("id", id)}}
}

// requireAdmin rejects a missing or non-admin actor.
func requireAdmin(actor *models.User) error {
	if actor == nil {
		return apperrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}
