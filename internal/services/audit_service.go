package services

import (
	"context"
	"time"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
)

// auditService handles audit log recording.
type auditService struct {
	store  store.Store
	config ConfigServicer
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(st store.Store, config ConfigServicer) AuditServicer {
	return &auditService{store: st, config: config}
}

// Record appends an entry for an admin action. Non-admin actors and a
// disabled logging flag produce no entry and no error.
func (s *auditService) Record(ctx context.Context, actor *models.User, action models.LogAction, details string) (*models.SystemLog, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, nil
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.IsLoggingEnabled {
		return nil, nil
	}

	entry := &models.SystemLog{
		UserID:    actor.UID,
		UserName:  actor.Name,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Details:   details,
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", actor.UID,
			"action", action,
		)
		return nil, writeError(err)
	}
	return entry, nil
}

// Recent returns the newest entries first.
func (s *auditService) Recent(ctx context.Context, limit int) ([]models.SystemLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.SystemLog
	if err := s.store.Find(ctx, &logs, store.Query{Order: "timestamp DESC", Limit: limit}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if logs == nil {
		logs = []models.SystemLog{}
	}
	return logs, nil
}

// List retrieves a paginated list of entries, newest first.
func (s *auditService) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.SystemLog], error) {
	page.Clamp()

	total, err := s.store.Count(ctx, &models.SystemLog{}, store.Query{})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var logs []models.SystemLog
	q := store.Query{Order: "timestamp DESC", Limit: page.PageSize, Offset: page.Offset()}
	if err := s.store.Find(ctx, &logs, q); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(logs, page.Page, page.PageSize, total)
	return &result, nil
}

// Delete removes one entry.
func (s *auditService) Delete(ctx context.Context, actor *models.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	n, err := s.store.Delete(ctx, &models.SystemLog{}, byID(id))
	if err != nil {
		return writeError(err)
	}
	if n == 0 {
		return apperrors.ErrLogNotFound
	}
	return nil
}

// Clear removes every entry and reports how many were removed.
func (s *auditService) Clear(ctx context.Context, actor *models.User) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	n, err := s.store.Delete(ctx, &models.SystemLog{}, store.Query{})
	if err != nil {
		return 0, writeError(err)
	}
	logger.Get().Infow("audit log cleared", "actor", actor.UID, "removed", n)
	return n, nil
}
