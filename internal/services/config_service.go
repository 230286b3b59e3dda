package services

import (
	"context"
	"errors"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
	"github.com/marcosbarbosa-dev/appfinance/internal/uuid"
)

// configService reads and publishes the global configuration singleton.
type configService struct {
	store store.Store
}

// NewConfigService creates a new ConfigServicer.
func NewConfigService(st store.Store) ConfigServicer {
	return &configService{store: st}
}

// Get returns the configuration, or the defaults when no row exists yet.
func (s *configService) Get(ctx context.Context) (*models.SystemConfig, error) {
	var cfg models.SystemConfig
	err := s.store.First(ctx, &cfg, store.Query{Where: []store.Cond{store.Eq("id", models.SystemConfigID)}})
	if errors.Is(err, store.ErrNotFound) {
		def := models.DefaultSystemConfig()
		return &def, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cfg, nil
}

// Update publishes the changed fields. Last writer wins.
func (s *configService) Update(ctx context.Context, actor *models.User, update ConfigUpdate) (*models.SystemConfig, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if update.SupportInfo != nil {
		cfg.SupportInfo = *update.SupportInfo
	}
	if update.MaintenanceMessage != nil {
		cfg.MaintenanceMessage = *update.MaintenanceMessage
	}
	if update.IsLoggingEnabled != nil {
		cfg.IsLoggingEnabled = *update.IsLoggingEnabled
	}
	if update.IsSystemLocked != nil {
		cfg.IsSystemLocked = *update.IsSystemLocked
	}

	if err := s.store.Upsert(ctx, cfg); err != nil {
		return nil, writeError(err)
	}

	logger.Get().Infow("system config updated",
		"actor", actor.UID,
		"locked", cfg.IsSystemLocked,
		"logging", cfg.IsLoggingEnabled,
	)
	return cfg, nil
}

// RotateGlobalRefresh replaces the global reload token so every connected
// client reloads once.
func (s *configService) RotateGlobalRefresh(ctx context.Context, actor *models.User) (*models.SystemConfig, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	cfg.GlobalRefreshID = uuid.NewToken()
	if err := s.store.Upsert(ctx, cfg); err != nil {
		return nil, writeError(err)
	}

	logger.Get().Infow("global reload requested", "actor", actor.UID)
	return cfg, nil
}
