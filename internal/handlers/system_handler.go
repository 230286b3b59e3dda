package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// SystemHandler serves the global configuration record.
type SystemHandler struct {
	configService services.ConfigServicer
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(configService services.ConfigServicer) *SystemHandler {
	return &SystemHandler{configService: configService}
}

// UpdateConfigRequest represents the admin support/maintenance editor.
// Omitted fields keep their current value.
type UpdateConfigRequest struct {
	SupportInfo        *string `json:"support_info" binding:"omitempty,max=2000"`
	MaintenanceMessage *string `json:"maintenance_message" binding:"omitempty,max=2000"`
	IsLoggingEnabled   *bool   `json:"is_logging_enabled"`
	IsSystemLocked     *bool   `json:"is_system_locked"`
}

// GetConfig returns the configuration every client polls. It is public so
// the sign-in screen can show support and maintenance text.
func (h *SystemHandler) GetConfig(c *gin.Context) {
	cfg, err := h.configService.Get(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// UpdateConfig publishes the admin's changes in one write.
func (h *SystemHandler) UpdateConfig(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	cfg, err := h.configService.Update(c.Request.Context(), actor, services.ConfigUpdate{
		SupportInfo:        req.SupportInfo,
		MaintenanceMessage: req.MaintenanceMessage,
		IsLoggingEnabled:   req.IsLoggingEnabled,
		IsSystemLocked:     req.IsSystemLocked,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// ForceGlobalRefresh makes every connected client reload once.
func (h *SystemHandler) ForceGlobalRefresh(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cfg, err := h.configService.RotateGlobalRefresh(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}
