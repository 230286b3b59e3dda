package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/pagination"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// AdminHandler handles the user directory and the audit log.
// Every route is mounted behind AdminOnly.
type AdminHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(userService services.UserServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents a new user. The first password is the username.
type CreateUserRequest struct {
	Username       string      `json:"username" binding:"required,max=100"`
	Name           string      `json:"name" binding:"max=100"`
	Role           models.Role `json:"role" binding:"omitempty,user_role"`
	Avatar         string      `json:"avatar" binding:"omitempty,avatar"`
	SuspensionDate string      `json:"suspension_date" binding:"omitempty,iso_date"`
}

// UpdateUserRequest represents an admin edit. An empty suspension_date
// grants lifetime access.
type UpdateUserRequest struct {
	Name           *string      `json:"name" binding:"omitempty,max=100"`
	Role           *models.Role `json:"role" binding:"omitempty,user_role"`
	IsActive       *bool        `json:"is_active"`
	Avatar         *string      `json:"avatar" binding:"omitempty,avatar"`
	SuspensionDate *string      `json:"suspension_date"`
}

// ListUsers returns every user.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = newUserResponse(&users[i])
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// CreateUser registers a user and seeds their starter data.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), actor, services.CreateUserInput{
		Username:       req.Username,
		Name:           req.Name,
		Role:           req.Role,
		Avatar:         req.Avatar,
		SuspensionDate: req.SuspensionDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

// UpdateUser applies an admin edit.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	uid, err := parsePathID(c, "uid")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actor, uid, services.UpdateUserInput{
		Name:           req.Name,
		Role:           req.Role,
		IsActive:       req.IsActive,
		Avatar:         req.Avatar,
		SuspensionDate: req.SuspensionDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// DeleteUser permanently removes a user.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	uid, err := parsePathID(c, "uid")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actor, uid); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ResetPassword restores the default password of a user.
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	h.userAction(c, h.userService.ResetPassword)
}

// ForceRefresh makes the user's open session reload.
func (h *AdminHandler) ForceRefresh(c *gin.Context) {
	h.userAction(c, h.userService.ForceRefresh)
}

func (h *AdminHandler) userAction(c *gin.Context, action func(ctx context.Context, actor *models.User, uid string) (*models.User, error)) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	uid, err := parsePathID(c, "uid")
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := action(c.Request.Context(), actor, uid)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// ListLogs returns the audit log, newest first.
func (h *AdminHandler) ListLogs(c *gin.Context) {
	var page pagination.PageRequest
	if !bindQuery(c, &page) {
		return
	}

	result, err := h.auditService.List(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteLog removes one audit entry.
func (h *AdminHandler) DeleteLog(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.auditService.Delete(c.Request.Context(), actor, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Log entry deleted"})
}

// ClearLogs removes every audit entry.
func (h *AdminHandler) ClearLogs(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	n, err := h.auditService.Clear(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
