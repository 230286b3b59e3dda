package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/middleware"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// AuthHandler handles sign-in and self-service profile requests
type AuthHandler struct {
	userService services.UserServicer
	tokens      *middleware.TokenManager
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, tokens *middleware.TokenManager) *AuthHandler {
	return &AuthHandler{userService: userService, tokens: tokens}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=128"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	UID            string      `json:"uid"`
	Username       string      `json:"username"`
	Name           string      `json:"name"`
	Role           models.Role `json:"role"`
	IsActive       bool        `json:"is_active"`
	IsFirstLogin   bool        `json:"is_first_login"`
	Avatar         string      `json:"avatar,omitempty"`
	SuspensionDate string      `json:"suspension_date,omitempty"`
	RefreshID      string      `json:"refresh_id,omitempty"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UpdateProfileRequest represents the self-service profile payload
type UpdateProfileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Avatar   *string `json:"avatar" binding:"omitempty,avatar"`
	Password string  `json:"password" binding:"max=128"`
	Confirm  string  `json:"confirm_password" binding:"max=128"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required,max=128"`
	Confirm  string `json:"confirm_password" binding:"required,max=128"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		UID:            u.UID,
		Username:       u.Username,
		Name:           u.Name,
		Role:           u.Role,
		IsActive:       u.IsActive,
		IsFirstLogin:   u.IsFirstLogin,
		Avatar:         u.Avatar,
		SuspensionDate: u.SuspensionDate,
		RefreshID:      u.RefreshID,
	}
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, expires, err := h.tokens.Generate(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      newUserResponse(user),
	})
}

// Logout records the sign-out. Tokens are stateless, so the client drops its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.userService.Logout(c.Request.Context(), user)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GetProfile returns the signed-in user
func (h *AuthHandler) GetProfile(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), uid)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateProfile changes the name, avatar or password of the signed-in user
// and completes a pending first login.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), uid, services.ProfileUpdate{
		Name:     req.Name,
		Avatar:   req.Avatar,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// ChangePassword sets a new password for the signed-in user
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangePassword(c.Request.Context(), uid, req.Password, req.Confirm)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
