package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

// Context keys set by the auth middleware chain.
const (
	userIDKey = "userID"
	roleKey   = "role"
	userKey   = "user"
)

const issuer = "appfinance-api"

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Generate generates a JWT access token for a user.
func (m *TokenManager) Generate(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.ttl)
	claims := &JWTClaims{
		UserID:   user.UID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.UID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	return signed, expires, err
}

// Parse validates a token and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// AuthMiddleware verifies the JWT token and sets the user id in the context
func AuthMiddleware(tokens *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Fail(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		// Check if the header is in the correct format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			Fail(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil {
			Fail(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// SessionGuard reloads the signed-in user on every request and rejects
// sessions that were deleted, suspended or locked out since the token was
// issued. It must run after AuthMiddleware.
func SessionGuard(users services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(userIDKey)
		if uid == "" {
			Fail(c, apperrors.ErrUnauthorized)
			return
		}
		user, err := users.ValidateSession(c.Request.Context(), uid)
		if err != nil {
			Fail(c, err)
			return
		}
		SetCurrentUser(c, user)
		c.Next()
	}
}

// AdminOnly rejects non-admin users. It must run after SessionGuard.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Fail(c, apperrors.ErrUnauthorized)
			return
		}
		if !user.IsAdmin() {
			Fail(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// PasswordSet rejects users who still sign in with the default password.
// Only the profile and logout routes stay open to them. It must run after
// SessionGuard.
func PasswordSet() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			Fail(c, apperrors.ErrUnauthorized)
			return
		}
		if user.IsFirstLogin {
			Fail(c, apperrors.ErrFirstLoginRequired)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by SessionGuard, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// SetCurrentUser stores the signed-in user on the context.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(userIDKey, user.UID)
	c.Set(roleKey, user.Role)
	c.Set(userKey, user)
}

// CurrentUserID returns the user id from the token, or "".
func CurrentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
