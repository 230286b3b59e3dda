package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcosbarbosa-dev/appfinance/internal/calendar"
	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/logger"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/store"
	"github.com/marcosbarbosa-dev/appfinance/internal/uuid"
)

// MinPasswordLength is the shortest password a user may choose.
const MinPasswordLength = 6

// passwordCost is the bcrypt cost used for new hashes.
var passwordCost = bcrypt.DefaultCost

// userService handles authentication and user administration.
type userService struct {
	store  store.Store
	audit  AuditServicer
	config ConfigServicer
	now    calendar.Clock
}

// NewUserService creates a new UserServicer.
func NewUserService(st store.Store, audit AuditServicer, config ConfigServicer) UserServicer {
	return &userService{store: st, audit: audit, config: config, now: calendar.System}
}

// Login checks credentials against the sign-in policy. Checks run in a fixed
// order so the caller always sees the first reason a login is refused.
func (s *userService) Login(ctx context.Context, username, password string) (*models.User, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, apperrors.ErrUserNotFound
	}

	user, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if user.Blocked(calendar.Today(s.now)) {
		return nil, apperrors.ErrAccountSuspended
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.IsSystemLocked && !user.IsAdmin() {
		return nil, apperrors.WithMessage(apperrors.ErrSystemLocked, cfg.LockMessage())
	}

	if !verifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.record(ctx, user, models.ActionLogin, "")
	return user, nil
}

// Logout records the sign-out of an admin.
func (s *userService) Logout(ctx context.Context, user *models.User) {
	s.record(ctx, user, models.ActionLogout, "")
}

// ValidateSession reloads a signed-in user and reports ErrStaleSession when
// the session should no longer be honoured.
func (s *userService) ValidateSession(ctx context.Context, uid string) (*models.User, error) {
	user, err := s.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrStaleSession, "Your account was removed")
		}
		return nil, err
	}
	if user.Blocked(calendar.Today(s.now)) {
		return nil, apperrors.WithMessage(apperrors.ErrStaleSession, apperrors.ErrAccountSuspended.Message)
	}
	if !user.IsAdmin() {
		cfg, err := s.config.Get(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.IsSystemLocked {
			return nil, apperrors.WithMessage(apperrors.ErrStaleSession, cfg.LockMessage())
		}
	}
	return user, nil
}

// GetUser retrieves a user by uid
func (s *userService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.store.First(ctx, &user, store.Query{Where: []store.Cond{store.Eq("uid", uid)}}); err != nil {
		return nil, readError(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// ListUsers returns every user ordered by name.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.store.Find(ctx, &users, store.Query{Order: "name"}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// CreateUser registers a user whose first password is the username, then
// seeds the starter categories and accounts.
func (s *userService) CreateUser(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	username := models.NormalizeUsername(input.Username)
	if username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username is required")
	}
	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be admin or user")
	}
	if input.SuspensionDate != "" && !calendar.Valid(input.SuspensionDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "suspension date must be YYYY-MM-DD")
	}

	taken, err := s.store.Count(ctx, &models.User{}, store.Query{Where: []store.Cond{store.Eq("username", username)}})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if taken > 0 {
		return nil, apperrors.ErrDuplicateUsername
	}

	hash, err := hashPassword(username)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = username
	}
	user := &models.User{
		UID:            uuid.New(),
		Username:       username,
		PasswordHash:   hash,
		Name:           name,
		Role:           role,
		IsActive:       true,
		IsFirstLogin:   true,
		Avatar:         input.Avatar,
		SuspensionDate: input.SuspensionDate,
		RefreshID:      uuid.NewToken(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return nil, writeError(err)
	}

	if err := s.seedDefaults(ctx, user.UID); err != nil {
		logger.Get().Errorw("failed to seed defaults for new user", "error", err, "uid", user.UID)
		return nil, err
	}

	s.record(ctx, actor, models.ActionCreateUser, models.TargetDetails("Role: "+string(role), user.Name))
	return user, nil
}

// UpdateUser applies an admin edit and records a summary of what changed.
func (s *userService) UpdateUser(ctx context.Context, actor *models.User, uid string, input UpdateUserInput) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	var changes []string
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
		}
		if name != user.Name {
			changes = append(changes, fmt.Sprintf("name: %s -> %s", user.Name, name))
			user.Name = name
		}
	}
	if input.Role != nil && *input.Role != user.Role {
		if *input.Role != models.RoleUser && *input.Role != models.RoleAdmin {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be admin or user")
		}
		changes = append(changes, fmt.Sprintf("role: %s -> %s", user.Role, *input.Role))
		user.Role = *input.Role
	}
	if input.IsActive != nil && *input.IsActive != user.IsActive {
		changes = append(changes, fmt.Sprintf("active: %t -> %t", user.IsActive, *input.IsActive))
		user.IsActive = *input.IsActive
	}
	if input.Avatar != nil && *input.Avatar != user.Avatar {
		changes = append(changes, "avatar changed")
		user.Avatar = *input.Avatar
	}
	if input.SuspensionDate != nil && *input.SuspensionDate != user.SuspensionDate {
		if *input.SuspensionDate != "" && !calendar.Valid(*input.SuspensionDate) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "suspension date must be YYYY-MM-DD")
		}
		changes = append(changes, fmt.Sprintf("suspension date: %s -> %s", orLifetime(user.SuspensionDate), orLifetime(*input.SuspensionDate)))
		user.SuspensionDate = *input.SuspensionDate
	}

	if len(changes) == 0 {
		return user, nil
	}
	if err := s.store.Upsert(ctx, user); err != nil {
		return nil, writeError(err)
	}

	s.record(ctx, actor, models.ActionEditUser, models.TargetDetails(strings.Join(changes, ", "), user.Name))
	return user, nil
}

// DeleteUser permanently removes a user. Their categories, accounts and
// transactions are left in place.
func (s *userService) DeleteUser(ctx context.Context, actor *models.User, uid string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UID == uid {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "you cannot delete your own account")
	}
	user, err := s.GetUser(ctx, uid)
	if err != nil {
		return err
	}
	if _, err := s.store.Delete(ctx, &models.User{}, store.Query{Where: []store.Cond{store.Eq("uid", uid)}}); err != nil {
		return writeError(err)
	}

	s.record(ctx, actor, models.ActionDeleteUser, models.TargetDetails("Permanent delete", user.Name))
	return nil
}

// ResetPassword restores the default password and forces the first-login flow.
func (s *userService) ResetPassword(ctx context.Context, actor *models.User, uid string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(user.Username)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.IsFirstLogin = true
	if err := s.store.Upsert(ctx, user); err != nil {
		return nil, writeError(err)
	}

	s.record(ctx, actor, models.ActionEditUser, models.TargetDetails("Password reset", user.Name))
	return user, nil
}

// ForceRefresh rotates the user's reload token so their open session reloads.
func (s *userService) ForceRefresh(ctx context.Context, actor *models.User, uid string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	user.RefreshID = uuid.NewToken()
	if err := s.store.Upsert(ctx, user); err != nil {
		return nil, writeError(err)
	}

	s.record(ctx, actor, models.ActionEditUser, models.TargetDetails("Forced reload", user.Name))
	return user, nil
}

// UpdateProfile applies a self-service change and clears the first-login
// flag. A user still on the default password must choose a new one.
func (s *userService) UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) (*models.User, error) {
	if update.Password != "" || update.Confirm != "" {
		if err := ValidateNewPassword(update.Password, update.Confirm); err != nil {
			return nil, err
		}
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if update.Avatar != nil && !ValidAvatar(*update.Avatar) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported avatar")
	}

	user, err := s.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.IsFirstLogin && update.Password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a new password is required to finish the first login")
	}

	if update.Password != "" {
		hash, err := hashPassword(update.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	user.IsFirstLogin = false

	if err := s.store.Upsert(ctx, user); err != nil {
		return nil, writeError(err)
	}
	return user, nil
}

// ChangePassword sets a new password for uid.
func (s *userService) ChangePassword(ctx context.Context, uid, password, confirm string) (*models.User, error) {
	return s.UpdateProfile(ctx, uid, ProfileUpdate{Password: password, Confirm: confirm})
}

// EnsureAdmin creates an administrator unless the username already exists.
// With an empty password the admin starts on the first-login flow.
func (s *userService) EnsureAdmin(ctx context.Context, username, name, password string) (*models.User, bool, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "username is required")
	}

	existing, err := s.byUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, false, err
	}

	firstLogin := password == ""
	if firstLogin {
		password = username
	} else if err := ValidateNewPassword(password, password); err != nil {
		return nil, false, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = username
	}

	admin := &models.User{
		UID:          uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         models.RoleAdmin,
		IsActive:     true,
		IsFirstLogin: firstLogin,
		RefreshID:    uuid.NewToken(),
	}
	if err := s.store.Insert(ctx, admin); err != nil {
		return nil, false, writeError(err)
	}
	if err := s.seedDefaults(ctx, admin.UID); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}

func (s *userService) byUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.store.First(ctx, &user, store.Query{Where: []store.Cond{store.Eq("username", username)}}); err != nil {
		return nil, readError(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

func (s *userService) seedDefaults(ctx context.Context, uid string) error {
	categories := DefaultCategories(uid)
	if err := s.store.Insert(ctx, &categories); err != nil {
		return writeError(err)
	}
	accounts := DefaultAccounts(uid)
	if err := s.store.Insert(ctx, &accounts); err != nil {
		return writeError(err)
	}
	return nil
}

// record writes an audit entry. A failed audit write is logged and never
// undoes the action it describes.
func (s *userService) record(ctx context.Context, actor *models.User, action models.LogAction, details string) {
	if _, err := s.audit.Record(ctx, actor, action, details); err != nil {
		logger.Get().Warnw("audit entry not recorded", "error", err, "action", action)
	}
}

// verifyPassword compares in constant time. On first login, or when no hash
// is stored, the expected password is the username itself.
func verifyPassword(user *models.User, password string) bool {
	if user.IsFirstLogin || user.PasswordHash == "" {
		return subtle.ConstantTimeCompare([]byte(password), []byte(user.Username)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hash), nil
}

// ValidateNewPassword checks the length and confirmation of a new password.
func ValidateNewPassword(password, confirm string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperrors.ErrPasswordTooShort
	}
	if password != confirm {
		return apperrors.ErrPasswordMismatch
	}
	return nil
}

// ValidAvatar reports whether tag is a known avatar or empty.
func ValidAvatar(tag string) bool {
	return tag == "" || tag == models.AvatarMale || tag == models.AvatarFemale
}

func orLifetime(date string) string {
	if date == "" {
		return "lifetime"
	}
	return date
}
