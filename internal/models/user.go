package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/marcosbarbosa-dev/appfinance/internal/uuid"

	"gorm.io/gorm"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Avatar tags accepted on profile updates.
const (
	AvatarMale   = "male_shadow"
	AvatarFemale = "female_shadow"
)

// User represents an account able to sign in.
type User struct {
	UID            string    `gorm:"column:uid;type:uuid;primaryKey" json:"uid"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash   string    `gorm:"column:password_hash" json:"-"`
	Name           string    `gorm:"not null" json:"name"`
	Role           Role      `gorm:"not null" json:"role"`
	IsActive       bool      `gorm:"not null" json:"is_active"`
	IsFirstLogin   bool      `gorm:"not null" json:"is_first_login"`
	Avatar         string    `json:"avatar,omitempty"`
	SuspensionDate string    `gorm:"size:10" json:"suspension_date,omitempty"`
	RefreshID      string    `gorm:"column:refresh_id" json:"refresh_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName pins the table name used by the store and migrations.
func (User) TableName() string { return "users" }

// BeforeCreate hook generates a UUIDv7 uid for new users
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UID == "" {
		u.UID = uuid.New()
	}
	return nil
}

// PrimaryKey returns the user's uid.
func (u *User) PrimaryKey() string { return u.UID }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// SuspendedOn reports whether the suspension date has been reached on today
// (YYYY-MM-DD). Admins are never date-suspended.
func (u *User) SuspendedOn(today string) bool {
	if u.IsAdmin() || u.SuspensionDate == "" {
		return false
	}
	return today >= u.SuspensionDate
}

// Blocked reports whether the user may not sign in on today, either because an
// admin disabled the account or because the licensing window ended.
func (u *User) Blocked(today string) bool {
	return !u.IsActive || u.SuspendedOn(today)
}

// NormalizeUsername lower-cases a username and strips every whitespace rune.
func NormalizeUsername(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(s))
}
