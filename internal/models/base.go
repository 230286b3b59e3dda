package models

import (
	"time"

	"github.com/marcosbarbosa-dev/appfinance/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for owner-scoped collection tables.
// Rows are soft-deleted so transactions keep pointing at a removed
// category or account instead of breaking.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// PrimaryKey returns the row id.
func (b *Base) PrimaryKey() string { return b.ID }

// EnsureID assigns a UUIDv7 if the row has none yet. Callers that need the id
// before the insert (client mirrors, batch seeding) use it instead of the hook.
func (b *Base) EnsureID() string {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return b.ID
}

// ownedBy is the owned-or-shared visibility predicate shared by categories
// and bank accounts.
func ownedBy(owner *string, uid string) bool {
	return owner == nil || *owner == uid
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
