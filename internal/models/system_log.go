package models

import (
	"time"

	"github.com/marcosbarbosa-dev/appfinance/internal/uuid"

	"gorm.io/gorm"
)

// LogAction tags an audited admin action.
type LogAction string

const (
	ActionLogin      LogAction = "login"
	ActionLogout     LogAction = "logout"
	ActionCreateUser LogAction = "create_user"
	ActionEditUser   LogAction = "edit_user"
	ActionDeleteUser LogAction = "delete_user"
)

// SystemLog records an admin action. UserName is copied at write time so
// renaming the admin later leaves history as it was.
type SystemLog struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	UserName  string    `gorm:"not null" json:"user_name"`
	Action    LogAction `gorm:"not null" json:"action"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

func (SystemLog) TableName() string { return "logs" }

// BeforeCreate hook generates a UUIDv7 for new entries
func (l *SystemLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New()
	}
	return nil
}

// PrimaryKey returns the entry id.
func (l *SystemLog) PrimaryKey() string { return l.ID }

// TargetDetails formats the details column as "<summary> | Target user: <name>".
func TargetDetails(summary, target string) string {
	if target == "" {
		return summary
	}
	if summary == "" {
		return "Target user: " + target
	}
	return summary + " | Target user: " + target
}
