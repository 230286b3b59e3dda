package models

import "time"

// SystemConfigID is the primary key of the singleton configuration row.
const SystemConfigID = 1

// SystemConfig is the global configuration shared by every client.
// Writes are last-writer-wins.
type SystemConfig struct {
	ID                 int       `gorm:"primaryKey;autoIncrement:false" json:"-"`
	SupportInfo        string    `json:"support_info"`
	MaintenanceMessage string    `json:"maintenance_message"`
	IsLoggingEnabled   bool      `gorm:"not null" json:"is_logging_enabled"`
	IsSystemLocked     bool      `gorm:"not null" json:"is_system_locked"`
	GlobalRefreshID    string    `json:"global_refresh_id,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (SystemConfig) TableName() string { return "system_config" }

// DefaultSystemConfig is used when the singleton row does not exist yet.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{ID: SystemConfigID, IsLoggingEnabled: true}
}

// LockMessage returns the text shown to users turned away by the system lock.
func (c *SystemConfig) LockMessage() string {
	if c.MaintenanceMessage != "" {
		return c.MaintenanceMessage
	}
	return "The system is under maintenance"
}

// All returns every model managed by the schema, in dependency order.
func All() []any {
	return []any{&User{}, &Category{}, &BankAccount{}, &Transaction{}, &SystemLog{}, &SystemConfig{}}
}
