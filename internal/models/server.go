package models

import "time"

// ServerSetting is a key/value row for process-wide state that must survive
// restarts, such as the server's identity.
type ServerSetting struct {
	Key       string    `gorm:"primarykey;not null" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the settings table name stable across renames.
func (ServerSetting) TableName() string {
	return "server_settings"
}

// Known setting keys
const (
	SettingServerID    = "server_id"
	SettingLastVersion = "last_version" // version of the binary that last migrated the schema
)
