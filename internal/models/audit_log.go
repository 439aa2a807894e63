package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records lock, unlock and admin actions against workspaces
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uuid.UUID `gorm:"type:text;index" json:"user_id"` // uuid.Nil for anonymous callers
	Action      string    `gorm:"not null;index" json:"action"`   // e.g., "lock_workspace", "admin_unlock_workspace"
	Resource    string    `gorm:"not null" json:"resource"`       // e.g., "workspace:snippet-42"
	DetailsJSON string    `gorm:"type:text" json:"details_json"`
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
