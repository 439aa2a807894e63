package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace is a named, shareable text document with an independent lock state.
type Workspace struct {
	ID             uuid.UUID `gorm:"type:text;primary_key" json:"id"`
	Name           string    `gorm:"uniqueIndex;not null" json:"name"`
	Content        string    `gorm:"type:text;not null;default:''" json:"content"`
	Locked         bool      `gorm:"not null;default:false" json:"locked"`
	CredentialHash string    `gorm:"not null;default:''" json:"-"` // bcrypt, empty while unlocked
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName ensures GORM uses the "workspaces" table
func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate hook to generate UUID
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
