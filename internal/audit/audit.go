package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nebari-dev/codepad/internal/models"
	"gorm.io/gorm"
)

// Audit action constants
const (
	ActionLockWorkspace         = "lock_workspace"
	ActionUnlockWorkspace       = "unlock_workspace"
	ActionUnlockWorkspaceFailed = "unlock_workspace_failed"
	ActionAdminUnlockWorkspace  = "admin_unlock_workspace"
	ActionAdminSaveLocked       = "admin_save_locked_workspace"
	ActionLogin                 = "login"
	ActionLoginFailed           = "login_failed"
)

// WorkspaceResource formats the resource string for a workspace name.
func WorkspaceResource(name string) string {
	return fmt.Sprintf("workspace:%s", name)
}

// LogAction records an audit log entry. userID is uuid.Nil for anonymous callers.
func LogAction(db *gorm.DB, userID uuid.UUID, action, resource string, details any) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil || details == nil {
		detailsJSON = []byte("{}")
	}

	entry := models.AuditLog{
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		DetailsJSON: string(detailsJSON),
		Timestamp:   time.Now().UTC(),
	}

	return db.Create(&entry).Error
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Action   string
	Resource string
	Limit    int
}

// List returns audit entries, newest first.
func List(db *gorm.DB, f Filter) ([]models.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := db.Model(&models.AuditLog{})
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.Resource != "" {
		query = query.Where("resource = ?", f.Resource)
	}

	logs := []models.AuditLog{}
	if err := query.Order("timestamp DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
