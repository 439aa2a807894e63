package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nebari-dev/codepad/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSettingNotFound is returned when a server setting has never been written.
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting reads a server setting by key.
func GetSetting(db *gorm.DB, key string) (string, error) {
	var setting models.ServerSetting
	err := db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to query server setting %q: %w", key, err)
	}
	return setting.Value, nil
}

// PutSetting writes a server setting, replacing any previous value.
func PutSetting(db *gorm.DB, key, value string) error {
	setting := models.ServerSetting{Key: key, Value: value}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write server setting %q: %w", key, err)
	}
	return nil
}

// GetOrCreateServerID returns the persistent server ID, generating one on
// first start. Concurrent first starts converge on a single stored value.
func GetOrCreateServerID(db *gorm.DB) (string, error) {
	id, err := GetSetting(db, models.SettingServerID)
	if err == nil {
		slog.Info("Found existing server ID", "server_id", id)
		return id, nil
	}
	if !errors.Is(err, ErrSettingNotFound) {
		return "", err
	}

	setting := models.ServerSetting{Key: models.SettingServerID, Value: uuid.New().String()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to create server ID: %w", err)
	}

	id, err = GetSetting(db, models.SettingServerID)
	if err != nil {
		return "", err
	}
	slog.Info("Generated new server ID", "server_id", id)
	return id, nil
}

// GetServerID retrieves the server ID. It fails if the ID was never initialized.
func GetServerID(db *gorm.DB) (string, error) {
	id, err := GetSetting(db, models.SettingServerID)
	if errors.Is(err, ErrSettingNotFound) {
		return "", fmt.Errorf("server ID not initialized")
	}
	return id, err
}
