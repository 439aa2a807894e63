// Package rbac holds the Casbin enforcer that decides who may act as an
// administrator. Policies live in the application database.
package rbac

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelConf string

const (
	adminObject = "admin"
	adminAction = "admin"
)

// ErrNotInitialized is returned when a check runs before InitEnforcer.
var ErrNotInitialized = errors.New("rbac: enforcer not initialized")

var enforcer *casbin.Enforcer

// InitEnforcer initializes the Casbin enforcer
func InitEnforcer(db *gorm.DB, logger *slog.Logger) error {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return fmt.Errorf("failed to parse casbin model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := e.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	enforcer = e
	logger.Info("RBAC enforcer initialized")
	return nil
}

// IsAdmin checks if user has admin privileges
func IsAdmin(userID uuid.UUID) (bool, error) {
	if enforcer == nil {
		return false, ErrNotInitialized
	}
	return enforcer.Enforce(userID.String(), adminObject, adminAction)
}

// MakeAdmin grants admin privileges to a user
func MakeAdmin(userID uuid.UUID) error {
	if enforcer == nil {
		return ErrNotInitialized
	}
	if _, err := enforcer.AddPolicy(userID.String(), adminObject, adminAction); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}

// RevokeAdmin removes admin privileges from a user
func RevokeAdmin(userID uuid.UUID) error {
	if enforcer == nil {
		return ErrNotInitialized
	}
	if _, err := enforcer.RemovePolicy(userID.String(), adminObject, adminAction); err != nil {
		return err
	}
	return enforcer.SavePolicy()
}
