package db

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nebari-dev/codepad/internal/models"
	"github.com/nebari-dev/codepad/internal/rbac"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminSeed describes the bootstrap administrator account.
type AdminSeed struct {
	Username string
	Password string
	Email    string
}

// AdminSeedFromEnv reads ADMIN_USERNAME, ADMIN_PASSWORD and ADMIN_EMAIL.
func AdminSeedFromEnv() AdminSeed {
	return AdminSeed{
		Username: os.Getenv("ADMIN_USERNAME"),
		Password: os.Getenv("ADMIN_PASSWORD"),
		Email:    os.Getenv("ADMIN_EMAIL"),
	}
}

// CreateDefaultAdmin creates the seed admin when credentials are provided
// and no users exist yet. The RBAC enforcer must already be initialized.
func CreateDefaultAdmin(db *gorm.DB, seed AdminSeed) error {
	if seed.Username == "" || seed.Password == "" {
		slog.Info("No ADMIN_USERNAME or ADMIN_PASSWORD set, skipping default admin creation")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		slog.Info("Users already exist, skipping default admin creation")
		return nil
	}

	if _, err := CreateAdmin(db, seed); err != nil {
		return err
	}

	slog.Info("Default admin user created", "username", seed.Username)
	return nil
}

// CreateAdmin creates an operator account and grants it the admin role.
// The RBAC enforcer must already be initialized.
func CreateAdmin(db *gorm.DB, seed AdminSeed) (*models.User, error) {
	if seed.Username == "" || seed.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	email := seed.Email
	if email == "" {
		email = fmt.Sprintf("%s@codepad.local", seed.Username)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     seed.Username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := rbac.MakeAdmin(user.ID); err != nil {
		return nil, fmt.Errorf("failed to grant admin role: %w", err)
	}

	return &user, nil
}
