package rbac

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEnforcer(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rbac.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, InitEnforcer(db, slog.Default()))
}

func TestAdminLifecycle(t *testing.T) {
	setupEnforcer(t)
	userID := uuid.New()

	isAdmin, err := IsAdmin(userID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	require.NoError(t, MakeAdmin(userID))
	isAdmin, err = IsAdmin(userID)
	require.NoError(t, err)
	assert.True(t, isAdmin)

	other, err := IsAdmin(uuid.New())
	require.NoError(t, err)
	assert.False(t, other, "admin role must not leak to other users")

	require.NoError(t, RevokeAdmin(userID))
	isAdmin, err = IsAdmin(userID)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}
