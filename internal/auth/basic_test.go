package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/nebari-dev/codepad/internal/models"
	"github.com/nebari-dev/codepad/internal/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAuth(t *testing.T) (*BasicAuthenticator, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	require.NoError(t, rbac.InitEnforcer(db, slog.Default()))

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	user := &models.User{Username: "admin", Email: "admin@example.com", PasswordHash: hash}
	require.NoError(t, db.Create(user).Error)

	return NewBasicAuthenticator(db, "test-secret"), user
}

// callThrough runs mw and reports the status plus whether an admin was seen.
func callThrough(mw gin.HandlerFunc, header string) (int, bool) {
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": IsAdmin(c)})
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w.Code, w.Code == http.StatusOK && w.Body.String() == `{"admin":true}`
}

func TestLogin(t *testing.T) {
	a, user := setupAuth(t)

	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	_, err = a.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Login("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	a, _ := setupAuth(t)
	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)

	code, _ := callThrough(a.Middleware(), "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = callThrough(a.Middleware(), "Token abc")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = callThrough(a.Middleware(), "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = callThrough(a.Middleware(), "Bearer "+resp.Token)
	assert.Equal(t, http.StatusOK, code)
}

func TestOptionalMiddleware(t *testing.T) {
	a, user := setupAuth(t)
	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)

	code, admin := callThrough(a.OptionalMiddleware(), "")
	assert.Equal(t, http.StatusOK, code, "anonymous requests pass")
	assert.False(t, admin)

	code, admin = callThrough(a.OptionalMiddleware(), "Bearer "+resp.Token)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, admin, "logged in but not granted admin")

	require.NoError(t, rbac.MakeAdmin(user.ID))
	code, admin = callThrough(a.OptionalMiddleware(), "Bearer "+resp.Token)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, admin)

	code, _ = callThrough(a.OptionalMiddleware(), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestExpiredToken(t *testing.T) {
	a, _ := setupAuth(t)
	a.now = func() time.Time { return time.Now().Add(-2 * TokenDuration) }
	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)

	code, _ := callThrough(a.Middleware(), "Bearer "+resp.Token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestForeignSecretRejected(t *testing.T) {
	a, _ := setupAuth(t)
	resp, err := a.Login("admin", "s3cret")
	require.NoError(t, err)

	other := NewBasicAuthenticator(a.db, "other-secret")
	code, _ := callThrough(other.Middleware(), "Bearer "+resp.Token)
	assert.Equal(t, http.StatusUnauthorized, code)
}
