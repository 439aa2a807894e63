package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nebari-dev/codepad/internal/auth"
	"github.com/nebari-dev/codepad/internal/config"
	"github.com/nebari-dev/codepad/internal/db"
	"github.com/nebari-dev/codepad/internal/models"
	"github.com/nebari-dev/codepad/internal/rbac"
	"github.com/nebari-dev/codepad/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "development", RequestTimeout: 5 * time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "codepad.db"), LogLevel: "silent"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	database, err := db.New(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(database) })
	require.NoError(t, db.Migrate(database))
	require.NoError(t, rbac.InitEnforcer(database, slog.Default()))
	require.NoError(t, db.CreateDefaultAdmin(database, db.AdminSeed{Username: "admin", Password: "admin-pw"}))
	_, err = db.GetOrCreateServerID(database)
	require.NoError(t, err)

	ws := store.New(database,
		store.WithHashCost(bcrypt.MinCost),
		store.WithLockedSaves(cfg.Workspace.EnforceLockOnSave),
	)
	authenticator := auth.NewBasicAuthenticator(database, cfg.Auth.JWTSecret)
	router := NewRouter(cfg, database, ws, authenticator, slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, server: srv}
}

func (s *testServer) do(method, path, body string, admin bool) (int, map[string]any) {
	s.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+s.login())
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(s.t, json.Unmarshal(raw, &out))
	} else if len(raw) > 0 {
		out["_raw"] = string(raw)
	}
	return resp.StatusCode, out
}

func (s *testServer) login() string {
	s.t.Helper()
	if s.token != "" {
		return s.token
	}
	code, body := s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"admin-pw"}`, false)
	require.Equal(s.t, http.StatusOK, code)
	s.token = body["token"].(string)
	return s.token
}

func TestWorkspaceLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(http.MethodGet, "/api/v1/workspaces/demo", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "demo", body["name"])
	assert.Equal(t, false, body["locked"])

	code, body = s.do(http.MethodPost, "/api/v1/workspaces/demo", `{"content":"hello"}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "saved", body["status"])

	code, body = s.do(http.MethodPost, "/api/v1/workspaces/demo/lock", `{"password":"pw"}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "locked", body["status"])

	code, body = s.do(http.MethodGet, "/api/v1/workspaces/demo", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["locked"])
	assert.Equal(t, "hello", body["content"])

	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/demo/unlock", `{"password":"nope"}`, false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = s.do(http.MethodPost, "/api/v1/workspaces/demo/unlock", `{"password":"pw"}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "unlocked", body["status"])
	assert.Equal(t, "hello", body["content"])
}

func TestWorkspaceErrors(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(http.MethodPost, "/api/v1/workspaces/ghost/unlock", `{"password":"pw"}`, false)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/demo/lock", `{"password":""}`, false)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/v1/workspaces/"+strings.Repeat("x", store.MaxNameLength+1), "", false)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/v1/workspaces/demo", "", false)
	require.Equal(t, http.StatusOK, code)
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/workspaces/demo", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer forged")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "a bad token is rejected, not ignored")
}

func TestAdminOverride(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Workspace.EnforceLockOnSave = true
		cfg.Workspace.HideLockedContent = true
	})

	code, _ := s.do(http.MethodPost, "/api/v1/workspaces/vault", `{"content":"top secret"}`, false)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/vault/lock", `{"password":"pw"}`, false)
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(http.MethodGet, "/api/v1/workspaces/vault", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "", body["content"], "locked content is hidden from anonymous callers")

	code, body = s.do(http.MethodGet, "/api/v1/workspaces/vault", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "top secret", body["content"])

	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/vault", `{"content":"defaced"}`, false)
	assert.Equal(t, http.StatusLocked, code)

	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/vault", `{"content":"edited by admin"}`, true)
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(http.MethodPost, "/api/v1/workspaces/vault/unlock", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "edited by admin", body["content"])

	assert.Equal(t, []string{"admin_unlock_workspace", "admin_save_locked_workspace", "lock_workspace"}, s.auditActions("vault"))
}

func (s *testServer) auditActions(workspace string) []string {
	s.t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/admin/audit-logs?workspace="+workspace, nil)
	require.NoError(s.t, err)
	req.Header.Set("Authorization", "Bearer "+s.login())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var logs []models.AuditLog
	require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&logs))
	actions := make([]string, len(logs))
	for i, l := range logs {
		actions[i] = l.Action
	}
	return actions
}

func TestAdminSaveAuditsOnlyLockedWrites(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(http.MethodPost, "/api/v1/workspaces/open", `{"content":"admin text"}`, true)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, s.auditActions("open"), "saving an unlocked workspace is not an override")

	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/shut/lock", `{"password":"pw"}`, false)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/shut", `{"content":"anonymous text"}`, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"lock_workspace"}, s.auditActions("shut"), "only admin writes over a lock are audited")

	code, _ = s.do(http.MethodPost, "/api/v1/workspaces/shut", `{"content":"admin text"}`, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"admin_save_locked_workspace", "lock_workspace"}, s.auditActions("shut"))
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(http.MethodGet, "/api/v1/admin/workspaces", "", false)
	assert.Equal(t, http.StatusUnauthorized, code)

	s.do(http.MethodGet, "/api/v1/workspaces/b", "", false)
	s.do(http.MethodGet, "/api/v1/workspaces/a", "", false)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/v1/admin/workspaces", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.login())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0]["name"])

	code, body := s.do(http.MethodGet, "/api/v1/auth/me", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "admin", body["username"])
	assert.Equal(t, true, body["is_admin"])
}

func TestSystemRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	code, body := s.do(http.MethodGet, "/api/v1/health", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, body = s.do(http.MethodGet, "/api/v1/info", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["server_id"])

	code, body = s.do(http.MethodGet, "/api/v1/random-name", "", false)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["name"])

	code, _ = s.do(http.MethodOptions, "/api/v1/workspaces/demo", "", false)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = s.do(http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, code)
}
