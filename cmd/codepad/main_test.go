package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// fakeServer is an in-memory stand-in for the codepad API.
type fakeServer struct {
	mu      sync.Mutex
	content map[string]string
	locked  map[string]string
	tokens  []string
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	fs := &fakeServer{content: map[string]string{}, locked: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "admin-pw" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": "jwt-123", "user": map[string]string{"username": req["username"]}})
	})
	mux.HandleFunc("GET /api/v1/workspaces/{name}", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		fs.tokens = append(fs.tokens, r.Header.Get("Authorization"))
		name := r.PathValue("name")
		_, locked := fs.locked[name]
		json.NewEncoder(w).Encode(map[string]any{"name": name, "content": fs.content[name], "locked": locked})
	})
	mux.HandleFunc("POST /api/v1/workspaces/{name}", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		fs.mu.Lock()
		fs.content[r.PathValue("name")] = req["content"]
		fs.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": "saved"})
	})
	mux.HandleFunc("POST /api/v1/workspaces/{name}/lock", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		fs.mu.Lock()
		fs.locked[r.PathValue("name")] = req["password"]
		fs.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": "locked"})
	})
	mux.HandleFunc("POST /api/v1/workspaces/{name}/unlock", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		fs.mu.Lock()
		defer fs.mu.Unlock()
		name := r.PathValue("name")
		if pw, ok := fs.locked[name]; ok && pw != req["password"] {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid password"})
			return
		}
		delete(fs.locked, name)
		json.NewEncoder(w).Encode(map[string]string{"status": "unlocked", "content": fs.content[name]})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fs, srv
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setupCLI(t *testing.T, serverURL string) string {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("CODEPAD_CONFIG_DIR", dir)
	t.Setenv("CODEPAD_TOKEN", "")
	t.Setenv("CODEPAD_SERVER_URL", serverURL)
	return dir
}

func TestCLI_SaveGetLockUnlock(t *testing.T) {
	fs, srv := newFakeServer(t)
	setupCLI(t, srv.URL)

	file := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0644))

	_, err := execute(t, "", "save", "notes", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "from file", fs.content["notes"])

	_, err = execute(t, "from stdin", "save", "notes")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", fs.content["notes"])

	out, err := execute(t, "", "get", "notes")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", out)

	_, err = execute(t, "pw\npw\n", "lock", "notes")
	require.NoError(t, err)
	assert.Equal(t, "pw", fs.locked["notes"])

	out, err = execute(t, "", "get", "notes", "-o", "json")
	require.NoError(t, err)
	var ws map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &ws))
	assert.Equal(t, true, ws["locked"])

	_, err = execute(t, "", "unlock", "notes", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong password")

	out, err = execute(t, "pw\n", "unlock", "notes")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", out)
	assert.Empty(t, fs.locked)
}

func TestCLI_LockRejectsMismatchedConfirmation(t *testing.T) {
	fs, srv := newFakeServer(t)
	setupCLI(t, srv.URL)

	_, err := execute(t, "one\ntwo\n", "lock", "notes")
	require.Error(t, err)
	assert.Empty(t, fs.locked)
}

func TestCLI_LoginStoresToken(t *testing.T) {
	fs, srv := newFakeServer(t)
	dir := setupCLI(t, "")

	_, err := execute(t, "admin\nadmin-pw\n", "login", srv.URL)
	require.NoError(t, err)

	token, err := keyring.Get("codepad", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "jwt-123", token)

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	var cfg CLIConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, srv.URL, cfg.ServerURL)
	assert.Equal(t, "admin", cfg.Username)

	_, err = execute(t, "", "get", "notes")
	require.NoError(t, err)
	assert.Equal(t, "Bearer jwt-123", fs.tokens[len(fs.tokens)-1])

	_, err = execute(t, "", "logout")
	require.NoError(t, err)
	_, err = keyring.Get("codepad", srv.URL)
	assert.ErrorIs(t, err, keyring.ErrNotFound)

	_, err = execute(t, "", "get", "notes")
	require.NoError(t, err)
	assert.Empty(t, fs.tokens[len(fs.tokens)-1], "requests are anonymous after logout")
}

func TestCLI_LoginFailure(t *testing.T) {
	_, srv := newFakeServer(t)
	setupCLI(t, "")

	_, err := execute(t, "admin\nnope\n", "login", srv.URL)
	require.Error(t, err)

	_, err = execute(t, "", "login", "ftp://example.com", "--token", "x")
	assert.Error(t, err)
}

func TestCLI_OutputValidation(t *testing.T) {
	setupCLI(t, "http://127.0.0.1:1")

	_, err := execute(t, "", "version", "-o", "xml")
	assert.Error(t, err)

	out, err := execute(t, "", "version", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "version: dev\n", out)
}

func TestReadLine(t *testing.T) {
	r := strings.NewReader("first\r\nsecond\n")
	line, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	_, err = readLine(r)
	assert.Error(t, err)
}
