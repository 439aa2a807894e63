// Package store owns workspace records: identity, creation on first use,
// content writes, and the lock/unlock state machine with its admin override.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nebari-dev/codepad/internal/cache"
	"github.com/nebari-dev/codepad/internal/content"
	"github.com/nebari-dev/codepad/internal/models"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cacheKeyPrefix = "codepad:ws:"

// sharedLookupTimeout bounds a GetOrCreate lookup shared between callers.
// It runs detached from any one caller's context.
const sharedLookupTimeout = 30 * time.Second

var nameColumn = []clause.Column{{Name: "name"}}

// Summary is the listing view of a workspace, without content.
type Summary struct {
	Name      string    `json:"name"`
	Locked    bool      `json:"locked"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkspaceStore implements the workspace operations on top of a shared GORM
// handle. Every operation is a single statement or a single transaction, so
// concurrent callers need no extra locking: the unique index on name decides
// creation races and the last writer wins everywhere else.
type WorkspaceStore struct {
	db          *gorm.DB
	cache       cache.Cache
	cacheTTL    time.Duration
	generate    content.Generator
	lockedSaves bool
	hashCost    int
	logger      *slog.Logger

	creates singleflight.Group
	// writes counts committed writes. It is part of the singleflight key so
	// a lookup that began before a write is never shared with callers that
	// arrive after it.
	writes atomic.Uint64
}

// Option configures a WorkspaceStore.
type Option func(*WorkspaceStore)

// WithContentGenerator sets the policy that fills newly created workspaces.
func WithContentGenerator(gen content.Generator) Option {
	return func(s *WorkspaceStore) {
		if gen != nil {
			s.generate = gen
		}
	}
}

// WithCache enables the read cache for GetOrCreate. A nil cache disables it.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *WorkspaceStore) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLockedSaves makes Save reject writes to locked workspaces unless the
// caller is an administrator.
func WithLockedSaves(enforce bool) Option {
	return func(s *WorkspaceStore) {
		s.lockedSaves = enforce
	}
}

// WithHashCost overrides the bcrypt cost used for workspace credentials.
func WithHashCost(cost int) Option {
	return func(s *WorkspaceStore) {
		s.hashCost = cost
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *WorkspaceStore) {
		s.logger = logger
	}
}

// New creates a WorkspaceStore backed by db.
func New(db *gorm.DB, opts ...Option) *WorkspaceStore {
	s := &WorkspaceStore{
		db:       db,
		generate: content.Empty,
		hashCost: bcrypt.DefaultCost,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the named workspace, creating it with generated
// content and unlocked if it does not exist yet. Content is returned whether
// or not the workspace is locked. The returned record never carries the
// credential hash.
func (s *WorkspaceStore) GetOrCreate(ctx context.Context, name string) (*models.Workspace, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	if ws, ok := s.cached(ctx, name); ok {
		return ws, nil
	}

	// Read the cache version before the database so a write that lands in
	// between makes the fill below a no-op.
	version, fill := s.cacheVersion(ctx, name)

	key := name + "@" + strconv.FormatUint(s.writes.Load(), 10)
	ch := s.creates.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.getOrCreate(lookupCtx, name)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get workspace: %w", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// The singleflight result is shared between callers; hand out copies.
	ws := *res.Val.(*models.Workspace)
	ws.CredentialHash = ""
	if fill {
		s.remember(ctx, &ws, version)
	}
	return &ws, nil
}

func (s *WorkspaceStore) getOrCreate(ctx context.Context, name string) (*models.Workspace, error) {
	db := s.db.WithContext(ctx)

	ws, err := find(db, name)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, s.storageError(ctx, "get workspace", err)
	}

	created := &models.Workspace{Name: name, Content: s.generate()}
	result := db.Clauses(clause.OnConflict{Columns: nameColumn, DoNothing: true}).Create(created)
	if result.Error != nil {
		return nil, s.storageError(ctx, "create workspace", result.Error)
	}
	if result.RowsAffected == 1 {
		s.logger.Debug("Workspace created", "name", name)
		return created, nil
	}

	// Another writer created it between our read and insert.
	ws, err = find(db, name)
	if err != nil {
		return nil, s.storageError(ctx, "get workspace", err)
	}
	return ws, nil
}

// Save overwrites the content of the named workspace, creating it if absent,
// and reports whether the workspace was locked at the time of the write.
// The lock state is ignored unless the store enforces locked saves, in which
// case a non-admin save to a locked workspace fails with ErrLocked.
func (s *WorkspaceStore) Save(ctx context.Context, name, text string, isAdmin bool) (bool, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return false, err
	}

	guard := s.lockedSaves && !isAdmin
	var wasLocked bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted := tx.Clauses(clause.OnConflict{Columns: nameColumn, DoNothing: true}).
			Create(&models.Workspace{Name: name, Content: text})
		if inserted.Error != nil {
			return inserted.Error
		}
		if inserted.RowsAffected == 1 {
			return nil
		}

		ws, err := find(lockRow(tx), name)
		if err != nil {
			return err
		}
		wasLocked = ws.Locked
		if guard && ws.Locked {
			return ErrLocked
		}
		return tx.Model(&models.Workspace{}).Where("id = ?", ws.ID).Update("content", text).Error
	})
	if err != nil {
		return wasLocked, s.storageError(ctx, "save workspace", err)
	}

	s.written(ctx, name)
	return wasLocked, nil
}

// Lock locks the named workspace behind password, creating the workspace if
// absent. Locking an already locked workspace replaces its credential.
func (s *WorkspaceStore) Lock(ctx context.Context, name, password string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}

	hash, err := hashCredential(password, s.hashCost)
	if err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	updated := db.Model(&models.Workspace{}).
		Where("name = ?", name).
		Updates(map[string]any{"locked": true, "credential_hash": hash})
	if updated.Error != nil {
		return s.storageError(ctx, "lock workspace", updated.Error)
	}

	// Content is only generated for a workspace that does not exist yet. A
	// concurrent creator turns the insert into the same update.
	if updated.RowsAffected == 0 {
		ws := models.Workspace{
			Name:           name,
			Content:        s.generate(),
			Locked:         true,
			CredentialHash: hash,
		}
		err = db.Clauses(clause.OnConflict{
			Columns:   nameColumn,
			DoUpdates: clause.AssignmentColumns([]string{"locked", "credential_hash", "updated_at"}),
		}).Create(&ws).Error
		if err != nil {
			return s.storageError(ctx, "lock workspace", err)
		}
	}

	s.written(ctx, name)
	s.logger.Info("Workspace locked", "name", name)
	return nil
}

// Unlock unlocks the named workspace and returns its current content.
// Administrators bypass the credential check. Unlocking a workspace that is
// not locked succeeds without changes. The stored credential is cleared on
// unlock.
func (s *WorkspaceStore) Unlock(ctx context.Context, name, password string, isAdmin bool) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}

	var text string
	var changed bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ws, err := find(lockRow(tx), name)
		if err != nil {
			return err
		}
		text = ws.Content

		if !ws.Locked {
			return nil
		}
		if !isAdmin && !verifyCredential(ws.CredentialHash, password) {
			return ErrInvalidCredential
		}

		result := tx.Model(&models.Workspace{}).
			Where("id = ?", ws.ID).
			Updates(map[string]any{"locked": false, "credential_hash": ""})
		if result.Error != nil {
			return result.Error
		}
		changed = true
		return nil
	})
	if err != nil {
		return "", s.storageError(ctx, "unlock workspace", err)
	}

	if changed {
		s.written(ctx, name)
		s.logger.Info("Workspace unlocked", "name", name, "admin", isAdmin)
	}
	return text, nil
}

// List returns every workspace ordered by name.
func (s *WorkspaceStore) List(ctx context.Context) ([]Summary, error) {
	summaries := []Summary{}
	err := s.db.WithContext(ctx).
		Model(&models.Workspace{}).
		Select("name", "locked", "updated_at").
		Order("name").
		Scan(&summaries).Error
	if err != nil {
		return nil, s.storageError(ctx, "list workspaces", err)
	}
	return summaries, nil
}

// Ping reports whether the backing database is reachable.
func (s *WorkspaceStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func find(db *gorm.DB, name string) (*models.Workspace, error) {
	var ws models.Workspace
	if err := db.Where("name = ?", name).First(&ws).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

// lockRow takes a row lock for the rest of the transaction where the dialect
// supports it. SQLite serializes writers on its own.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// storageError passes store errors through and wraps driver errors, marking
// them ErrStorageUnavailable when the database cannot be reached. It must not
// be called while a transaction holds the only SQLite connection.
func (s *WorkspaceStore) storageError(ctx context.Context, op string, err error) error {
	if classified(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if transient(err) || s.unreachable(ctx) {
		s.logger.Warn("Workspace storage unavailable", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *WorkspaceStore) unreachable(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	return s.Ping(pingCtx) != nil
}

func (s *WorkspaceStore) cached(ctx context.Context, name string) (*models.Workspace, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, ok, err := s.cache.Get(ctx, cacheKeyPrefix+name)
	if err != nil {
		s.logger.Warn("Workspace cache read failed", "name", name, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var ws models.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		s.logger.Warn("Discarding undecodable cache entry", "name", name, "error", err)
		if err := s.cache.Delete(ctx, cacheKeyPrefix+name); err != nil {
			s.logger.Warn("Workspace cache delete failed", "name", name, "error", err)
		}
		return nil, false
	}
	return &ws, true
}

// cacheVersion reports the cache version to fill against and whether a fill
// should be attempted at all.
func (s *WorkspaceStore) cacheVersion(ctx context.Context, name string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.Version(ctx, cacheKeyPrefix+name)
	if err != nil {
		s.logger.Warn("Workspace cache version read failed", "name", name, "error", err)
		return 0, false
	}
	return version, true
}

func (s *WorkspaceStore) remember(ctx context.Context, ws *models.Workspace, version int64) {
	data, err := json.Marshal(ws)
	if err != nil {
		return
	}
	stored, err := s.cache.SetIfVersion(ctx, cacheKeyPrefix+ws.Name, version, data, s.cacheTTL)
	if err != nil {
		s.logger.Warn("Workspace cache write failed", "name", ws.Name, "error", err)
		return
	}
	if !stored {
		s.logger.Debug("Skipped cache fill after concurrent write", "name", ws.Name)
	}
}

// written records a committed write: later GetOrCreate calls start a fresh
// lookup and cached copies are invalidated.
func (s *WorkspaceStore) written(ctx context.Context, name string) {
	s.writes.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), cacheKeyPrefix+name); err != nil {
		s.logger.Warn("Workspace cache invalidation failed", "name", name, "error", err)
	}
}
