package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the referenced workspace does not exist. Only
	// Unlock can return it; every other operation creates on first use.
	ErrNotFound = errors.New("workspace not found")

	// ErrInvalidCredential is returned for every failed non-admin unlock,
	// whatever the underlying cause.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrLocked is returned by Save when locked saves are enforced and the
	// caller is not an administrator.
	ErrLocked = errors.New("workspace is locked")

	// ErrStorageUnavailable marks a transient backend failure. Callers may
	// retry the whole request.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError represents a bad-request condition (HTTP 400).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// classified reports whether err already carries a store error kind.
func classified(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrStorageUnavailable) ||
		errors.As(err, &ve)
}

// transient reports whether the driver error means the backend could not be
// reached, as opposed to rejecting the statement.
func transient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
