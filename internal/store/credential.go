package store

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCredential returns a salted bcrypt hash of password.
func hashCredential(password string, cost int) (string, error) {
	if password == "" {
		return "", &ValidationError{Message: "password is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", &ValidationError{Message: "password must be at most 72 bytes"}
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// verifyCredential compares password against a stored hash. An empty hash
// never matches.
func verifyCredential(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
