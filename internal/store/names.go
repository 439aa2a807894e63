package store

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest workspace name accepted, in runes.
const MaxNameLength = 128

// NormalizeName returns the canonical form of a workspace name. Names are
// trimmed and NFC-normalized so that visually identical names address the
// same workspace.
func NormalizeName(name string) (string, error) {
	if !utf8.ValidString(name) {
		return "", &ValidationError{Message: "workspace name must be valid UTF-8"}
	}

	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", &ValidationError{Message: "workspace name is required"}
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return "", &ValidationError{Message: fmt.Sprintf("workspace name is %d characters, maximum is %d", n, MaxNameLength)}
	}
	if name == "." || name == ".." {
		return "", &ValidationError{Message: "workspace name cannot be . or .."}
	}
	for _, r := range name {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return "", &ValidationError{Message: fmt.Sprintf("workspace name contains invalid character %q", r)}
		}
	}

	return name, nil
}
