package domain

import (
	"fmt"
	"strings"
)

// Collections used by the application.
const (
	CollectionUsers  = "users"
	CollectionTokens = "tokens"
	CollectionChecks = "checks"
)

// ValidateName reports whether s can be used as a collection or document key.
// Names become path segments in the file store, so separators, NUL bytes and
// leading dots are rejected.
func ValidateName(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty name: %w", ErrInvalidKey)
	case strings.HasPrefix(s, "."):
		return fmt.Errorf("name %q starts with a dot: %w", s, ErrInvalidKey)
	case strings.ContainsAny(s, "/\\\x00"):
		return fmt.Errorf("name %q contains a separator: %w", s, ErrInvalidKey)
	}
	return nil
}
