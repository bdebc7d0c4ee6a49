package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a trade key or symbol that was required but absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey signals an attempt to create a trade under an existing key.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotLoggedIn signals an operation that needs an authenticated broker
	// session before one exists. Fatal to the operation, not the process.
	ErrNotLoggedIn = errors.New("not logged in")
)

// ConfigurationError is raised at construction time for malformed time zones or
// session boundaries. Startup fails fast on it.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}
