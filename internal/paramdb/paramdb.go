// Package paramdb provides the analysis-parameter key-value database the
// chain builder consults to freeze db.-prefixed argument tokens into
// constants. Lookups happen only at build time; nothing reads the database
// during block execution.
package paramdb

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by Lookup when a key is absent.
var ErrNotFound = errors.New("key not found")

// Database resolves a dotted key into a numeric value.
type Database interface {
	Lookup(key string) (float64, error)
}

// Static is an in-memory Database backed by a plain map.
type Static map[string]float64

// Lookup implements Database.
func (s Static) Lookup(key string) (float64, error) {
	v, ok := s[key]
	if !ok {
		return 0, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	return v, nil
}

// Empty is a Database with no keys, used when no database file was given.
type Empty struct{}

// Lookup implements Database.
func (Empty) Lookup(key string) (float64, error) {
	return 0, fmt.Errorf("%q: %w (no database configured)", key, ErrNotFound)
}
