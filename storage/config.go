package storage

import (
	"fmt"
	"strings"
)

// Config locates a collection: a persistence directory and a collection name
// within it.
type Config struct {
	PersistDir string
	Collection string
}

// Validate checks that the persistence location and collection are usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.PersistDir) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPersistDir)
	}
	return ValidateCollection(c.Collection)
}

// ValidateCollection checks a collection name. Names are non-empty and may
// not contain ':' or whitespace, since they become part of storage keys.
func ValidateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCollection)
	}
	if strings.ContainsAny(name, ": \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}
