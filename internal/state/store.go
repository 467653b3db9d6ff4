// Package state persists the baseline fingerprint of the watch target.
//
// There is exactly one logical slot per target. A missing value is the normal
// first-run state and is reported as (zero, false, nil), never as an error.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_pagewatch/internal/fingerprint"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// ErrInvalidState is returned when a stored value cannot be read back as a fingerprint.
var ErrInvalidState = errors.New("invalid stored state")

// Loader reads the baseline. ok is false when nothing has been stored yet.
type Loader interface {
	Load(ctx context.Context) (h fingerprint.Hash, ok bool, err error)
}

// Saver replaces the baseline. Readers never observe a partially written value.
type Saver interface {
	Save(ctx context.Context, h fingerprint.Hash) error
}

// Store is the full contract of a baseline backend.
type Store interface {
	Loader
	Saver
	Close() error
}

// NewStoreFromConfig opens the backend selected by driver.
// path is the file or database location, key identifies the target inside
// backends that can hold several slots.
func NewStoreFromConfig(driver, path, key string) (Store, error) {
	switch driver {
	case DriverFile, "":
		return NewFileStore(path)
	case DriverSQLite, "sqlite3":
		return NewSQLiteStore(path, key)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state driver: %s (supported: %s, %s, %s)", driver, DriverFile, DriverSQLite, DriverMemory)
	}
}
