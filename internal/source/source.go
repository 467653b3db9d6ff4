// Package source fetches the raw content of the watch target.
package source

import (
	"context"
	"errors"

	"github.com/bassista/go_pagewatch/internal/target"
)

var (
	// ErrFetch wraps transport failures and HTTP error statuses.
	ErrFetch = errors.New("fetch failed")
	// ErrEmptyContent is returned when the page, or the selected part of it,
	// has no text. Empty content never becomes a baseline.
	ErrEmptyContent = errors.New("empty content")
	// ErrSelectorNoMatch is returned when the selector matches no element.
	ErrSelectorNoMatch = errors.New("selector matched nothing")
)

// Source returns the content to fingerprint. Implementations must return the
// bytes exactly as they will be compared, with no later re-encoding.
type Source interface {
	Fetch(ctx context.Context, t target.Target) ([]byte, error)
}
