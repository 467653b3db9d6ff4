// Package detector classifies a watch cycle by comparing the fingerprint of
// the freshly fetched content with the stored baseline. It performs no I/O.
package detector

import "github.com/bassista/go_pagewatch/internal/fingerprint"

// Outcome is the classification of one watch cycle.
type Outcome int

const (
	// NoBaseline means nothing was stored yet: this is the first observation.
	NoBaseline Outcome = iota + 1
	Unchanged
	Changed
	// FetchFailed means no usable snapshot was obtained. Empty content counts
	// as a failed fetch so that it never becomes the baseline.
	FetchFailed
)

func (o Outcome) String() string {
	switch o {
	case NoBaseline:
		return "no_baseline"
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case FetchFailed:
		return "fetch_failed"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Decide compares current against the previous baseline.
// hasPrevious is false when the state store holds no value.
func Decide(previous fingerprint.Hash, hasPrevious bool, current fingerprint.Hash) Outcome {
	if !hasPrevious {
		return NoBaseline
	}
	if previous != current {
		return Changed
	}
	return Unchanged
}
