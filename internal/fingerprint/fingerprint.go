// Package fingerprint computes the fixed-length digest used as a proxy for
// content equality between watch cycles.
//
// The digest is MD5 rendered as lowercase hex. It is a change-detection
// heuristic, not a security property, and the canonical text form is what the
// state store persists.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Size is the length of a Hash in bytes.
const Size = md5.Size

// ErrInvalid is returned when a stored value is not a canonical hash.
var ErrInvalid = errors.New("invalid fingerprint")

// Hash is the digest of one content snapshot.
type Hash [Size]byte

// Of hashes the exact bytes it is given. No normalization is applied.
func Of(content []byte) Hash {
	return md5.Sum(content)
}

// Parse reads the canonical hex form. Surrounding whitespace is ignored.
func Parse(s string) (Hash, error) {
	var h Hash
	s = strings.TrimSpace(s)
	if len(s) != hex.EncodedLen(Size) {
		return h, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalid, hex.EncodedLen(Size), len(s))
	}
	if _, err := hex.Decode(h[:], []byte(strings.ToLower(s))); err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return h, nil
}

// String returns the canonical lowercase hex representation.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
