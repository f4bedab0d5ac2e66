// Package agent defines the identity of a directory participant.
package agent

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/directory/token"
)

// ID is an opaque, immutable agent identifier. The underlying string holds
// the raw identifier bytes, which keeps IDs comparable and usable as map keys.
type ID string

// FromBytes wraps raw identifier bytes.
func FromBytes(raw []byte) ID {
	return ID(raw)
}

// Parse decodes a transport token produced by ID.String.
func Parse(s string) (ID, error) {
	raw, err := token.Decode(s)
	if err != nil {
		return "", err
	}
	return ID(raw), nil
}

// New returns a freshly generated random identifier. Agent identifiers are
// normally assigned outside the directory; New serves CLIs and tests.
func New() ID {
	u := uuid.New()
	return ID(u[:])
}

// Bytes returns a copy of the raw identifier bytes.
func (id ID) Bytes() []byte {
	return []byte(id)
}

// String returns the transport token form of the identifier.
func (id ID) String() string {
	return token.Encode([]byte(id))
}

func (id ID) IsZero() bool {
	return len(id) == 0
}

// Compare orders identifiers bytewise. This is the canonical ordering of every
// directory listing.
func Compare(a, b ID) int {
	return strings.Compare(string(a), string(b))
}
