package record

import (
	"crypto/sha256"
	"fmt"

	"github.com/tailored-agentic-units/directory/token"
)

// Hash is the SHA-256 content address of an encoded Version.
type Hash [sha256.Size]byte

// String returns the transport token form of the hash.
func (h Hash) String() string {
	return token.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a hash from its token form.
func ParseHash(s string) (Hash, error) {
	raw, err := token.Decode(s)
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(raw)
}

// HashFromBytes converts a raw digest into a Hash.
func HashFromBytes(raw []byte) (Hash, error) {
	var h Hash
	if len(raw) != len(h) {
		return Hash{}, fmt.Errorf("%w: hash length %d", ErrCorrupt, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}
