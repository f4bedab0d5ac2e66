// Package token converts raw identifier bytes to and from the string tokens
// used on the wire. A token is the marker 'u' followed by the unpadded,
// URL-safe base64 encoding of the bytes.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Marker prefixes every encoded token.
const Marker = 'u'

// ErrMalformed is returned when a token is missing its marker, contains
// characters outside the URL-safe alphabet, or is not the canonical encoding
// of its bytes.
var ErrMalformed = errors.New("malformed token")

// Encode returns the token form of raw.
func Encode(raw []byte) string {
	return string(Marker) + base64.RawURLEncoding.EncodeToString(raw)
}

var encoding = base64.RawURLEncoding.Strict()

// Decode is the exact inverse of Encode. Every byte string has exactly one
// accepted token, so non-zero trailing bits and line breaks are rejected.
func Decode(s string) ([]byte, error) {
	if len(s) == 0 || s[0] != Marker {
		return nil, fmt.Errorf("%w: missing %q marker", ErrMalformed, Marker)
	}
	if strings.ContainsAny(s, "\r\n") {
		return nil, fmt.Errorf("%w: line break in token", ErrMalformed)
	}

	raw, err := encoding.DecodeString(s[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}
