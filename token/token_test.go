package token_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/directory/token"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "empty", raw: nil, want: "u"},
		{name: "single byte", raw: []byte{0xfb}, want: "u-w"},
		{name: "url safe alphabet", raw: []byte{0xfb, 0xff, 0xbf}, want: "u-_-_"},
		{name: "ascii", raw: []byte("agent"), want: "uYWdlbnQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := token.Encode(tt.raw); got != tt.want {
				t.Errorf("Encode(%v) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	for n := range 40 {
		raw := make([]byte, n)
		for i := range raw {
			raw[i] = byte(i*37 + n)
		}

		got, err := token.Decode(token.Encode(raw))
		if err != nil {
			t.Fatalf("Decode() length %d error = %v", n, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("round trip length %d = %v, want %v", n, got, raw)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing marker", input: "YWdlbnQ"},
		{name: "wrong marker", input: "zYWdlbnQ"},
		{name: "padding", input: "uYQ=="},
		{name: "standard alphabet", input: "u+/8"},
		{name: "non-zero trailing bits", input: "uAB"},
		{name: "newline", input: "uA\nA"},
		{name: "carriage return", input: "uAA\r"},
		{name: "dangling character", input: "uAAAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.Decode(tt.input)
			if !errors.Is(err, token.ErrMalformed) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}
