package record_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/directory/record"
)

func TestInput_Validate(t *testing.T) {
	manyFields := make(map[string]string)
	for i := range 65 {
		manyFields[fmt.Sprintf("k%d", i)] = "v"
	}

	tests := []struct {
		name    string
		input   record.Input
		wantErr bool
	}{
		{name: "minimal", input: record.Input{Nickname: "ali"}},
		{name: "with fields", input: record.Input{Nickname: "alice", Fields: map[string]string{"avatar": "aliceavatar"}}},
		{name: "unicode nickname", input: record.Input{Nickname: "Ölaf"}},
		{name: "empty field value", input: record.Input{Nickname: "alice", Fields: map[string]string{"bio": ""}}},
		{name: "empty nickname", input: record.Input{}, wantErr: true},
		{name: "short nickname", input: record.Input{Nickname: "al"}, wantErr: true},
		{name: "long nickname", input: record.Input{Nickname: strings.Repeat("a", 65)}, wantErr: true},
		{name: "control character", input: record.Input{Nickname: "ali\nce"}, wantErr: true},
		{name: "invalid utf8", input: record.Input{Nickname: "ali\xffce"}, wantErr: true},
		{name: "empty field key", input: record.Input{Nickname: "alice", Fields: map[string]string{"": "x"}}, wantErr: true},
		{name: "long field key", input: record.Input{Nickname: "alice", Fields: map[string]string{strings.Repeat("k", 129): "x"}}, wantErr: true},
		{name: "long field value", input: record.Input{Nickname: "alice", Fields: map[string]string{"bio": strings.Repeat("v", 4097)}}, wantErr: true},
		{name: "too many fields", input: record.Input{Nickname: "alice", Fields: manyFields}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				if !errors.Is(err, record.ErrInvalidArgument) {
					t.Errorf("Validate() error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}
