package record_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tailored-agentic-units/directory/record"
)

func TestVersion_HashIgnoresFieldInsertionOrder(t *testing.T) {
	a := record.Genesis(record.Input{
		Nickname: "alice",
		Fields:   map[string]string{"avatar": "a.png", "bio": "hi", "zone": "utc"},
	})

	fields := make(map[string]string)
	fields["zone"] = "utc"
	fields["bio"] = "hi"
	fields["avatar"] = "a.png"
	b := record.Genesis(record.Input{Nickname: "alice", Fields: fields})

	if a.Hash() != b.Hash() {
		t.Errorf("Hash() differs for equal versions: %s vs %s", a.Hash(), b.Hash())
	}
}

func TestVersion_HashDistinguishesContent(t *testing.T) {
	base := record.Genesis(record.Input{Nickname: "alice", Fields: map[string]string{"avatar": "a"}})

	tests := []struct {
		name  string
		other record.Version
	}{
		{name: "nickname", other: record.Genesis(record.Input{Nickname: "alicf", Fields: map[string]string{"avatar": "a"}})},
		{name: "field value", other: record.Genesis(record.Input{Nickname: "alice", Fields: map[string]string{"avatar": "b"}})},
		{name: "field key", other: record.Genesis(record.Input{Nickname: "alice", Fields: map[string]string{"avatars": "a"}})},
		{name: "successor", other: base.Next(record.Input{Nickname: "alice", Fields: map[string]string{"avatar": "a"}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if base.Hash() == tt.other.Hash() {
				t.Errorf("Hash() collision between base and %s variant", tt.name)
			}
		})
	}
}

func TestVersion_Next(t *testing.T) {
	first := record.Genesis(record.Input{Nickname: "alice", Fields: map[string]string{"avatar": "aliceavatar"}})
	second := first.Next(record.Input{Nickname: "alice2", Fields: map[string]string{"avatar": "aliceavatar2"}})

	if first.Seq() != 1 {
		t.Errorf("first.Seq() = %d, want 1", first.Seq())
	}
	if _, ok := first.Predecessor(); ok {
		t.Error("first version should have no predecessor")
	}

	if second.Seq() != 2 {
		t.Errorf("second.Seq() = %d, want 2", second.Seq())
	}
	pred, ok := second.Predecessor()
	if !ok || pred != first.Hash() {
		t.Errorf("second.Predecessor() = %s, %v, want %s, true", pred, ok, first.Hash())
	}

	if first.Nickname() != "alice" {
		t.Errorf("superseding changed first.Nickname() to %q", first.Nickname())
	}
}

func TestVersion_Immutable(t *testing.T) {
	input := map[string]string{"avatar": "original"}
	v := record.Genesis(record.Input{Nickname: "alice", Fields: input})
	hash := v.Hash()

	input["avatar"] = "changed"
	fields := v.Fields()
	fields["avatar"] = "changed too"
	fields["extra"] = "added"

	if got, _ := v.Field("avatar"); got != "original" {
		t.Errorf("Field(avatar) = %q, want %q", got, "original")
	}
	if v.Hash() != hash {
		t.Error("Hash() changed after mutating inputs and outputs")
	}
}

func TestVersion_MarshalRoundTrip(t *testing.T) {
	first := record.Genesis(record.Input{Nickname: "ALIce", Fields: map[string]string{"avatar": "aliceavatar"}})
	second := first.Next(record.Input{Nickname: "alice2", Fields: map[string]string{
		"avatar": "aliceavatar2",
		"update": "somenewfield",
	}})
	empty := record.Genesis(record.Input{Nickname: "bob"})

	for _, v := range []record.Version{first, second, empty} {
		got, err := record.UnmarshalVersion(v.Marshal())
		if err != nil {
			t.Fatalf("UnmarshalVersion() error = %v", err)
		}
		if got.Hash() != v.Hash() {
			t.Errorf("round trip changed hash of %q", v.Nickname())
		}
		if diff := cmp.Diff(v.Fields(), got.Fields()); diff != "" {
			t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
		}
		if got.Nickname() != v.Nickname() || got.Seq() != v.Seq() {
			t.Errorf("got {%q, %d}, want {%q, %d}", got.Nickname(), got.Seq(), v.Nickname(), v.Seq())
		}
	}
}

func TestUnmarshalVersion_Corrupt(t *testing.T) {
	valid := record.Genesis(record.Input{Nickname: "alice"}).Marshal()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated", data: valid[:len(valid)-1]},
		{name: "garbage tag", data: []byte{0xff, 0xff, 0xff}},
		{name: "short predecessor", data: append([]byte{0x1a, 0x02, 0x01, 0x02}, valid...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := record.UnmarshalVersion(tt.data); !errors.Is(err, record.ErrCorrupt) {
				t.Errorf("UnmarshalVersion() error = %v, want ErrCorrupt", err)
			}
		})
	}
}
