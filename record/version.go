// Package record implements the per-agent record store: an append-only chain
// of immutable, content-addressed versions plus a current pointer per agent.
package record

import (
	"crypto/sha256"
	"fmt"
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers of an encoded Version.
const (
	fieldNickname    protowire.Number = 1
	fieldFields      protowire.Number = 2
	fieldPredecessor protowire.Number = 3
	fieldSeq         protowire.Number = 4

	fieldKey   protowire.Number = 1
	fieldValue protowire.Number = 2
)

// Version is one immutable link of an agent's history chain. Fields are
// unexported so a Version cannot change after construction; accessors return
// copies.
type Version struct {
	nickname    string
	fields      map[string]string
	predecessor Hash
	seq         uint64
}

// Genesis builds the first version of a chain from in. It does not validate.
func Genesis(in Input) Version {
	return Version{
		nickname: in.Nickname,
		fields:   cloneFields(in.Fields),
		seq:      1,
	}
}

// Next builds the version that supersedes v.
func (v Version) Next(in Input) Version {
	return Version{
		nickname:    in.Nickname,
		fields:      cloneFields(in.Fields),
		predecessor: v.Hash(),
		seq:         v.seq + 1,
	}
}

func (v Version) Nickname() string {
	return v.nickname
}

// Fields returns a copy of the version's fields. The result is never nil.
func (v Version) Fields() map[string]string {
	return cloneFields(v.fields)
}

func (v Version) Field(key string) (string, bool) {
	val, ok := v.fields[key]
	return val, ok
}

// Predecessor returns the hash of the superseded version, if any.
func (v Version) Predecessor() (Hash, bool) {
	return v.predecessor, !v.predecessor.IsZero()
}

// Seq is the 1-based position of the version in its chain.
func (v Version) Seq() uint64 {
	return v.seq
}

func (v Version) IsZero() bool {
	return v.seq == 0
}

// Hash returns the content address of the version's canonical encoding.
func (v Version) Hash() Hash {
	return sha256.Sum256(v.Marshal())
}

// Marshal returns the canonical encoding of v. Fields are written in key
// order so equal versions always encode to the same bytes.
func (v Version) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldNickname, protowire.BytesType)
	b = protowire.AppendString(b, v.nickname)

	for _, key := range slices.Sorted(maps.Keys(v.fields)) {
		var field []byte
		field = protowire.AppendTag(field, fieldKey, protowire.BytesType)
		field = protowire.AppendString(field, key)
		field = protowire.AppendTag(field, fieldValue, protowire.BytesType)
		field = protowire.AppendString(field, v.fields[key])

		b = protowire.AppendTag(b, fieldFields, protowire.BytesType)
		b = protowire.AppendBytes(b, field)
	}

	if !v.predecessor.IsZero() {
		b = protowire.AppendTag(b, fieldPredecessor, protowire.BytesType)
		b = protowire.AppendBytes(b, v.predecessor[:])
	}

	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, v.seq)
	return b
}

// UnmarshalVersion decodes a version produced by Marshal. Unknown fields are
// skipped.
func UnmarshalVersion(b []byte) (Version, error) {
	v := Version{fields: make(map[string]string)}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Version{}, corrupt(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldNickname && typ == protowire.BytesType:
			v.nickname, n = protowire.ConsumeString(b)
		case num == fieldFields && typ == protowire.BytesType:
			var field []byte
			field, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				key, val, err := unmarshalField(field)
				if err != nil {
					return Version{}, err
				}
				v.fields[key] = val
			}
		case num == fieldPredecessor && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				h, err := HashFromBytes(raw)
				if err != nil {
					return Version{}, err
				}
				v.predecessor = h
			}
		case num == fieldSeq && typ == protowire.VarintType:
			v.seq, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Version{}, corrupt(protowire.ParseError(n))
		}
		b = b[n:]
	}

	if v.seq == 0 {
		return Version{}, fmt.Errorf("%w: missing sequence number", ErrCorrupt)
	}
	if v.seq == 1 && !v.predecessor.IsZero() {
		return Version{}, fmt.Errorf("%w: genesis version has a predecessor", ErrCorrupt)
	}
	if v.seq > 1 && v.predecessor.IsZero() {
		return Version{}, fmt.Errorf("%w: version %d has no predecessor", ErrCorrupt, v.seq)
	}

	return v, nil
}

func unmarshalField(b []byte) (string, string, error) {
	var key, val string
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", "", corrupt(protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldKey && typ == protowire.BytesType:
			key, n = protowire.ConsumeString(b)
		case num == fieldValue && typ == protowire.BytesType:
			val, n = protowire.ConsumeString(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", "", corrupt(protowire.ParseError(n))
		}
		b = b[n:]
	}
	return key, val, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorrupt, err)
}

func cloneFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	maps.Copy(out, fields)
	return out
}
