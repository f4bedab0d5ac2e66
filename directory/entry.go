package directory

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tailored-agentic-units/directory/agent"
	"github.com/tailored-agentic-units/directory/record"
)

const (
	fieldAgent   protowire.Number = 1
	fieldHash    protowire.Number = 2
	fieldVersion protowire.Number = 3
)

// ErrMalformedEntry is returned when a replicated entry cannot be decoded or
// its hash does not match its content.
var ErrMalformedEntry = errors.New("malformed directory entry")

// Entry is an agent's current record as known to one node's index.
type Entry struct {
	Agent  agent.ID
	Hash   record.Hash
	Record record.Version
}

// NewEntry pairs an agent with a version, computing the version hash.
func NewEntry(id agent.ID, v record.Version) Entry {
	return Entry{Agent: id, Hash: v.Hash(), Record: v}
}

// Marshal encodes e for replication.
func (e Entry) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldAgent, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Agent.Bytes())
	b = protowire.AppendTag(b, fieldHash, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Hash[:])
	b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Record.Marshal())
	return b
}

// UnmarshalEntry decodes an entry produced by Marshal and checks that the
// carried hash addresses the carried version.
func UnmarshalEntry(b []byte) (Entry, error) {
	var (
		e          Entry
		rawHash    []byte
		rawVersion []byte
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Entry{}, malformed(protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
		} else {
			var val []byte
			val, n = protowire.ConsumeBytes(b)
			switch num {
			case fieldAgent:
				e.Agent = agent.FromBytes(val)
			case fieldHash:
				rawHash = val
			case fieldVersion:
				rawVersion = val
			}
		}
		if n < 0 {
			return Entry{}, malformed(protowire.ParseError(n))
		}
		b = b[n:]
	}

	if e.Agent.IsZero() {
		return Entry{}, fmt.Errorf("%w: missing agent", ErrMalformedEntry)
	}

	hash, err := record.HashFromBytes(rawHash)
	if err != nil {
		return Entry{}, malformed(err)
	}

	v, err := record.UnmarshalVersion(rawVersion)
	if err != nil {
		return Entry{}, malformed(err)
	}
	if v.Hash() != hash {
		return Entry{}, fmt.Errorf("%w: hash %s does not match version", ErrMalformedEntry, hash)
	}

	e.Hash = hash
	e.Record = v
	return e, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
}
