package directory

import (
	"bytes"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/directory/agent"
)

// MergeResult describes what Index.Merge did with an entry.
type MergeResult int

const (
	// MergeApplied means the entry became the agent's known current record.
	MergeApplied MergeResult = iota
	// MergeDuplicate means the index already held exactly this version.
	MergeDuplicate
	// MergeStale means the index already held a newer version.
	MergeStale
)

func (r MergeResult) String() string {
	switch r {
	case MergeApplied:
		return "applied"
	case MergeDuplicate:
		return "duplicate"
	case MergeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Index is one node's view of every agent's current record. Each agent's
// entry is replaced only by a later version of the same agent's chain, so an
// agent's record never goes backward. Agents are never removed.
//
// Snapshots are ordered by agent.Compare and never depend on record content.
type Index struct {
	entries map[agent.ID]Entry
	order   []agent.ID
	mu      sync.RWMutex
}

func NewIndex() *Index {
	return &Index{
		entries: make(map[agent.ID]Entry),
	}
}

// Merge applies e with last-writer-per-agent semantics. A higher sequence
// number wins. Two different versions at the same sequence number can only
// come from a forked chain; the larger hash wins so every node settles on the
// same one.
func (x *Index) Merge(e Entry) MergeResult {
	x.mu.Lock()
	defer x.mu.Unlock()

	cur, known := x.entries[e.Agent]
	if known {
		switch {
		case e.Hash == cur.Hash:
			return MergeDuplicate
		case e.Record.Seq() < cur.Record.Seq():
			return MergeStale
		case e.Record.Seq() == cur.Record.Seq() && bytes.Compare(e.Hash[:], cur.Hash[:]) < 0:
			return MergeStale
		}
	} else {
		i, _ := slices.BinarySearchFunc(x.order, e.Agent, agent.Compare)
		x.order = slices.Insert(x.order, i, e.Agent)
	}

	x.entries[e.Agent] = e
	return MergeApplied
}

// Get returns the known current entry for id.
func (x *Index) Get(id agent.ID) (Entry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	e, ok := x.entries[id]
	return e, ok
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order)
}

// Snapshot returns every known entry in canonical agent order.
func (x *Index) Snapshot() []Entry {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Entry, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, x.entries[id])
	}
	return out
}

// SnapshotFor returns the known entries of ids in canonical agent order.
// Unknown ids are omitted and repeated ids appear once.
func (x *Index) SnapshotFor(ids []agent.ID) []Entry {
	want := make(map[agent.ID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]Entry, 0, min(len(want), len(x.order)))
	for _, id := range x.order {
		if _, ok := want[id]; ok {
			out = append(out, x.entries[id])
		}
	}
	return out
}
