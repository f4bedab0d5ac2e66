package directory

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/tailored-agentic-units/directory/agent"
)

// Snapshotter provides ordered snapshots of directory entries.
type Snapshotter interface {
	Snapshot() []Entry
	SnapshotFor(ids []agent.ID) []Entry
}

// Query is the read-only query engine over a directory snapshot source. Every
// result preserves the source's ordering.
type Query struct {
	source Snapshotter
}

func NewQuery(source Snapshotter) *Query {
	return &Query{source: source}
}

// All returns every known entry.
func (q *Query) All() []Entry {
	return q.source.Snapshot()
}

// ForAgents returns the known entries of ids. Unknown ids are omitted.
func (q *Query) ForAgents(ids []agent.ID) []Entry {
	return q.source.SnapshotFor(ids)
}

// BucketRunes is how many leading runes of a search prefix are significant.
// Nicknames are bucketed by their first BucketRunes folded runes, so a longer
// prefix selects the same bucket as its first BucketRunes runes.
const BucketRunes = 3

// Search returns the entries whose folded nickname starts with the first
// BucketRunes runes of the folded prefix. An empty prefix matches every entry.
func (q *Query) Search(prefix string) []Entry {
	fold := cases.Fold()
	want := bucket(fold.String(prefix))

	entries := q.source.Snapshot()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(fold.String(e.Record.Nickname()), want) {
			out = append(out, e)
		}
	}
	return out
}

func bucket(folded string) string {
	n := 0
	for i := range folded {
		if n == BucketRunes {
			return folded[:i]
		}
		n++
	}
	return folded
}
