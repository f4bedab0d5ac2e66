package record

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/directory/agent"
	"github.com/tailored-agentic-units/directory/store"
)

type head struct {
	hash    Hash
	version Version
}

// Store holds, per agent, a chain of immutable versions and a pointer to the
// latest one. Versions are written before the pointer moves, and superseded
// versions are never removed.
//
// Reads are served from memory and never wait on a write in progress.
// Writes for all agents are serialized.
type Store struct {
	cache   *store.Cache
	current map[agent.ID]head
	mu      sync.RWMutex
	writeMu sync.Mutex
}

// NewStore opens a record store over backing, restoring the current pointer
// of every agent found in it.
func NewStore(ctx context.Context, backing store.Store) (*Store, error) {
	prefix := store.NamespaceCurrent + "/"

	cache := store.NewCache(backing)
	if err := cache.Bootstrap(ctx, prefix); err != nil {
		return nil, fmt.Errorf("bootstrap record store: %w", err)
	}

	s := &Store{
		cache:   cache,
		current: make(map[agent.ID]head),
	}

	for _, e := range cache.Entries(prefix) {
		id, err := agent.Parse(strings.TrimPrefix(e.Key, prefix))
		if err != nil {
			return nil, fmt.Errorf("%w: pointer key %s: %v", ErrCorrupt, e.Key, err)
		}

		hash, err := HashFromBytes(e.Value)
		if err != nil {
			return nil, fmt.Errorf("pointer %s: %w", e.Key, err)
		}

		v, err := s.Version(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("restore current record for %s: %w", id, err)
		}
		s.current[id] = head{hash: hash, version: v}
	}

	return s, nil
}

// Create stores the first version for id. It fails with ErrRecordExists when
// id already has a current record.
func (s *Store) Create(ctx context.Context, id agent.ID, in Input) (Hash, Version, error) {
	if err := validateWrite(id, in); err != nil {
		return Hash{}, Version{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, _, exists := s.Current(id); exists {
		return Hash{}, Version{}, fmt.Errorf("%w: %s", ErrRecordExists, id)
	}

	return s.commit(ctx, id, Genesis(in))
}

// Update supersedes the current record of id with a new version linked to
// it. It fails with ErrNoRecord when id has no record yet.
func (s *Store) Update(ctx context.Context, id agent.ID, in Input) (Hash, Version, error) {
	if err := validateWrite(id, in); err != nil {
		return Hash{}, Version{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, prev, exists := s.Current(id)
	if !exists {
		return Hash{}, Version{}, fmt.Errorf("%w: %s", ErrNoRecord, id)
	}

	return s.commit(ctx, id, prev.Next(in))
}

// Current returns the latest version for id.
func (s *Store) Current(id agent.ID) (Hash, Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.current[id]
	return h.hash, h.version, ok
}

// Agents returns every agent with a current record, in canonical order.
func (s *Store) Agents() []agent.ID {
	s.mu.RLock()
	ids := make([]agent.ID, 0, len(s.current))
	for id := range s.current {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	slices.SortFunc(ids, agent.Compare)
	return ids
}

// Version loads a version by hash, including superseded ones.
func (s *Store) Version(ctx context.Context, hash Hash) (Version, error) {
	key := versionKey(hash)

	if err := s.cache.Resolve(ctx, key); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return Version{}, fmt.Errorf("%w: %s", ErrVersionNotFound, hash)
		}
		return Version{}, err
	}

	raw, ok := s.cache.Get(key)
	if !ok {
		return Version{}, fmt.Errorf("%w: %s", ErrVersionNotFound, hash)
	}

	v, err := UnmarshalVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("version %s: %w", hash, err)
	}
	if v.Hash() != hash {
		return Version{}, fmt.Errorf("%w: version %s does not match its content", ErrCorrupt, hash)
	}
	return v, nil
}

// History walks the chain of id from the current version back to the first,
// newest first. An agent without a record has an empty history.
func (s *Store) History(ctx context.Context, id agent.ID) ([]Version, error) {
	_, cur, ok := s.Current(id)
	if !ok {
		return nil, nil
	}

	history := make([]Version, 0, cur.Seq())
	history = append(history, cur)

	for v := cur; ; {
		pred, ok := v.Predecessor()
		if !ok {
			break
		}

		prev, err := s.Version(ctx, pred)
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", id, err)
		}
		if prev.Seq() != v.Seq()-1 {
			return nil, fmt.Errorf("%w: history of %s skips from %d to %d", ErrCorrupt, id, v.Seq(), prev.Seq())
		}

		history = append(history, prev)
		v = prev
	}

	return history, nil
}

func (s *Store) commit(ctx context.Context, id agent.ID, v Version) (Hash, Version, error) {
	hash := v.Hash()

	err := s.cache.Commit(ctx,
		store.Entry{Key: versionKey(hash), Value: v.Marshal()},
		store.Entry{Key: currentKey(id), Value: hash[:]},
	)
	if err != nil {
		return Hash{}, Version{}, fmt.Errorf("store version for %s: %w", id, err)
	}

	s.mu.Lock()
	s.current[id] = head{hash: hash, version: v}
	s.mu.Unlock()

	return hash, v, nil
}

func validateWrite(id agent.ID, in Input) error {
	if id.IsZero() {
		return fmt.Errorf("%w: empty agent id", ErrInvalidArgument)
	}
	return in.Validate()
}

func versionKey(h Hash) string {
	return store.Key(store.NamespaceVersions, h.String())
}

func currentKey(id agent.ID) string {
	return store.Key(store.NamespaceCurrent, id.String())
}
