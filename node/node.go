// Package node runs one agent's participation in the replicated directory.
//
// A Node owns the agent's record store, holds its own view of the directory
// index, and exchanges entries with peers over a hub. Writes land in the
// local store and index before they are published, so the writing agent
// reads its own record immediately while other nodes converge later.
//
//	h := hub.New(ctx, hub.DefaultConfig())
//	n, err := node.New(ctx, &cfg, h)
//	entry, err := n.CreateRecord(ctx, record.Input{Nickname: "alice"})
//	matches := n.SearchRecords("ali")
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tailored-agentic-units/directory/agent"
	"github.com/tailored-agentic-units/directory/directory"
	"github.com/tailored-agentic-units/directory/hub"
	"github.com/tailored-agentic-units/directory/messaging"
	"github.com/tailored-agentic-units/directory/observability"
	"github.com/tailored-agentic-units/directory/record"
	"github.com/tailored-agentic-units/directory/store"
)

// Option configures a Node. Options are applied before config-driven
// initialization; anything they leave unset is created from Config.
type Option func(*Node)

// WithID sets the agent this node acts for, overriding Config.Agent.
func WithID(id agent.ID) Option {
	return func(n *Node) { n.id = id }
}

// WithStore supplies the backing store. The node does not close it.
func WithStore(s store.Store) Option {
	return func(n *Node) { n.backing = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) { n.logger = logger }
}

// WithObserver overrides Config.Observer.
func WithObserver(o observability.Observer) Option {
	return func(n *Node) { n.observer = o }
}

// Node is one agent's view of, and voice in, the directory.
type Node struct {
	id       agent.ID
	peer     string
	hub      hub.Hub
	backing  store.Store
	owned    io.Closer
	records  *record.Store
	index    *directory.Index
	query    *directory.Query
	logger   *slog.Logger
	observer observability.Observer

	// lifecycle is held for reading by writes and for writing by Close, so a
	// write either completes before Close starts or sees closed.
	lifecycle sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
	cancel    context.CancelFunc
	loops     sync.WaitGroup

	// Peers owed an announce reply. Delivery goroutines only record the
	// debt; replyLoop pays it, so a handler never blocks on a peer's queue.
	replyMu    sync.Mutex
	replyTo    map[string]struct{}
	replyReady chan struct{}
}

// New opens the node's store, restores its current record, joins h and
// announces itself so peers send their current entries.
func New(ctx context.Context, cfg *Config, h hub.Hub, opts ...Option) (*Node, error) {
	n := &Node{
		hub:        h,
		replyTo:    make(map[string]struct{}),
		replyReady: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.id.IsZero() {
		if cfg.Agent != "" {
			id, err := agent.Parse(cfg.Agent)
			if err != nil {
				return nil, fmt.Errorf("invalid agent: %w", err)
			}
			n.id = id
		} else {
			n.id = agent.New()
		}
	}
	n.peer = n.id.String()

	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.observer == nil {
		if cfg.Observer == "" {
			n.observer = observability.NewSlogObserver(n.logger)
		} else {
			obs, err := observability.GetObserver(cfg.Observer)
			if err != nil {
				return nil, fmt.Errorf("invalid observer: %w", err)
			}
			n.observer = obs
		}
	}

	if n.backing == nil {
		backing, err := store.New(&cfg.Store, n.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
		n.backing = backing
		if c, ok := backing.(io.Closer); ok {
			n.owned = c
		}
	}

	records, err := record.NewStore(ctx, n.backing)
	if err != nil {
		n.closeStore()
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	n.records = records
	n.index = directory.NewIndex()
	n.query = directory.NewQuery(n.index)

	if entry, ok := n.MyRecord(); ok {
		n.index.Merge(entry)
	}

	if err := n.join(ctx); err != nil {
		n.closeStore()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.loops.Go(func() { n.replyLoop(loopCtx) })
	if cfg.ResyncInterval > 0 {
		n.loops.Go(func() { n.resyncLoop(loopCtx, cfg.ResyncInterval) })
	}

	return n, nil
}

func (n *Node) join(ctx context.Context) error {
	if err := n.hub.Register(n.peer, n.handle); err != nil {
		return fmt.Errorf("failed to join hub: %w", err)
	}
	if err := n.hub.Subscribe(n.peer, TopicEntries); err != nil {
		n.hub.Unregister(n.peer)
		return fmt.Errorf("failed to subscribe to %s: %w", TopicEntries, err)
	}
	return n.Resync(ctx)
}

// ID returns the agent this node acts for.
func (n *Node) ID() agent.ID {
	return n.id
}

// CreateRecord stores the agent's first record and publishes it.
func (n *Node) CreateRecord(ctx context.Context, in record.Input) (directory.Entry, error) {
	return n.write(ctx, EventRecordCreate, in, n.records.Create)
}

// UpdateRecord supersedes the agent's current record and publishes the new
// version.
func (n *Node) UpdateRecord(ctx context.Context, in record.Input) (directory.Entry, error) {
	return n.write(ctx, EventRecordUpdate, in, n.records.Update)
}

type writeFunc func(context.Context, agent.ID, record.Input) (record.Hash, record.Version, error)

func (n *Node) write(ctx context.Context, event observability.EventType, in record.Input, fn writeFunc) (directory.Entry, error) {
	n.lifecycle.RLock()
	defer n.lifecycle.RUnlock()

	if n.closed {
		return directory.Entry{}, ErrClosed
	}

	hash, v, err := fn(ctx, n.id, in)
	if err != nil {
		return directory.Entry{}, err
	}

	entry := directory.Entry{Agent: n.id, Hash: hash, Record: v}
	n.index.Merge(entry)

	n.emit(ctx, event, observability.LevelInfo, "node.write", map[string]any{
		"agent": n.peer,
		"hash":  hash.String(),
		"seq":   v.Seq(),
	})

	n.publish(ctx, entry)
	return entry, nil
}

// MyRecord returns the agent's own current record from local state.
func (n *Node) MyRecord() (directory.Entry, bool) {
	hash, v, ok := n.records.Current(n.id)
	if !ok {
		return directory.Entry{}, false
	}
	return directory.Entry{Agent: n.id, Hash: hash, Record: v}, true
}

// AllRecords returns every entry this node currently knows.
func (n *Node) AllRecords() []directory.Entry {
	return n.query.All()
}

// RecordsForAgents returns the known entries of ids. Unknown ids are omitted.
func (n *Node) RecordsForAgents(ids []agent.ID) []directory.Entry {
	return n.query.ForAgents(ids)
}

// SearchRecords returns the known entries whose nickname starts with prefix,
// ignoring case.
func (n *Node) SearchRecords(prefix string) []directory.Entry {
	return n.query.Search(prefix)
}

// History returns every version the agent has written, newest first.
func (n *Node) History(ctx context.Context) ([]record.Version, error) {
	return n.records.History(ctx, n.id)
}

// Resync announces the node to every peer. The announcement carries the
// node's own entry, if any, and each peer answers with its own.
func (n *Node) Resync(ctx context.Context) error {
	var payload []byte
	if entry, ok := n.MyRecord(); ok {
		payload = entry.Marshal()
	}

	if err := n.hub.Broadcast(ctx, n.peer, payload); err != nil {
		n.emitError(ctx, "node.Resync", err)
		return fmt.Errorf("failed to announce: %w", err)
	}

	n.emit(ctx, EventAnnounce, observability.LevelVerbose, "node.Resync", map[string]any{
		"agent":     n.peer,
		"has_entry": payload != nil,
	})
	return nil
}

// Close leaves the hub, stops periodic resync and closes the store if the
// node opened it. Reads keep answering from memory after Close.
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.lifecycle.Lock()
		n.closed = true
		n.lifecycle.Unlock()

		n.cancel()
		n.loops.Wait()

		var errs []error
		if err := n.hub.Unregister(n.peer); err != nil && !errors.Is(err, hub.ErrPeerNotFound) {
			errs = append(errs, err)
		}
		errs = append(errs, n.closeStore())
		n.closeErr = errors.Join(errs...)
	})
	return n.closeErr
}

func (n *Node) closeStore() error {
	if n.owned == nil {
		return nil
	}
	return n.owned.Close()
}

func (n *Node) publish(ctx context.Context, entry directory.Entry) {
	if err := n.hub.Publish(ctx, n.peer, TopicEntries, entry.Marshal()); err != nil {
		n.emitError(ctx, "node.publish", err)
		return
	}

	n.emit(ctx, EventEntryPublish, observability.LevelVerbose, "node.publish", map[string]any{
		"agent": n.peer,
		"seq":   entry.Record.Seq(),
	})
}

func (n *Node) handle(ctx context.Context, msg *messaging.Message) error {
	if len(msg.Payload) > 0 {
		n.receive(ctx, msg)
	}

	if msg.IsBroadcast() {
		n.owe(msg.From)
	}
	return nil
}

func (n *Node) owe(peer string) {
	n.replyMu.Lock()
	n.replyTo[peer] = struct{}{}
	n.replyMu.Unlock()

	select {
	case n.replyReady <- struct{}{}:
	default:
	}
}

// replyLoop answers announces with the node's current entry. Repeated
// announces from one peer before the reply goes out collapse into one reply.
func (n *Node) replyLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.replyReady:
		}

		n.replyMu.Lock()
		peers := n.replyTo
		n.replyTo = make(map[string]struct{})
		n.replyMu.Unlock()

		entry, ok := n.MyRecord()
		if !ok {
			continue
		}
		payload := entry.Marshal()

		for peer := range peers {
			err := n.hub.Send(ctx, n.peer, peer, payload)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				return
			case errors.Is(err, hub.ErrPeerNotFound):
			default:
				n.emitError(ctx, "node.reply", fmt.Errorf("failed to answer announce from %s: %w", peer, err))
			}
		}
	}
}

// receive merges a peer's entry. Bad input is observed and dropped; it never
// fails the delivery.
func (n *Node) receive(ctx context.Context, msg *messaging.Message) {
	entry, err := directory.UnmarshalEntry(msg.Payload)
	if err != nil {
		n.reject(ctx, msg.From, err.Error())
		return
	}

	if entry.Agent.String() != msg.From {
		n.reject(ctx, msg.From, "entry not authored by sender")
		return
	}

	result := n.index.Merge(entry)

	event := EventEntryMerge
	if result != directory.MergeApplied {
		event = EventEntryStale
	}
	n.emit(ctx, event, observability.LevelVerbose, "node.receive", map[string]any{
		"agent":  msg.From,
		"seq":    entry.Record.Seq(),
		"result": result.String(),
	})
}

func (n *Node) reject(ctx context.Context, from, reason string) {
	n.emit(ctx, EventEntryReject, observability.LevelWarning, "node.receive", map[string]any{
		"from":   from,
		"reason": reason,
	})
}

func (n *Node) resyncLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Failures are already emitted as node.error events.
			_ = n.Resync(ctx)
		}
	}
}

func (n *Node) emit(ctx context.Context, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	n.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}

func (n *Node) emitError(ctx context.Context, source string, err error) {
	n.emit(ctx, EventError, observability.LevelError, source, map[string]any{
		"agent": n.peer,
		"error": err.Error(),
	})
}
