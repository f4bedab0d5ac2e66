package hub

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/tailored-agentic-units/directory/messaging"
)

type registration struct {
	ID      string
	Handler MessageHandler
	Channel *MessageChannel[*messaging.Message]
	cancel  context.CancelFunc
}

type Hub interface {
	Name() string

	Register(peerID string, handler MessageHandler) error
	Unregister(peerID string) error
	Peers() []string

	Send(ctx context.Context, from, to string, payload []byte) error
	Broadcast(ctx context.Context, from string, payload []byte) error

	Subscribe(peerID, topic string) error
	Publish(ctx context.Context, from, topic string, payload []byte) error

	Metrics() MetricsSnapshot
	Shutdown(timeout time.Duration) error
}

type hub struct {
	name string

	peers      map[string]*registration
	closed     bool
	peersMutex sync.RWMutex

	subscriptions map[string]map[string]*registration
	subsMutex     sync.RWMutex

	channelBufferSize int
	latency           time.Duration
	jitter            time.Duration

	logger  *slog.Logger
	metrics *Metrics

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// New starts a hub. Zero fields of hubConfig take their DefaultConfig values.
func New(ctx context.Context, hubConfig Config) Hub {
	cfg := DefaultConfig()
	cfg.Merge(&hubConfig)

	hubCtx, cancel := context.WithCancel(ctx)

	return &hub{
		name:              cfg.Name,
		peers:             make(map[string]*registration),
		subscriptions:     make(map[string]map[string]*registration),
		channelBufferSize: cfg.ChannelBufferSize,
		latency:           cfg.Latency,
		jitter:            cfg.Jitter,
		logger:            cfg.Logger,
		metrics:           NewMetrics(),
		ctx:               hubCtx,
		cancel:            cancel,
	}
}

func (h *hub) Name() string {
	return h.name
}

func (h *hub) Register(peerID string, handler MessageHandler) error {
	h.peersMutex.Lock()
	defer h.peersMutex.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, exists := h.peers[peerID]; exists {
		return fmt.Errorf("%w: %s", ErrPeerExists, peerID)
	}

	peerCtx, cancel := context.WithCancel(h.ctx)
	reg := &registration{
		ID:      peerID,
		Handler: handler,
		Channel: NewMessageChannel[*messaging.Message](peerCtx, h.channelBufferSize),
		cancel:  cancel,
	}

	h.peers[peerID] = reg
	h.metrics.RecordPeer(1)
	h.workers.Go(func() { h.deliver(peerCtx, reg) })

	h.logger.DebugContext(
		h.ctx,
		"peer registered",
		slog.String("hub_name", h.name),
		slog.String("peer_id", peerID),
	)

	return nil
}

// Unregister stops delivery to peerID. Messages still queued for it are
// dropped.
func (h *hub) Unregister(peerID string) error {
	h.peersMutex.Lock()
	reg, exists := h.peers[peerID]
	if exists {
		delete(h.peers, peerID)
		reg.cancel()
	}
	h.peersMutex.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, peerID)
	}

	h.subsMutex.Lock()
	for topic, subs := range h.subscriptions {
		if _, exists := subs[peerID]; exists {
			delete(subs, peerID)
			if len(subs) == 0 {
				delete(h.subscriptions, topic)
			}
		}
	}
	h.subsMutex.Unlock()

	h.metrics.RecordPeer(-1)
	h.logger.DebugContext(
		h.ctx,
		"peer unregistered",
		slog.String("hub_name", h.name),
		slog.String("peer_id", peerID),
	)

	return nil
}

// Peers returns the registered peer IDs in sorted order.
func (h *hub) Peers() []string {
	h.peersMutex.RLock()
	ids := make([]string, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	h.peersMutex.RUnlock()

	slices.Sort(ids)
	return ids
}

func (h *hub) Send(ctx context.Context, from, to string, payload []byte) error {
	h.peersMutex.RLock()
	reg, exists := h.peers[to]
	h.peersMutex.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, to)
	}

	message := messaging.NewNotification(from, to, payload).Build()
	if err := reg.Channel.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to deliver message: %w", err)
	}

	h.metrics.RecordMessageSent(1)
	return nil
}

func (h *hub) Broadcast(ctx context.Context, from string, payload []byte) error {
	h.peersMutex.RLock()
	registrations := make([]*registration, 0, len(h.peers))
	for peerID, reg := range h.peers {
		if peerID != from {
			registrations = append(registrations, reg)
		}
	}
	h.peersMutex.RUnlock()

	delivered := 0
	for _, reg := range registrations {
		message := messaging.NewBroadcast(from, reg.ID, payload).Build()
		if h.enqueue(ctx, reg, message) {
			delivered++
		}
	}

	h.logger.DebugContext(
		ctx,
		"broadcast sent",
		slog.String("hub_name", h.name),
		slog.String("from", from),
		slog.Int("recipients", len(registrations)),
		slog.Int("delivered", delivered),
	)

	return nil
}

func (h *hub) Subscribe(peerID, topic string) error {
	h.peersMutex.RLock()
	reg, exists := h.peers[peerID]
	h.peersMutex.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, peerID)
	}

	h.subsMutex.Lock()
	if h.subscriptions[topic] == nil {
		h.subscriptions[topic] = make(map[string]*registration)
	}
	h.subscriptions[topic][peerID] = reg
	h.subsMutex.Unlock()

	h.logger.DebugContext(
		h.ctx,
		"peer subscribed to topic",
		slog.String("hub_name", h.name),
		slog.String("peer_id", peerID),
		slog.String("topic", topic),
	)

	return nil
}

func (h *hub) Publish(ctx context.Context, from, topic string, payload []byte) error {
	h.subsMutex.RLock()
	subscribers := make([]*registration, 0, len(h.subscriptions[topic]))
	for peerID, reg := range h.subscriptions[topic] {
		if peerID != from {
			subscribers = append(subscribers, reg)
		}
	}
	h.subsMutex.RUnlock()

	delivered := 0
	for _, reg := range subscribers {
		message := messaging.NewNotification(from, reg.ID, payload).Topic(topic).Build()
		if h.enqueue(ctx, reg, message) {
			delivered++
		}
	}

	h.logger.DebugContext(
		ctx,
		"message published",
		slog.String("hub_name", h.name),
		slog.String("topic", topic),
		slog.Int("subscribers", len(subscribers)),
		slog.Int("delivered", delivered),
	)

	return nil
}

func (h *hub) Metrics() MetricsSnapshot {
	snapshot := h.metrics.Snapshot()

	h.peersMutex.RLock()
	for _, reg := range h.peers {
		snapshot.Queued += int64(reg.Channel.QueueLength())
	}
	h.peersMutex.RUnlock()

	return snapshot
}

// Shutdown stops every delivery goroutine and waits up to timeout for them to
// return. Register fails afterward.
func (h *hub) Shutdown(timeout time.Duration) error {
	h.logger.DebugContext(
		h.ctx,
		"shutting down hub",
		slog.String("hub_name", h.name),
	)

	h.peersMutex.Lock()
	h.closed = true
	h.peersMutex.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}

func (h *hub) enqueue(ctx context.Context, reg *registration, message *messaging.Message) bool {
	if err := reg.Channel.Send(ctx, message); err != nil {
		h.logger.WarnContext(
			ctx,
			"failed to deliver message",
			slog.String("hub_name", h.name),
			slog.String("from", message.From),
			slog.String("to", reg.ID),
			slog.String("type", string(message.Type)),
			slog.String("error", err.Error()),
		)
		return false
	}

	h.metrics.RecordMessageSent(1)
	return true
}

func (h *hub) deliver(ctx context.Context, reg *registration) {
	for {
		message, err := reg.Channel.Receive(ctx)
		if err != nil {
			return
		}

		if !h.wait(ctx) {
			return
		}

		h.handleMessage(ctx, reg, message)
	}
}

// wait blocks for the configured propagation delay. It reports false when ctx
// ends first.
func (h *hub) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	delay := h.latency
	if h.jitter > 0 {
		delay += rand.N(h.jitter)
	}
	if delay <= 0 {
		return true
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *hub) handleMessage(ctx context.Context, reg *registration, message *messaging.Message) {
	if reg.Handler == nil {
		return
	}

	h.metrics.RecordMessageRecv(1)

	if err := reg.Handler(ctx, message); err != nil {
		h.metrics.RecordHandlerError(1)
		h.logger.ErrorContext(
			ctx,
			"message handler failed",
			slog.String("hub_name", h.name),
			slog.String("peer_id", reg.ID),
			slog.String("from", message.From),
			slog.String("error", err.Error()),
		)
	}
}
