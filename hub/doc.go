// Package hub is the in-process replication substrate that connects directory
// nodes.
//
// Each registered peer owns a buffered MessageChannel drained by a dedicated
// delivery goroutine, which invokes the peer's MessageHandler once per
// message. Messages to a single peer are handled in the order they were
// queued; there is no ordering across peers.
//
// # Communication Patterns
//
//   - Send: deliver to one peer
//   - Broadcast: deliver to every peer except the sender
//   - Subscribe/Publish: deliver to every subscriber of a topic except the sender
//
// # Propagation Delay
//
// Config.Latency delays every delivery, and Config.Jitter adds a uniformly
// random extra delay in [0, Jitter). Together they stand in for a network
// whose propagation time is unbounded.
//
//	h := hub.New(ctx, hub.Config{Name: "local", Latency: 5 * time.Millisecond})
//	defer h.Shutdown(5 * time.Second)
//
//	h.Register("node-a", handlerA)
//	h.Subscribe("node-a", "directory.entries")
//	h.Publish(ctx, "node-b", "directory.entries", payload)
//
// # Metrics
//
// Metrics returns counters for registered peers, queued, sent and received
// messages, and handler failures. NewCollector exposes the same values to
// Prometheus.
package hub
