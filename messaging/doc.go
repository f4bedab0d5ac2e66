// Package messaging provides the message envelope exchanged between directory
// nodes over a hub.
//
// Payloads are opaque bytes. Nodes never share in-memory values through a
// message; each side encodes and decodes its own copy.
//
// # Message Types
//
//   - Notification: one-way delivery to a single peer or a topic subscriber
//   - Broadcast: delivery to every registered peer except the sender
//
// # Construction
//
//	msg := messaging.NewNotification("node-a", "node-b", payload).
//	    Topic("directory.entries").
//	    Build()
//
// Each message carries a UUIDv7 ID and a creation timestamp.
package messaging
