package hub

import (
	"context"

	"github.com/tailored-agentic-units/directory/messaging"
)

// MessageHandler processes one message delivered to a peer. A returned error
// is logged and counted; it does not stop delivery.
//
// Handlers run on the peer's delivery goroutine and must not block on Send,
// Broadcast or Publish: two peers doing so toward each other's full queues
// never resume.
type MessageHandler func(ctx context.Context, message *messaging.Message) error
