package messaging

import (
	"bytes"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeNotification MessageType = "notification"
	MessageTypeBroadcast    MessageType = "broadcast"
)

type Message struct {
	ID        string            `json:"id"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Type      MessageType       `json:"type"`
	Topic     string            `json:"topic,omitempty"`
	Payload   []byte            `json:"payload,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func (msg *Message) IsBroadcast() bool {
	return msg.Type == MessageTypeBroadcast
}

// Clone returns a deep copy, so the clone's payload can be handed to another
// peer.
func (msg *Message) Clone() *Message {
	clone := *msg
	clone.Payload = bytes.Clone(msg.Payload)
	clone.Headers = maps.Clone(msg.Headers)
	return &clone
}

func (msg *Message) String() string {
	return fmt.Sprintf(
		"Message{ID: %s, From: %s, To: %s, Type: %s, Topic: %s, Payload: %d bytes}",
		msg.ID,
		msg.From,
		msg.To,
		msg.Type,
		msg.Topic,
		len(msg.Payload),
	)
}

func generateID() string {
	return uuid.Must(uuid.NewV7()).String()
}
