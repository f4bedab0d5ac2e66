package messaging

import (
	"bytes"
	"time"
)

type MessageBuilder struct {
	message *Message
}

// NewMessage starts a message. The payload is copied.
func NewMessage(from, to string, messageType MessageType, payload []byte) *MessageBuilder {
	return &MessageBuilder{
		message: &Message{
			ID:        generateID(),
			From:      from,
			To:        to,
			Type:      messageType,
			Payload:   bytes.Clone(payload),
			Timestamp: time.Now(),
		},
	}
}

func NewNotification(from, to string, payload []byte) *MessageBuilder {
	return NewMessage(from, to, MessageTypeNotification, payload)
}

func NewBroadcast(from, to string, payload []byte) *MessageBuilder {
	return NewMessage(from, to, MessageTypeBroadcast, payload)
}

func (mb *MessageBuilder) Topic(topic string) *MessageBuilder {
	mb.message.Topic = topic
	return mb
}

func (mb *MessageBuilder) Header(key, value string) *MessageBuilder {
	if mb.message.Headers == nil {
		mb.message.Headers = make(map[string]string)
	}
	mb.message.Headers[key] = value
	return mb
}

func (mb *MessageBuilder) Headers(headers map[string]string) *MessageBuilder {
	mb.message.Headers = headers
	return mb
}

func (mb *MessageBuilder) Build() *Message {
	return mb.message
}
