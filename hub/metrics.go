package hub

import "sync/atomic"

type MetricsSnapshot struct {
	Peers         int64
	Queued        int64
	MessagesSent  int64
	MessagesRecv  int64
	HandlerErrors int64
}

type Metrics struct {
	peers         atomic.Int64
	messagesSent  atomic.Int64
	messagesRecv  atomic.Int64
	handlerErrors atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordPeer(delta int) {
	m.peers.Add(int64(delta))
}

func (m *Metrics) RecordMessageSent(delta int) {
	m.messagesSent.Add(int64(delta))
}

func (m *Metrics) RecordMessageRecv(delta int) {
	m.messagesRecv.Add(int64(delta))
}

func (m *Metrics) RecordHandlerError(delta int) {
	m.handlerErrors.Add(int64(delta))
}

// Snapshot reads each counter independently; the values are not a single
// atomic view.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Peers:         m.peers.Load(),
		MessagesSent:  m.messagesSent.Load(),
		MessagesRecv:  m.messagesRecv.Load(),
		HandlerErrors: m.handlerErrors.Load(),
	}
}
