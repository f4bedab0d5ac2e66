package hub

import "github.com/prometheus/client_golang/prometheus"

// Collector exports a hub's MetricsSnapshot as Prometheus metrics labeled
// with the hub name.
type Collector struct {
	hub           Hub
	peers         *prometheus.Desc
	queued        *prometheus.Desc
	messagesSent  *prometheus.Desc
	messagesRecv  *prometheus.Desc
	handlerErrors *prometheus.Desc
}

func NewCollector(h Hub) *Collector {
	labels := prometheus.Labels{"hub": h.Name()}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc("directory_hub_"+name, help, nil, labels)
	}

	return &Collector{
		hub:           h,
		peers:         desc("peers", "Registered peers."),
		queued:        desc("queued_messages", "Messages waiting for delivery."),
		messagesSent:  desc("messages_sent_total", "Messages accepted for delivery."),
		messagesRecv:  desc("messages_received_total", "Messages handed to peer handlers."),
		handlerErrors: desc("handler_errors_total", "Peer handler invocations that returned an error."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.peers
	ch <- c.queued
	ch <- c.messagesSent
	ch <- c.messagesRecv
	ch <- c.handlerErrors
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.hub.Metrics()

	ch <- prometheus.MustNewConstMetric(c.peers, prometheus.GaugeValue, float64(m.Peers))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(m.Queued))
	ch <- prometheus.MustNewConstMetric(c.messagesSent, prometheus.CounterValue, float64(m.MessagesSent))
	ch <- prometheus.MustNewConstMetric(c.messagesRecv, prometheus.CounterValue, float64(m.MessagesRecv))
	ch <- prometheus.MustNewConstMetric(c.handlerErrors, prometheus.CounterValue, float64(m.HandlerErrors))
}
