package node

import "github.com/tailored-agentic-units/directory/observability"

// Node event types.
const (
	EventRecordCreate observability.EventType = "node.record.create"
	EventRecordUpdate observability.EventType = "node.record.update"
	EventEntryPublish observability.EventType = "node.entry.publish"
	EventEntryMerge   observability.EventType = "node.entry.merge"
	EventEntryStale   observability.EventType = "node.entry.stale"
	EventEntryReject  observability.EventType = "node.entry.reject"
	EventAnnounce     observability.EventType = "node.announce"
	EventError        observability.EventType = "node.error"
)

// TopicEntries carries every node's own current entry after each write.
const TopicEntries = "directory.entries"
