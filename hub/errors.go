package hub

import "errors"

var (
	ErrPeerExists      = errors.New("peer already registered")
	ErrPeerNotFound    = errors.New("peer not found")
	ErrHubClosed       = errors.New("hub is shut down")
	ErrShutdownTimeout = errors.New("hub shutdown timed out")
)
