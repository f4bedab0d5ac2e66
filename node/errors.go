package node

import "errors"

// ErrClosed is returned by writes issued after Close.
var ErrClosed = errors.New("node is closed")
