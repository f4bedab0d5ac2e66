package record

import "errors"

// Sentinel errors for record operations.
var (
	// ErrInvalidArgument marks a malformed nickname, fields map, or agent id.
	// It is returned before any state changes.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRecordExists is returned by Create when the agent already has a
	// current record.
	ErrRecordExists = errors.New("record already exists")
	// ErrNoRecord is returned by Update when the agent has no record to supersede.
	ErrNoRecord        = errors.New("no record for agent")
	ErrVersionNotFound = errors.New("version not found")
	ErrCorrupt         = errors.New("corrupt record data")
)
