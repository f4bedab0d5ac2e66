package store

import (
	"fmt"
	"log/slog"
)

// Supported values for Config.Backend.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config holds store initialization parameters.
type Config struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"` // memory, file, or badger.
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`       // Root directory for file and badger backends.
}

// DefaultConfig returns the default store configuration (in-memory).
func DefaultConfig() Config {
	return Config{Backend: BackendMemory}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// New creates a Store from configuration. The memory backend is BadgerDB in
// in-memory mode. Stores returned for the memory and badger backends must be
// closed through io.Closer.
func New(cfg *Config, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return openBadger(BadgerConfig{InMemory: true, Logger: logger})
	case BackendFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file store requires a path")
		}
		return NewFileStore(cfg.Path), nil
	case BackendBadger:
		return openBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: logger})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func openBadger(cfg BadgerConfig) (Store, error) {
	s, err := OpenBadger(cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
