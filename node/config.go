package node

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/directory/hub"
	"github.com/tailored-agentic-units/directory/store"
)

// Config holds initialization parameters for a node and the hub it joins.
type Config struct {
	// Agent is the token of the agent this node acts for. A fresh agent ID is
	// generated when empty.
	Agent string       `json:"agent,omitempty" yaml:"agent,omitempty"`
	Store store.Config `json:"store" yaml:"store"`
	Hub   hub.Config   `json:"hub" yaml:"hub"`

	// ResyncInterval re-announces the node periodically so peers resend
	// their entries. Zero disables periodic resync.
	ResyncInterval time.Duration `json:"resync_interval,omitempty" yaml:"resync_interval,omitempty"`

	// Observer names a registered observer ("slog", "noop", or one added
	// with observability.RegisterObserver). Empty uses a SlogObserver over
	// the node's logger.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`
}

// DefaultConfig returns a Config with an in-memory store and no resync.
func DefaultConfig() Config {
	return Config{
		Store: store.DefaultConfig(),
		Hub:   hub.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	c.Hub.Merge(&source.Hub)

	if source.Agent != "" {
		c.Agent = source.Agent
	}
	if source.ResyncInterval > 0 {
		c.ResyncInterval = source.ResyncInterval
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a config file, merges it with defaults, and returns the
// resulting Config. Files ending in .yaml or .yml are parsed as YAML; any
// other file is parsed as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
