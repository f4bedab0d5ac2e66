package hub

import (
	"log/slog"
	"time"
)

// Config defines configuration for a Hub instance. Durations decode from
// strings such as "25ms" in YAML and from nanosecond integers in JSON.
type Config struct {
	Name              string        `json:"name,omitempty" yaml:"name,omitempty"`
	ChannelBufferSize int           `json:"channel_buffer_size,omitempty" yaml:"channel_buffer_size,omitempty"`
	Latency           time.Duration `json:"latency,omitempty" yaml:"latency,omitempty"`
	Jitter            time.Duration `json:"jitter,omitempty" yaml:"jitter,omitempty"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with immediate delivery.
func DefaultConfig() Config {
	return Config{
		Name:              "directory",
		ChannelBufferSize: 256,
		Logger:            slog.Default(),
	}
}

func (c *Config) Merge(source *Config) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.ChannelBufferSize > 0 {
		c.ChannelBufferSize = source.ChannelBufferSize
	}

	if source.Latency > 0 {
		c.Latency = source.Latency
	}

	if source.Jitter > 0 {
		c.Jitter = source.Jitter
	}

	if source.Logger != nil {
		c.Logger = source.Logger
	}
}
