package store_test

import (
	"errors"
	"io"
	"testing"

	"github.com/tailored-agentic-units/directory/store"
)

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	if cfg.Backend != store.BackendMemory {
		t.Errorf("got Backend %q, want %q", cfg.Backend, store.BackendMemory)
	}
	if cfg.Path != "" {
		t.Errorf("got Path %q, want empty string", cfg.Path)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := store.DefaultConfig()

	cfg.Merge(&store.Config{Backend: store.BackendFile, Path: "/data/directory"})

	if cfg.Backend != store.BackendFile {
		t.Errorf("got Backend %q, want %q", cfg.Backend, store.BackendFile)
	}
	if cfg.Path != "/data/directory" {
		t.Errorf("got Path %q, want %q", cfg.Path, "/data/directory")
	}
}

func TestConfig_Merge_EmptyPreservesDefault(t *testing.T) {
	cfg := store.Config{Backend: store.BackendBadger, Path: "/original"}

	cfg.Merge(&store.Config{})

	if cfg.Backend != store.BackendBadger || cfg.Path != "/original" {
		t.Errorf("got %+v, want values preserved", cfg)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     store.Config
		wantErr error
		closer  bool
	}{
		{name: "memory", cfg: store.Config{Backend: store.BackendMemory}, closer: true},
		{name: "empty backend is memory", cfg: store.Config{}, closer: true},
		{name: "file", cfg: store.Config{Backend: store.BackendFile, Path: "PLACEHOLDER"}},
		{name: "badger", cfg: store.Config{Backend: store.BackendBadger, Path: "PLACEHOLDER"}, closer: true},
		{name: "unknown", cfg: store.Config{Backend: "etcd"}, wantErr: store.ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if cfg.Path == "PLACEHOLDER" {
				cfg.Path = t.TempDir()
			}

			s, err := store.New(&cfg, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			c, ok := s.(io.Closer)
			if ok != tt.closer {
				t.Errorf("store implements io.Closer = %v, want %v", ok, tt.closer)
			}
			if ok {
				c.Close()
			}
		})
	}
}

func TestNew_FileRequiresPath(t *testing.T) {
	if _, err := store.New(&store.Config{Backend: store.BackendFile}, nil); err == nil {
		t.Error("New() should fail for file backend without path")
	}
}
