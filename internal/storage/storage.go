// Package storage remembers which article URLs were already emitted across runs.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks emitted article IDs (see domain.HashURL).
type Store interface {
	Close() error
	Emitted(id string) (bool, error)
	MarkEmitted(id string) error
}

// Options controls retention for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	// Now overrides the wall clock; nil means time.Now.
	Now func() time.Time
}

const (
	defaultTTL             = 2 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                 { return nil }
func (noopStore) Emitted(string) (bool, error) { return false, nil }
func (noopStore) MarkEmitted(string) error     { return nil }
