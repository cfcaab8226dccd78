package fontdata

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
)

// DefaultRecencyCapacity is the number of recently loaded buffers a store
// keeps strongly referenced when no other owner holds them.
const DefaultRecencyCapacity = 24

// Config holds configuration for a Store.
type Config struct {
	// FS is the filesystem local font paths are read from.
	// Defaults to the local disk.
	FS core.ReadFS

	// Logger receives structured logs. Defaults to discarding them.
	Logger *slog.Logger

	// RecencyCapacity bounds the recency cache. Defaults to
	// DefaultRecencyCapacity.
	RecencyCapacity int

	// PreloadConcurrency bounds the number of concurrent reads issued by
	// Preload. Defaults to GOMAXPROCS.
	PreloadConcurrency int
}

// SetDefaults applies default values to unset fields in the configuration.
func (c *Config) SetDefaults() {
	if c.FS == nil {
		c.FS = billy.NewLocal()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.RecencyCapacity == 0 {
		c.RecencyCapacity = DefaultRecencyCapacity
	}
	if c.PreloadConcurrency == 0 {
		c.PreloadConcurrency = runtime.GOMAXPROCS(0)
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.FS == nil {
		return fmt.Errorf("filesystem is required")
	}
	if c.RecencyCapacity <= 0 {
		return fmt.Errorf("recency capacity must be greater than 0")
	}
	if c.PreloadConcurrency <= 0 {
		return fmt.Errorf("preload concurrency must be greater than 0")
	}
	return nil
}

// Option is a functional option for configuring a Store.
type Option func(*Config)

// WithFS sets the filesystem local font paths are read from.
func WithFS(fsys core.ReadFS) Option {
	return func(c *Config) {
		c.FS = fsys
	}
}

// WithLogger sets the slog logger the store writes structured logs to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRecencyCapacity sets the number of buffers kept alive by the
// recency cache.
func WithRecencyCapacity(n int) Option {
	return func(c *Config) {
		c.RecencyCapacity = n
	}
}

// WithPreloadConcurrency bounds the concurrent reads issued by Preload.
func WithPreloadConcurrency(n int) Option {
	return func(c *Config) {
		c.PreloadConcurrency = n
	}
}
