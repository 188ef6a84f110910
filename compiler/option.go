package compiler

import (
	"errors"
	"runtime"

	"go.uber.org/zap"
)

// Config holds the pipeline settings.
type Config struct {
	// StrictMetrics drops metrics whose expression has no resolvable
	// reference instead of keeping them with an advisory.
	StrictMetrics bool
	// Workers bounds concurrent document parsing.
	Workers int
	// Logger receives stage summaries at debug level and advisories at
	// warn level.
	Logger *zap.Logger
}

// Option configures the pipeline.
type Option func(*Config) error

// NewConfig returns the default config with opts applied.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Workers: runtime.GOMAXPROCS(0),
		Logger:  zap.NewNop(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// WithStrictMetrics drops unresolved metrics from the composed model.
func WithStrictMetrics() Option {
	return func(c *Config) error {
		c.StrictMetrics = true
		return nil
	}
}

// WithWorkers sets the maximum number of documents parsed concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "must be at least 1")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
