// Package config loads settings from a file with environment overrides,
// struct-tag defaults and validation, and reloads them when the file changes.
package config

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/kochabx/stepviz/core/validator"
	"github.com/kochabx/stepviz/log"
)

// Config manages application configuration
type Config struct {
	mu       sync.RWMutex
	viper    *viper.Viper
	validate validator.Validator
	target   any
	loader   Loader
	file     string
	paths    []string
	onChange []func()
	logger   *log.Logger
}

// New creates a new Config instance with the given options
// If no loader is provided, a FileLoader reads "stepviz.yaml" from ".".
func New(target any, opts ...Option) *Config {
	c := &Config{
		viper:    viper.New(),
		validate: validator.Validate,
		target:   target,
		file:     "stepviz.yaml",
		paths:    []string{"."},
		logger:   log.G,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.loader == nil {
		c.loader = NewFileLoader(c.file, c.paths, c.viper, c.validate)
	}

	return c
}

// Load reads the configuration using the configured loader
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loader.Load(c.target)
}

// Reload reloads the configuration from the loader
func (c *Config) Reload() error {
	return c.Load()
}

// Read runs fn under the read lock so a reload cannot race with it.
func (c *Config) Read(fn func()) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn()
}

// Watch reloads the configuration whenever the file changes
func (c *Config) Watch() error {
	return c.loader.Watch(func() {
		c.logger.Info().Msg("config change detected")

		if err := c.Reload(); err != nil {
			c.logger.Error().Err(err).Msg("failed to reload config after change")
			return
		}

		c.logger.Info().Msg("config reloaded successfully")
		for _, fn := range c.onChange {
			fn()
		}
	})
}

// Viper returns the underlying viper instance
func (c *Config) Viper() *viper.Viper {
	return c.viper
}
