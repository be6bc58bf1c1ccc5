package config

import (
	"github.com/spf13/viper"

	"github.com/kochabx/stepviz/core/validator"
	"github.com/kochabx/stepviz/log"
)

// Option is a function that configures a Config
type Option func(*Config)

// WithViper sets a custom viper instance
func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

// WithValidator sets a custom validator
func WithValidator(v validator.Validator) Option {
	return func(c *Config) {
		c.validate = v
	}
}

// WithLoader sets the configuration loader
func WithLoader(loader Loader) Option {
	return func(c *Config) {
		c.loader = loader
	}
}

// WithFile sets the configuration file and the directories searched for it
func WithFile(file string, paths ...string) Option {
	return func(c *Config) {
		c.file = file
		c.paths = paths
	}
}

// WithOnChange registers fn to run after every successful reload
func WithOnChange(fn func()) Option {
	return func(c *Config) {
		if fn != nil {
			c.onChange = append(c.onChange, fn)
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}
