package config

import "time"

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`

	// AttributionWindow bounds how far back a payment may be attributed
	// to a pending signup attempt. Zero means the 6 hour default.
	AttributionWindow time.Duration `yaml:"attribution_window"`
}

type RecurlyConfig struct {
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	APIKey     string        `yaml:"api_key" validate:"required"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}
