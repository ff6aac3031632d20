package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kilianp07/energyflow/infra/backend"
)

// BackendConfig points at the dashboard REST backend.
type BackendConfig struct {
	BaseURL string `json:"base_url"`
	// TimeoutMS bounds each request. Zero leaves requests unbounded.
	TimeoutMS int    `json:"timeout_ms"`
	UserAgent string `json:"user_agent"`
}

func (c *BackendConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8083"
	}
}

func (c BackendConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https")
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("timeout_ms must not be negative")
	}
	return nil
}

// Options converts the section into backend client options.
func (c BackendConfig) Options() backend.Options {
	return backend.Options{
		BaseURL:   c.BaseURL,
		Timeout:   time.Duration(c.TimeoutMS) * time.Millisecond,
		UserAgent: c.UserAgent,
	}
}
