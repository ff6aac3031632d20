package config

import "time"

// SentryConfig defines settings for Sentry error monitoring. Monitoring is
// disabled when DSN is empty.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
	// FlushTimeoutMS bounds the flush of buffered events on shutdown.
	FlushTimeoutMS int `json:"flush_timeout_ms"`
}

// FlushTimeout returns the shutdown flush timeout, two seconds by default.
func (c SentryConfig) FlushTimeout() time.Duration {
	if c.FlushTimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.FlushTimeoutMS) * time.Millisecond
}
