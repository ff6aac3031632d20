// Package infra contains technical adapters: the backend REST client, the
// zerolog logger, metrics sinks, the MQTT publisher and Sentry monitoring.
// These packages depend only on the interfaces defined in the core packages.
package infra
