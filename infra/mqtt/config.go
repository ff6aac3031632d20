package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Config defines the connection and topic settings of the MQTT publisher.
type Config struct {
	Enabled    bool        `json:"enabled"`
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	BaseTopic  string      `json:"base_topic"`
	QoS        byte        `json:"qos"`
	Retain     bool        `json:"retain"`
	MaxRetries *int        `json:"max_retries"`
	BackoffMS  int         `json:"backoff_ms"`
	TLSConfig  *tls.Config `json:"-"`
}

// DefaultMaxRetries is used when max_retries is not set. An explicit 0
// disables retries.
const DefaultMaxRetries = 3

// Retries returns how many times a failed publish is repeated.
func (c Config) Retries() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.MaxRetries
}

// SetDefaults applies the default topic and retry settings.
func (c *Config) SetDefaults() {
	if c.BaseTopic == "" {
		c.BaseTopic = "energyflow"
	}
	c.BaseTopic = strings.TrimSuffix(c.BaseTopic, "/")
	if c.ClientID == "" {
		c.ClientID = "energyflow-" + uuid.NewString()[:8]
	}
	if c.MaxRetries == nil {
		n := DefaultMaxRetries
		c.MaxRetries = &n
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the settings of an enabled publisher.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return errors.New("broker is required when mqtt is enabled")
	}
	if c.Retries() < 0 {
		return errors.New("max_retries must not be negative")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", c.QoS)
	}
	if strings.ContainsAny(c.BaseTopic, "+#") {
		return fmt.Errorf("base_topic %q must not contain wildcards", c.BaseTopic)
	}
	return nil
}

// Backoff returns the delay before the first retry.
func (c Config) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// StatusTopic is the availability topic carrying online/offline.
func (c Config) StatusTopic() string { return c.BaseTopic + "/status" }

// FlowTopic carries the latest flow view.
func (c Config) FlowTopic() string { return c.BaseTopic + "/flow" }

// SourceTopic carries the poll status of one backend source.
func (c Config) SourceTopic(name string) string { return c.BaseTopic + "/source/" + name }

// NewClientOptions builds mqtt client options from Config. The last will
// marks the publisher offline on the status topic.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	opts.SetConnectTimeout(10 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(cfg.StatusTopic(), PayloadOffline, cfg.QoS, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
// Without a client certificate only the CA bundle is used.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CABundle != "" {
		caBytes, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("no certificates in %s", c.CABundle)
		}
		cfg.RootCAs = pool
	}
	if c.ClientCert != "" || c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
