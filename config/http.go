package config

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Address string `json:"address"`
	Gzip    *bool  `json:"gzip"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8090"
	}
	if c.Gzip == nil {
		on := true
		c.Gzip = &on
	}
}

// GzipEnabled reports whether responses are compressed.
func (c HTTPConfig) GzipEnabled() bool { return c.Gzip == nil || *c.Gzip }
