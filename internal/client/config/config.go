// Package config handles configuration for the terminal client,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the AUBoutique client.
//
// Fields:
//   - ServerAddr: host:port of the coordination server.
//   - PeerListenAddr: bind address for the peer-message listener started at
//     login; port 0 asks the OS for an ephemeral port, which is then
//     advertised to the server in the login request.
//   - RequestTimeout: per-request dial/read/write deadline.
type Config struct {
	ServerAddr     string
	PeerListenAddr string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:8080"
	c.PeerListenAddr = "127.0.0.1:0"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
