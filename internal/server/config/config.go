// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the AUBoutique server.
//
// Fields:
//   - EndpointAddr: bind address for the TCP endpoint.
//   - DatabaseDSN: postgres:// DSN for PostgreSQL, a file path for SQLite,
//     or "memory" to run without persistence.
//   - EmailDomain: required email suffix for registration.
//   - ReadTimeout / WriteTimeout: per-request connection deadlines.
type Config struct {
	EndpointAddr string
	DatabaseDSN  string
	EmailDomain  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = "auboutique.db"
	c.EmailDomain = "@mail.aub.edu"
	c.ReadTimeout = 30 * time.Second
	c.WriteTimeout = 30 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
