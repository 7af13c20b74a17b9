package config

import (
	"encoding/json"
	"os"

	"auboutique/internal/flagx"
	"auboutique/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify timeouts either as strings like
// "30s" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config (which uses time.Duration).
type JsonConfig struct {
	EndpointAddr string         `json:"endpoint_addr"`
	DatabaseDSN  string         `json:"database_dsn"`
	EmailDomain  string         `json:"email_domain"`
	ReadTimeout  timex.Duration `json:"read_timeout"`
	WriteTimeout timex.Duration `json:"write_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config command-line flags via
// flagx.JsonConfigFlags(); if neither is set, no JSON is loaded. Read or
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.EndpointAddr = jc.EndpointAddr
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.EmailDomain = jc.EmailDomain
	cfg.ReadTimeout = jc.ReadTimeout.Duration
	cfg.WriteTimeout = jc.WriteTimeout.Duration
}
