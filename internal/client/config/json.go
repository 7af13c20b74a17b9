package config

import (
	"encoding/json"
	"os"

	"auboutique/internal/flagx"
	"auboutique/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so JSON can specify the timeout either as a string
// like "10s" or as integer nanoseconds.
type JsonConfig struct {
	ServerAddr     string         `json:"server_addr"`
	PeerListenAddr string         `json:"peer_listen_addr"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with values loaded from a JSON file named by the
// -c or -config flags. Without the flag no JSON is loaded; read or
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

	cfg.ServerAddr = jc.ServerAddr
	cfg.PeerListenAddr = jc.PeerListenAddr
	cfg.RequestTimeout = jc.RequestTimeout.Duration
}
