package config

import (
	"flag"
	"os"
	"time"

	"auboutique/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   TCP bind address (e.g., ":8080")
//	-d string   database DSN (postgres:// URL or SQLite file path)
//	-m string   required registration email domain
//	-r int      per-request read timeout, seconds
//	-w int      per-request write timeout, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-m", "-r", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.EmailDomain, "m", config.EmailDomain, "required registration email domain")

	readTimeout := fs.Int("r", int(config.ReadTimeout.Seconds()), "read timeout (in seconds)")
	writeTimeout := fs.Int("w", int(config.WriteTimeout.Seconds()), "write timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ReadTimeout = time.Duration(*readTimeout) * time.Second
	config.WriteTimeout = time.Duration(*writeTimeout) * time.Second
}
