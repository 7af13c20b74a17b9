package config

import (
	"flag"
	"os"
	"time"

	"auboutique/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   server address (host:port)
//	-l string   peer listener bind address (host:port, port 0 = ephemeral)
//	-t int      request timeout, seconds
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-l", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ServerAddr, "s", config.ServerAddr, "server address")
	fs.StringVar(&config.PeerListenAddr, "l", config.PeerListenAddr, "peer listener bind address")

	requestTimeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
