package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/officebridge/internal/flagx"
)

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     public API bind address (e.g. ":3000")
//	-i string     internal session API bind address
//	-u string     public base URL used for editor callbacks
//	-b string     storage backend: azure, s3 or memory
//	-k string     blob container name
//	-s string     JWT HMAC secret
//	-t duration   session and signed URL lifetime (e.g. "1h")
//	-d string     PostgreSQL DSN for the callback journal
//	-l string     log level (debug, info, warn, error)
//
// Args are filtered through flagx.FilterArgs first so the -c and -env-file
// flags consumed by the other layers are not rejected here.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-u", "-b", "-k", "-s", "-t", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ServerAddr, "a", config.ServerAddr, "address and port to run public API")
	fs.StringVar(&config.InternalAddr, "i", config.InternalAddr, "address and port to run internal API")
	fs.StringVar(&config.BaseURL, "u", config.BaseURL, "public base URL")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend")
	fs.StringVar(&config.Container, "k", config.Container, "blob container")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "jwt secret")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session ttl")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.TextVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
