// Package config handles configuration for the server component,
// including defaults, a JSON overlay, environment variables (optionally
// loaded from a .env file) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"
)

// Storage backends understood by storage.New.
const (
	BackendAzure  = "azure"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config holds runtime settings for the document bridge server.
//
// Fields:
//   - ServerAddr: bind address for the public documents API.
//   - InternalAddr: bind address for the server-side session endpoint.
//   - BaseURL: externally reachable URL of ServerAddr, used to build editor callback URLs.
//   - StorageBackend: one of azure, s3, memory.
//   - Azure*: blob service credentials; a connection string wins over name+key.
//   - Container: blob container (azure) holding the documents.
//   - S3*: S3-compatible backend settings.
//   - JWTSecret: HMAC secret shared with the document server (HS256).
//   - SessionTTL: lifetime of both the signed download URL and the session token.
//   - CallbackVerifyToken: require a valid JWT on editor callbacks.
//   - CallbackAllowedHosts: hosts the editor may point save URLs at; empty allows any.
//   - DownloadTimeout / MaxDownloadBytes: limits for fetching edited documents.
//   - DatabaseDSN: PostgreSQL DSN (pgx) for the callback journal; empty keeps it in memory.
type Config struct {
	ServerAddr            string
	InternalAddr          string
	BaseURL               string
	LogLevel              slog.Level
	LogPlaintext          bool
	StorageBackend        string
	AzureConnectionString string
	AzureAccountName      string
	AzureAccountKey       string
	AzureServiceURL       string
	Container             string
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
	JWTSecret             string
	SessionTTL            time.Duration
	CallbackVerifyToken   bool
	CallbackAllowedHosts  []string
	DownloadTimeout       time.Duration
	MaxDownloadBytes      int64
	DatabaseDSN           string
	ShutdownTimeout       time.Duration
}

// LoadDefaults populates Config with development defaults. The JWT secret
// has no default and must be supplied.
func (c *Config) LoadDefaults() {
	c.ServerAddr = ":3000"
	c.InternalAddr = "127.0.0.1:3001"
	c.BaseURL = "http://localhost:3000"
	c.LogLevel = slog.LevelInfo
	c.StorageBackend = BackendAzure
	c.AzureAccountName = "camundapoc"
	c.Container = "documents"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "documents"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.SessionTTL = time.Hour
	c.DownloadTimeout = time.Minute
	c.MaxDownloadBytes = 100 << 20
	c.ShutdownTimeout = 30 * time.Second
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base url is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL))
	}
	if !slices.Contains([]string{BackendAzure, BackendS3, BackendMemory}, c.StorageBackend) {
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}
	if c.StorageBackend == BackendAzure && c.AzureConnectionString == "" && c.AzureAccountKey == "" {
		errs = append(errs, errors.New("azure backend needs a connection string or an account key"))
	}

	return errors.Join(errs...)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
