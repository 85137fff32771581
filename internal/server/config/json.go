package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/officebridge/internal/flagx"
	"github.com/dmitrijs2005/officebridge/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "1h" as well as integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type JsonConfig struct {
	ServerAddr            string         `json:"server_addr"`
	InternalAddr          string         `json:"internal_addr"`
	BaseURL               string         `json:"base_url"`
	LogLevel              string         `json:"log_level"`
	LogPlaintext          *bool          `json:"log_plaintext"`
	StorageBackend        string         `json:"storage_backend"`
	AzureConnectionString string         `json:"azure_connection_string"`
	AzureAccountName      string         `json:"azure_account_name"`
	AzureAccountKey       string         `json:"azure_account_key"`
	AzureServiceURL       string         `json:"azure_service_url"`
	Container             string         `json:"container"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	JWTSecret             string         `json:"jwt_secret"`
	SessionTTL            timex.Duration `json:"session_ttl"`
	CallbackVerifyToken   *bool          `json:"callback_verify_token"`
	CallbackAllowedHosts  []string       `json:"callback_allowed_hosts"`
	DownloadTimeout       timex.Duration `json:"download_timeout"`
	MaxDownloadBytes      int64          `json:"max_download_bytes"`
	DatabaseDSN           string         `json:"database_dsn"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the file named by -c/-config. Without
// the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.JSONConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.ServerAddr, c.ServerAddr)
	setString(&config.InternalAddr, c.InternalAddr)
	setString(&config.BaseURL, c.BaseURL)
	if c.LogLevel != "" {
		if err := config.LogLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return err
		}
	}
	if c.LogPlaintext != nil {
		config.LogPlaintext = *c.LogPlaintext
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.AzureConnectionString, c.AzureConnectionString)
	setString(&config.AzureAccountName, c.AzureAccountName)
	setString(&config.AzureAccountKey, c.AzureAccountKey)
	setString(&config.AzureServiceURL, c.AzureServiceURL)
	setString(&config.Container, c.Container)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.JWTSecret, c.JWTSecret)
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.CallbackVerifyToken != nil {
		config.CallbackVerifyToken = *c.CallbackVerifyToken
	}
	if c.CallbackAllowedHosts != nil {
		config.CallbackAllowedHosts = c.CallbackAllowedHosts
	}
	if c.DownloadTimeout.Duration != 0 {
		config.DownloadTimeout = c.DownloadTimeout.Duration
	}
	if c.MaxDownloadBytes != 0 {
		config.MaxDownloadBytes = c.MaxDownloadBytes
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
