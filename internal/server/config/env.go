package config

import (
	"errors"
	"io/fs"

	"github.com/dmitrijs2005/officebridge/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotenv is a seam for tests.
var loadDotenv = godotenv.Load

// parseEnv loads the .env file (the one named by -env-file, or ./.env when
// present) into the process environment without overriding variables that
// are already set, then overlays every known variable onto config.
func parseEnv(config *Config, args []string) error {
	if path := flagx.EnvFilePath(args); path != "" {
		if err := loadDotenv(path); err != nil {
			return err
		}
	} else if err := loadDotenv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	var ge getenv

	config.ServerAddr = ge.String("SERVER_ADDR", false, config.ServerAddr)
	config.InternalAddr = ge.String("INTERNAL_ADDR", false, config.InternalAddr)
	config.BaseURL = ge.String("BASE_URL", false, config.BaseURL)
	config.LogLevel = ge.LogLevel("LOG_LEVEL", false, config.LogLevel)
	config.LogPlaintext = ge.Bool("LOG_PLAINTEXT", false, config.LogPlaintext)
	config.StorageBackend = ge.String("STORAGE_BACKEND", false, config.StorageBackend)
	config.AzureConnectionString = ge.String("AZURE_STORAGE_CONNECTION_STRING", false, config.AzureConnectionString)
	config.AzureAccountName = ge.String("AZURE_STORAGE_ACCOUNT_NAME", false, config.AzureAccountName)
	config.AzureAccountKey = ge.String("AZURE_STORAGE_ACCOUNT_KEY", false, config.AzureAccountKey)
	config.AzureServiceURL = ge.String("AZURE_STORAGE_SERVICE_URL", false, config.AzureServiceURL)
	config.Container = ge.String("AZURE_STORAGE_CONTAINER", false, config.Container)
	config.S3RootUser = ge.String("S3_ROOT_USER", false, config.S3RootUser)
	config.S3RootPassword = ge.String("S3_ROOT_PASSWORD", false, config.S3RootPassword)
	config.S3Bucket = ge.String("S3_BUCKET", false, config.S3Bucket)
	config.S3Region = ge.String("S3_REGION", false, config.S3Region)
	config.S3BaseEndpoint = ge.String("S3_BASE_ENDPOINT", false, config.S3BaseEndpoint)
	config.JWTSecret = ge.String("ONLYOFFICE_JWT_SECRET", false, config.JWTSecret)
	config.SessionTTL = ge.Duration("SESSION_TTL", false, config.SessionTTL)
	config.CallbackVerifyToken = ge.Bool("CALLBACK_VERIFY_TOKEN", false, config.CallbackVerifyToken)
	config.CallbackAllowedHosts = ge.Strings("CALLBACK_ALLOWED_HOSTS", false, config.CallbackAllowedHosts)
	config.DownloadTimeout = ge.Duration("DOWNLOAD_TIMEOUT", false, config.DownloadTimeout)
	config.MaxDownloadBytes = ge.Int64("DOWNLOAD_MAX_BYTES", false, config.MaxDownloadBytes)
	config.DatabaseDSN = ge.String("DATABASE_DSN", false, config.DatabaseDSN)
	config.ShutdownTimeout = ge.Duration("SHUTDOWN_TIMEOUT", false, config.ShutdownTimeout)

	return ge.Err()
}
