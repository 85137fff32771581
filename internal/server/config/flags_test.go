package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-i", "127.0.0.1:9091", "-u", "https://docs.example",
				"-b", "memory", "-k", "box", "-s", "secret", "-t", "15m", "-d", "db", "-l", "debug",
			},
			expected: &Config{
				ServerAddr:     "127.0.0.1:9090",
				InternalAddr:   "127.0.0.1:9091",
				BaseURL:        "https://docs.example",
				StorageBackend: "memory",
				Container:      "box",
				JWTSecret:      "secret",
				SessionTTL:     15 * time.Minute,
				DatabaseDSN:    "db",
				LogLevel:       slog.LevelDebug,
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "cfg.json", "-env-file", "x.env", "-s", "k"},
			expected: &Config{JWTSecret: "k"},
		},
		{
			name:    "bad duration",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
