package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
instance:
  id: live-1
feed:
  tickers:
    - KXNFLGAME-25SEP13DETGB-DET
    - KXNFLGAME-25SEP13DETGB-GB
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Instance.ID != "live-1" {
		t.Errorf("Instance.ID = %q, want live-1", cfg.Instance.ID)
	}
	if len(cfg.Feed.Tickers) != 2 {
		t.Errorf("len(Feed.Tickers) = %d, want 2", len(cfg.Feed.Tickers))
	}

	// Load alone applies no defaults.
	if cfg.API.WSURL != "" {
		t.Errorf("WSURL = %q, want empty before defaults", cfg.API.WSURL)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	path := writeConfig(t, `
instance:
  id: live-1
metadata:
  source: postgres
  database:
    host: localhost
    name: kalshi
    user: live
    password: ${TEST_DB_PASSWORD}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metadata.Database.Password != "s3cret" {
		t.Errorf("Password = %q, want s3cret", cfg.Metadata.Database.Password)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}

	if cfg.API.WSURL != DefaultWSURL {
		t.Errorf("WSURL = %q, want %q", cfg.API.WSURL, DefaultWSURL)
	}
	if len(cfg.Feed.Channels) != 1 || cfg.Feed.Channels[0] != "orderbook_delta" {
		t.Errorf("Channels = %v, want [orderbook_delta]", cfg.Feed.Channels)
	}
	if cfg.Feed.ReconnectMaxDelay != DefaultReconnectMaxDelay {
		t.Errorf("ReconnectMaxDelay = %v", cfg.Feed.ReconnectMaxDelay)
	}
	if cfg.Metadata.Source != "api" {
		t.Errorf("Metadata.Source = %q, want api", cfg.Metadata.Source)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoadAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: minimalConfig,
		},
		{
			name:    "missing instance id",
			yaml:    "feed:\n  tickers: [A]\n",
			wantErr: "instance.id",
		},
		{
			name: "bad metadata source",
			yaml: `
instance:
  id: live-1
metadata:
  source: redis
`,
			wantErr: "metadata.source",
		},
		{
			name: "postgres source requires database",
			yaml: `
instance:
  id: live-1
metadata:
  source: postgres
`,
			wantErr: "metadata.database.host",
		},
		{
			name: "bad port",
			yaml: `
instance:
  id: live-1
server:
  port: 700000
`,
			wantErr: "server.port",
		},
		{
			name: "backoff inversion",
			yaml: `
instance:
  id: live-1
feed:
  reconnect_base_delay: 5m
  reconnect_max_delay: 1s
`,
			wantErr: "reconnect_base_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.yaml)
			_, err := LoadAndValidate(path)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("LoadAndValidate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
