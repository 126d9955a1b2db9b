package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	bodhi "github.com/navana-tech/bodhi-go"
)

// createTestConfig returns a valid configuration for testing
func createTestConfig() *Config {
	config := DefaultConfig()
	config.Connection.APIKey = "test-key"
	config.Connection.CustomerID = "test-customer"
	return config
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(bodhi.EnvAPIKey, "")
	t.Setenv(bodhi.EnvCustomerID, "")
	t.Setenv(EnvURL, "")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name:    "http url",
			modify:  func(c *Config) { c.Connection.URL = "http://bodhi.navana.ai" },
			wantErr: "connection.url",
		},
		{
			name:    "missing api key",
			modify:  func(c *Config) { c.Connection.APIKey = "" },
			wantErr: bodhi.EnvAPIKey,
		},
		{
			name:    "missing customer id",
			modify:  func(c *Config) { c.Connection.CustomerID = "" },
			wantErr: bodhi.EnvCustomerID,
		},
		{
			name: "keep alive without interval",
			modify: func(c *Config) {
				c.Connection.KeepAlive = true
				c.Connection.KeepAliveInterval = 0
			},
			wantErr: "keep_alive_interval",
		},
		{
			name:    "empty model",
			modify:  func(c *Config) { c.Transcription.Model = " " },
			wantErr: "transcription.model",
		},
		{
			name: "empty hotword",
			modify: func(c *Config) {
				c.Transcription.Hotwords = []HotwordConfig{{Phrase: "ok"}, {Phrase: ""}}
			},
			wantErr: "hotwords[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[connection]
url = "wss://example.test/asr"
api_key = "file-key"
customer_id = "file-customer"
keep_alive = true
keep_alive_interval = "5s"

[transcription]
model = "en-general-v2-8khz"
parse_number = true
chunk_interval = "50ms"

[[transcription.hotwords]]
phrase = "Navana"
score = 1.5
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if config.Connection.URL != "wss://example.test/asr" {
		t.Errorf("URL = %q", config.Connection.URL)
	}
	if config.Connection.KeepAliveInterval != 5*time.Second {
		t.Errorf("KeepAliveInterval = %v, want 5s", config.Connection.KeepAliveInterval)
	}
	if config.Connection.ConnectTimeout != bodhi.DefaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want default", config.Connection.ConnectTimeout)
	}
	if config.Transcription.ChunkInterval != 50*time.Millisecond {
		t.Errorf("ChunkInterval = %v, want 50ms", config.Transcription.ChunkInterval)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	opts := config.ToTranscriptionOptions()
	if opts.Model != "en-general-v2-8khz" || !opts.ParseNumber {
		t.Errorf("unexpected transcription options: %+v", opts)
	}
	if len(opts.Hotwords) != 1 || opts.Hotwords[0].Phrase != "Navana" || opts.Hotwords[0].Score != 1.5 {
		t.Errorf("unexpected hotwords: %+v", opts.Hotwords)
	}

	clientOpts := config.ToClientOptions()
	if !clientOpts.KeepAlive || clientOpts.WebSocketURL != "wss://example.test/asr" {
		t.Errorf("unexpected client options: %+v", clientOpts)
	}

	creds := config.Credentials()
	if creds.APIKey != "file-key" || creds.CustomerID != "file-customer" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[connection]
api_key = "file-key"
customer_id = "file-customer"
`)
	t.Setenv(bodhi.EnvAPIKey, "env-key")
	t.Setenv(bodhi.EnvCustomerID, "")
	t.Setenv(EnvURL, "ws://localhost:9000")

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if config.Connection.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", config.Connection.APIKey)
	}
	if config.Connection.CustomerID != "file-customer" {
		t.Errorf("CustomerID = %q, want file value kept", config.Connection.CustomerID)
	}
	if config.Connection.URL != "ws://localhost:9000" {
		t.Errorf("URL = %q, want env override", config.Connection.URL)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if config.Transcription.Model != bodhi.DefaultModel {
		t.Errorf("Model = %q, want default", config.Transcription.Model)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "[connection\nurl = 1"},
		{name: "wrong type", content: "[transcription]\nparse_number = \"yes\""},
		{name: "unknown key", content: "[connection]\napi_secret = \"x\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error: %v", err)
	}
	if want := filepath.Join(dir, "bodhi", "config.toml"); path != want {
		t.Errorf("GetConfigPath() = %q, want %q", path, want)
	}
}
