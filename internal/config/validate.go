package config

import (
	"fmt"
	"net/url"
	"strings"

	bodhi "github.com/navana-tech/bodhi-go"
)

func (c *Config) Validate() error {
	// Connection
	u, err := url.Parse(c.Connection.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return fmt.Errorf("invalid connection.url: %q (must be a ws:// or wss:// URL)", c.Connection.URL)
	}
	if c.Connection.APIKey == "" {
		return fmt.Errorf("API key required: not found in config (connection.api_key) or environment variable (%s)", bodhi.EnvAPIKey)
	}
	if c.Connection.CustomerID == "" {
		return fmt.Errorf("customer ID required: not found in config (connection.customer_id) or environment variable (%s)", bodhi.EnvCustomerID)
	}
	if c.Connection.KeepAlive && c.Connection.KeepAliveInterval <= 0 {
		return fmt.Errorf("invalid connection.keep_alive_interval: %v", c.Connection.KeepAliveInterval)
	}
	if c.Connection.ConnectTimeout < 0 {
		return fmt.Errorf("invalid connection.connect_timeout: %v", c.Connection.ConnectTimeout)
	}
	if c.Connection.DownloadTimeout < 0 {
		return fmt.Errorf("invalid connection.download_timeout: %v", c.Connection.DownloadTimeout)
	}

	// Transcription
	if strings.TrimSpace(c.Transcription.Model) == "" {
		return fmt.Errorf("invalid transcription.model: empty")
	}
	for i, hw := range c.Transcription.Hotwords {
		if strings.TrimSpace(hw.Phrase) == "" {
			return fmt.Errorf("invalid transcription.hotwords[%d].phrase: empty", i)
		}
		if hw.Score < 0 {
			return fmt.Errorf("invalid transcription.hotwords[%d].score: %v", i, hw.Score)
		}
	}

	return nil
}
