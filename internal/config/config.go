package config

import (
	"time"

	bodhi "github.com/navana-tech/bodhi-go"
)

type Config struct {
	Connection    ConnectionConfig    `toml:"connection"`
	Transcription TranscriptionConfig `toml:"transcription"`
}

type ConnectionConfig struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	CustomerID string `toml:"customer_id"`

	KeepAlive         bool          `toml:"keep_alive"`
	KeepAliveInterval time.Duration `toml:"keep_alive_interval"`
	ConnectTimeout    time.Duration `toml:"connect_timeout"`
	DownloadTimeout   time.Duration `toml:"download_timeout"`
}

type TranscriptionConfig struct {
	Model          string          `toml:"model"`
	ParseNumber    bool            `toml:"parse_number"`
	ExcludePartial bool            `toml:"exclude_partial"`
	Aux            bool            `toml:"aux"`
	Hotwords       []HotwordConfig `toml:"hotwords"`
	ChunkInterval  time.Duration   `toml:"chunk_interval"`
}

type HotwordConfig struct {
	Phrase string  `toml:"phrase"`
	Score  float64 `toml:"score"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{
			URL:               bodhi.DefaultWebSocketURL,
			KeepAliveInterval: bodhi.DefaultKeepAliveInterval,
			ConnectTimeout:    bodhi.DefaultConnectTimeout,
			DownloadTimeout:   bodhi.DefaultDownloadTimeout,
		},
		Transcription: TranscriptionConfig{
			Model:         bodhi.DefaultModel,
			ChunkInterval: bodhi.DefaultChunkDuration,
		},
	}
}

func (c *Config) ToClientOptions() bodhi.ClientOptions {
	return bodhi.ClientOptions{
		WebSocketURL:      c.Connection.URL,
		KeepAlive:         c.Connection.KeepAlive,
		KeepAliveInterval: c.Connection.KeepAliveInterval,
		ConnectTimeout:    c.Connection.ConnectTimeout,
		DownloadTimeout:   c.Connection.DownloadTimeout,
		ChunkInterval:     c.Transcription.ChunkInterval,
	}
}

func (c *Config) ToTranscriptionOptions() bodhi.TranscriptionOptions {
	opts := bodhi.TranscriptionOptions{
		Model:          c.Transcription.Model,
		ParseNumber:    c.Transcription.ParseNumber,
		ExcludePartial: c.Transcription.ExcludePartial,
		Aux:            c.Transcription.Aux,
	}
	for _, hw := range c.Transcription.Hotwords {
		opts.Hotwords = append(opts.Hotwords, bodhi.Hotword{Phrase: hw.Phrase, Score: hw.Score})
	}
	return opts
}

func (c *Config) Credentials() bodhi.Credentials {
	return bodhi.Credentials{
		APIKey:     c.Connection.APIKey,
		CustomerID: c.Connection.CustomerID,
	}
}
