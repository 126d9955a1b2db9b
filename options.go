package bodhi

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultWebSocketURL      = "wss://bodhi.navana.ai"
	DefaultModel             = "hi-banking-v2-8khz"
	DefaultJobQueueSize      = 64
	DefaultEventQueueSize    = 256
	DefaultKeepAliveInterval = 20 * time.Second
	DefaultConnectTimeout    = 30 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultDownloadTimeout   = 30 * time.Second
	DefaultChunkDuration     = 100 * time.Millisecond

	EnvAPIKey     = "BODHI_API_KEY"
	EnvCustomerID = "BODHI_CUSTOMER_ID"
)

// Credentials authenticate the client against the backend. They are only
// held in memory for the lifetime of a connection attempt.
type Credentials struct {
	APIKey     string
	CustomerID string
}

// CredentialsFromEnv reads BODHI_API_KEY and BODHI_CUSTOMER_ID.
func CredentialsFromEnv() Credentials {
	return Credentials{
		APIKey:     os.Getenv(EnvAPIKey),
		CustomerID: os.Getenv(EnvCustomerID),
	}
}

func (c Credentials) valid() bool {
	return c.APIKey != "" && c.CustomerID != ""
}

func (c Credentials) header() http.Header {
	h := http.Header{}
	h.Set("x-api-key", c.APIKey)
	h.Set("x-customer-id", c.CustomerID)
	return h
}

type ClientOptions struct {
	WebSocketURL string

	// JobQueueSize bounds the number of pending outbound requests.
	JobQueueSize int
	// EventQueueSize bounds the number of undelivered events before the
	// reader blocks.
	EventQueueSize int

	KeepAlive         bool
	KeepAliveInterval time.Duration
	ConnectTimeout    time.Duration
	WriteTimeout      time.Duration
	DownloadTimeout   time.Duration

	// ChunkDuration is the amount of audio sent per binary frame.
	ChunkDuration time.Duration
	// ChunkInterval is the pause between frames. Zero means ChunkDuration,
	// which paces file uploads at real time. A negative value disables pacing.
	ChunkInterval time.Duration

	// HTTPClient downloads remote audio. Defaults to an otelhttp-instrumented client.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func (o *ClientOptions) applyDefaults() {
	if o.WebSocketURL == "" {
		o.WebSocketURL = DefaultWebSocketURL
	}
	if o.JobQueueSize <= 0 {
		o.JobQueueSize = DefaultJobQueueSize
	}
	if o.EventQueueSize <= 0 {
		o.EventQueueSize = DefaultEventQueueSize
	}
	if o.KeepAliveInterval == 0 {
		o.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.DownloadTimeout == 0 {
		o.DownloadTimeout = DefaultDownloadTimeout
	}
	if o.ChunkDuration <= 0 {
		o.ChunkDuration = DefaultChunkDuration
	}
	if o.ChunkInterval == 0 {
		o.ChunkInterval = o.ChunkDuration
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Timeout:   o.DownloadTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if o.Logger == nil {
		o.Logger = logger
	}
}

// TranscriptionOptions configure a single transcription request.
type TranscriptionOptions struct {
	Model          string
	TransactionID  string
	ParseNumber    bool
	Hotwords       []Hotword
	Aux            bool
	ExcludePartial bool

	// SampleRate is required for StartStreaming. File and URL sources use
	// the rate from the WAV header.
	SampleRate int
}

func (o *TranscriptionOptions) applyDefaults() {
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.TransactionID == "" {
		o.TransactionID = uuid.NewString()
	}
}

func (o *TranscriptionOptions) toConfig() *ConfigMessage {
	return &ConfigMessage{Config: RequestConfig{
		Model:          o.Model,
		TransactionID:  o.TransactionID,
		SampleRate:     o.SampleRate,
		ParseNumber:    o.ParseNumber,
		Hotwords:       o.Hotwords,
		Aux:            o.Aux,
		ExcludePartial: o.ExcludePartial,
	}}
}
