package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	bodhi "github.com/navana-tech/bodhi-go"
	"github.com/navana-tech/bodhi-go/internal/config"
	"github.com/spf13/cobra"
)

type transcribeFlags struct {
	url            string
	model          string
	parseNumber    bool
	excludePartial bool
	hotwords       []string
	sampleRate     int
}

func transcribeCmd() *cobra.Command {
	var tf transcribeFlags

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe audio files, URLs or raw audio from stdin",
	}
	cmd.PersistentFlags().StringVar(&tf.url, "url", "", "WebSocket endpoint (overrides config and BODHI_URL)")
	cmd.PersistentFlags().StringVar(&tf.model, "model", "", "Transcription model")
	cmd.PersistentFlags().BoolVar(&tf.parseNumber, "parse-number", false, "Convert spoken numbers to digits")
	cmd.PersistentFlags().BoolVar(&tf.excludePartial, "exclude-partial", false, "Only receive complete segments")
	cmd.PersistentFlags().StringArrayVar(&tf.hotwords, "hotword", nil, "Hotword to boost, as phrase or phrase:score (repeatable)")

	fileCmd := &cobra.Command{
		Use:   "file <path>...",
		Short: "Transcribe local WAV files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSources(cmd, &tf, args, func(c *bodhi.Client, src string, opts bodhi.TranscriptionOptions) {
				c.TranscribeLocalFile(src, opts)
			})
		},
	}

	urlCmd := &cobra.Command{
		Use:   "url <url>...",
		Short: "Transcribe WAV files served over HTTP(S)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSources(cmd, &tf, args, func(c *bodhi.Client, src string, opts bodhi.TranscriptionOptions) {
				c.TranscribeRemoteURL(src, opts)
			})
		},
	}

	stdinCmd := &cobra.Command{
		Use:   "stdin",
		Short: "Stream raw 16-bit mono PCM from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tf.sampleRate <= 0 {
				return fmt.Errorf("--sample-rate must be positive")
			}
			in := cmd.InOrStdin()
			return runSources(cmd, &tf, []string{"stdin"}, func(c *bodhi.Client, _ string, opts bodhi.TranscriptionOptions) {
				opts.SampleRate = tf.sampleRate
				c.StartStreaming(opts)
				go streamReader(c, in, tf.sampleRate/10*2)
			})
		},
	}
	stdinCmd.Flags().IntVar(&tf.sampleRate, "sample-rate", 8000, "Sample rate of the PCM stream")

	cmd.AddCommand(fileCmd, urlCmd, stdinCmd)
	return cmd
}

// streamReader forwards r to the active stream in chunks of chunkSize bytes
// and finishes the stream at EOF.
func streamReader(c *bodhi.Client, r io.Reader, chunkSize int) {
	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			c.StreamAudio(buf[:n])
		}
		if err != nil {
			break
		}
	}
	c.FinishStreaming()
}

func loadConfig(cmd *cobra.Command, tf *transcribeFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.Connection.URL = tf.url
	}
	if changed("model") {
		cfg.Transcription.Model = tf.model
	}
	if changed("parse-number") {
		cfg.Transcription.ParseNumber = tf.parseNumber
	}
	if changed("exclude-partial") {
		cfg.Transcription.ExcludePartial = tf.excludePartial
	}
	for _, raw := range tf.hotwords {
		hw, err := parseHotword(raw)
		if err != nil {
			return nil, err
		}
		cfg.Transcription.Hotwords = append(cfg.Transcription.Hotwords, hw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func parseHotword(raw string) (config.HotwordConfig, error) {
	phrase, score := raw, 0.0
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		s, err := strconv.ParseFloat(raw[i+1:], 64)
		if err != nil {
			return config.HotwordConfig{}, fmt.Errorf("invalid --hotword %q: score must be a number", raw)
		}
		phrase, score = raw[:i], s
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return config.HotwordConfig{}, fmt.Errorf("invalid --hotword %q: empty phrase", raw)
	}
	return config.HotwordConfig{Phrase: phrase, Score: score}, nil
}

type startFunc func(c *bodhi.Client, source string, opts bodhi.TranscriptionOptions)

// runSources transcribes each source on its own connection, one after the
// other. The backend closes the session once it has answered the EOF frame.
func runSources(cmd *cobra.Command, tf *transcribeFlags, sources []string, start startFunc) error {
	cfg, err := loadConfig(cmd, tf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPrinter(cmd.OutOrStdout())
	var failed []string
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if len(sources) > 1 {
			p.header(src)
		}
		if err := runSession(ctx, cfg, p, src, start); err != nil {
			failed = append(failed, src)
		}
	}

	if ctx.Err() != nil {
		return errors.New("interrupted")
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d sources failed: %s", len(failed), len(sources), strings.Join(failed, ", "))
	}
	return nil
}

// runSession connects, starts one request and blocks until the client has
// delivered its close event. The first error ends the session.
func runSession(ctx context.Context, cfg *config.Config, p *printer, source string, start startFunc) error {
	opts := cfg.ToClientOptions()
	opts.Logger = logger()
	client := bodhi.NewClient(opts)

	var sessionErr *bodhi.Error
	client.On(bodhi.EventTranscript, func(ev bodhi.Event) {
		p.transcript(ev.Response)
	})
	client.On(bodhi.EventError, func(ev bodhi.Event) {
		p.failure(ev.Err)
		if sessionErr == nil {
			sessionErr = ev.Err
		}
		client.CloseConnection()
	})
	client.On(bodhi.EventClose, func(ev bodhi.Event) {
		if flags.verbose {
			p.closed(ev.Reason)
		}
	})

	cancel := context.AfterFunc(ctx, client.CloseConnection)
	defer cancel()

	client.Connect(ctx, cfg.Credentials())
	start(client, source, cfg.ToTranscriptionOptions())
	<-client.Done()

	if sessionErr != nil {
		return sessionErr
	}
	return nil
}
