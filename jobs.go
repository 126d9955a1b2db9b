package bodhi

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type jobKind int

const (
	jobLocalFile jobKind = iota
	jobRemoteURL
	jobStreamConfig
	jobStreamAudio
	jobStreamEOF
)

func (k jobKind) String() string {
	switch k {
	case jobLocalFile:
		return "local_file"
	case jobRemoteURL:
		return "remote_url"
	case jobStreamConfig:
		return "stream_config"
	case jobStreamAudio:
		return "stream_audio"
	case jobStreamEOF:
		return "stream_eof"
	default:
		return "unknown"
	}
}

// job is one unit of outbound work. Jobs run one at a time, in submission
// order, so frames belonging to different requests never interleave.
type job struct {
	kind   jobKind
	source string
	opts   TranscriptionOptions
	data   []byte
}

func (c *Client) sendLoop(conn *websocket.Conn) {
	for {
		select {
		case <-c.done:
			return
		case j := <-c.jobs:
			if err := c.runJob(conn, j); err != nil {
				if c.ctx.Err() != nil {
					// Shutting down; the request is abandoned silently.
					return
				}
				c.emitError(asError(err, ErrorStatusStreamingError, "failed to send "+j.kind.String()))
			}
		}
	}
}

func (c *Client) runJob(conn *websocket.Conn, j job) error {
	switch j.kind {
	case jobLocalFile:
		return c.sendFile(c.ctx, conn, j.source, j.opts)
	case jobRemoteURL:
		return c.sendRemote(c.ctx, conn, j.source, j.opts)
	case jobStreamConfig:
		return c.sendControl(conn, j.opts.toConfig())
	case jobStreamAudio:
		return c.writeRaw(conn, websocket.BinaryMessage, j.data)
	case jobStreamEOF:
		return c.sendControl(conn, NewEOFMessage())
	default:
		return NewError(ErrorStatusStreamingError, "unknown job kind")
	}
}

func (c *Client) sendRemote(ctx context.Context, conn *websocket.Conn, audioURL string, opts TranscriptionOptions) error {
	ctx, span := tracer.Start(ctx, "download audio", trace.WithAttributes(
		attribute.String("bodhi.transaction_id", opts.TransactionID),
	))
	path, err := downloadAudio(ctx, c.options.HTTPClient, audioURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		span.End()
		return err
	}
	span.End()
	defer os.Remove(path)

	c.log.Debug("downloaded audio", "url", audioURL, "path", path)
	return c.sendFile(ctx, conn, path, opts)
}

// sendFile sends the config frame, the WAV data in frame-aligned chunks paced
// at ChunkInterval, and the EOF frame.
func (c *Client) sendFile(ctx context.Context, conn *websocket.Conn, path string, opts TranscriptionOptions) (err error) {
	ctx, span := tracer.Start(ctx, "transcribe file", trace.WithAttributes(
		attribute.String("bodhi.transaction_id", opts.TransactionID),
		attribute.String("bodhi.model", opts.Model),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	wav, err := openWAV(path)
	if err != nil {
		return err
	}
	defer wav.Close()

	opts.SampleRate = wav.format.SampleRate
	span.SetAttributes(attribute.Int("bodhi.sample_rate", opts.SampleRate))
	c.log.Debug("audio parameters",
		"channels", wav.format.Channels,
		"sample_rate", wav.format.SampleRate,
		"bits_per_sample", wav.format.BitsPerSample,
		"data_size", wav.format.DataSize)

	if err := c.sendControl(conn, opts.toConfig()); err != nil {
		return err
	}

	buf := make([]byte, wav.format.ChunkSize(c.options.ChunkDuration))
	var sent int64
	for {
		n, readErr := wav.readChunk(buf)
		if n > 0 {
			if err := c.writeRaw(conn, websocket.BinaryMessage, buf[:n]); err != nil {
				return err
			}
			sent += int64(n)
			if err := c.pace(ctx); err != nil {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return NewErrorWithCause(ErrorStatusStreamingError, "failed to read audio file", readErr)
		}
	}
	span.SetAttributes(attribute.Int64("bodhi.audio_bytes", sent))

	if err := c.sendControl(conn, NewEOFMessage()); err != nil {
		return err
	}
	c.log.Info("sent audio", "transaction_id", opts.TransactionID, "bytes", sent)
	return nil
}

func (c *Client) pace(ctx context.Context) error {
	if c.options.ChunkInterval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.options.ChunkInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
