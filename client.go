package bodhi

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"
)

// Client is a Bodhi speech-to-text WebSocket client.
//
// Operations never return results or errors directly. Everything the client
// learns about a request, including failures, is delivered to the single
// listener registered for the corresponding EventType with On. Listeners are
// invoked one at a time, from one goroutine, in the order events occurred.
type Client struct {
	options   ClientOptions
	listeners *registry
	log       *slog.Logger

	mu        sync.RWMutex
	writeMu   sync.Mutex
	state     State
	conn      *websocket.Conn
	streaming bool

	jobs   chan job
	events chan Event

	// done is closed when teardown starts. It stops the reader, the sender
	// and keep-alive, and makes emit drop new events.
	done chan struct{}
	// closed is closed after the state reached StateClosed. The dispatcher
	// then delivers closeEvent and exits.
	closed         chan struct{}
	closeEvent     Event
	suppress       atomic.Bool
	closeOnce      sync.Once
	workers        sync.WaitGroup
	dispatcherDone chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	tlsCache tls.ClientSessionCache
}

// NewClient creates a new client in StateDisconnected. Call CloseConnection
// (or Close) once the client is no longer needed to release its dispatcher.
func NewClient(options ClientOptions) *Client {
	options.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		options:        options,
		listeners:      newRegistry(),
		log:            options.Logger,
		state:          StateDisconnected,
		jobs:           make(chan job, options.JobQueueSize),
		events:         make(chan Event, options.EventQueueSize),
		done:           make(chan struct{}),
		closed:         make(chan struct{}),
		dispatcherDone: make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
		tlsCache:       tls.NewLRUClientSessionCache(32),
	}
	go c.dispatchLoop()
	return c
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// On registers listener for eventType. A listener already registered for
// eventType is replaced and receives no further events. Passing a nil
// listener removes the registration.
func (c *Client) On(eventType EventType, listener Listener) {
	if replaced := c.listeners.set(eventType, listener); replaced {
		c.log.Debug("replaced listener", "event", string(eventType))
	}
}

// Done is closed after the final EventClose listener has returned.
func (c *Client) Done() <-chan struct{} {
	return c.dispatcherDone
}

// setStateLocked must be called with mu held.
func (c *Client) setStateLocked(next State) bool {
	prev := c.state
	if prev == next || !prev.canTransition(next) {
		return false
	}
	c.state = next
	c.log.Debug("state changed", "from", prev.String(), "to", next.String())
	return true
}

// Connect dials the backend and blocks until the session is open or has
// failed. Failures are delivered as EventError followed by EventClose. ctx
// bounds the dial only; use CloseConnection to end an open session.
func (c *Client) Connect(ctx context.Context, creds Credentials) {
	c.mu.Lock()
	state := c.state
	if state != StateDisconnected {
		c.mu.Unlock()
		if state.IsTerminal() {
			c.log.Warn("connect called on closed client")
			return
		}
		c.emitError(ErrClientConnecting)
		return
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "connect")
	defer span.End()

	if !creds.valid() {
		span.SetStatus(codes.Error, ErrMissingCredentials.Message)
		c.fail(ErrMissingCredentials)
		return
	}

	connCtx, cancel := context.WithTimeout(ctx, c.options.ConnectTimeout)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.options.ConnectTimeout,
		NetDialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := net.Dialer{}
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				tc.SetNoDelay(true)
			}
			return conn, nil
		},
		TLSClientConfig: &tls.Config{
			ClientSessionCache: c.tlsCache,
		},
	}

	c.log.Info("connecting", "url", c.options.WebSocketURL)
	conn, resp, err := dialer.DialContext(connCtx, c.options.WebSocketURL, creds.header())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		connErr := NewErrorWithCause(ErrorStatusConnectionError, "failed to connect", err)
		if resp != nil {
			connErr = MapAPIError("handshake rejected: "+resp.Status, resp.StatusCode)
			connErr.Cause = err
		}
		c.fail(connErr)
		return
	}

	c.mu.Lock()
	if !c.setStateLocked(StateConnected) {
		// CloseConnection won the race while dialing.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	workers := 2
	if c.options.KeepAlive {
		workers++
	}
	c.workers.Add(workers)
	c.mu.Unlock()

	c.log.Info("connected", "url", c.options.WebSocketURL)
	c.emit(Event{Type: EventOpen})

	go func() {
		err := c.readLoop(conn)
		c.workers.Done()
		c.handleReadError(err)
	}()
	go func() {
		defer c.workers.Done()
		c.sendLoop(conn)
	}()
	if c.options.KeepAlive {
		go func() {
			defer c.workers.Done()
			c.keepAliveLoop(conn)
		}()
	}
}

// TranscribeLocalFile streams the WAV file at path over the open connection.
// Results arrive as EventTranscript; failures as EventError.
func (c *Client) TranscribeLocalFile(path string, opts TranscriptionOptions) {
	opts.applyDefaults()
	c.enqueue("transcribe local file", job{kind: jobLocalFile, source: path, opts: opts})
}

// TranscribeRemoteURL downloads the WAV file at audioURL and streams it over
// the open connection. Results arrive as EventTranscript; failures as EventError.
func (c *Client) TranscribeRemoteURL(audioURL string, opts TranscriptionOptions) {
	if !c.requireConnected("transcribe remote url") {
		return
	}
	if err := validateAudioURL(audioURL); err != nil {
		c.emitError(asError(err, ErrorStatusInvalidURL, "invalid URL"))
		return
	}
	opts.applyDefaults()
	c.enqueue("transcribe remote url", job{kind: jobRemoteURL, source: audioURL, opts: opts})
}

// StartStreaming opens a raw audio stream. opts.SampleRate must describe the
// PCM data passed to StreamAudio.
func (c *Client) StartStreaming(opts TranscriptionOptions) {
	if !c.requireConnected("start streaming") {
		return
	}
	if opts.SampleRate <= 0 {
		c.emitError(NewError(ErrorStatusConfigurationError, "sample rate is required for streaming"))
		return
	}

	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		c.emitError(NewError(ErrorStatusInvalidState, "streaming session already active"))
		return
	}
	c.streaming = true
	c.mu.Unlock()

	opts.applyDefaults()
	if !c.enqueue("start streaming", job{kind: jobStreamConfig, opts: opts}) {
		// No config frame was queued, so no stream was opened.
		c.mu.Lock()
		c.streaming = false
		c.mu.Unlock()
	}
}

// StreamAudio sends one chunk of raw audio in the active stream.
func (c *Client) StreamAudio(data []byte) {
	if !c.requireStreaming("stream audio") {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	c.enqueue("stream audio", job{kind: jobStreamAudio, data: chunk})
}

// FinishStreaming ends the active stream. The backend flushes its final
// results, which arrive as events.
func (c *Client) FinishStreaming() {
	if !c.requireStreaming("finish streaming") {
		return
	}
	c.mu.Lock()
	c.streaming = false
	c.mu.Unlock()
	if !c.enqueue("finish streaming", job{kind: jobStreamEOF}) {
		// The stream stays open so FinishStreaming can be retried.
		c.mu.Lock()
		if c.state.AcceptsRequests() {
			c.streaming = true
		}
		c.mu.Unlock()
	}
}

// CloseConnection gracefully shuts the session down. Outstanding requests are
// abandoned and undelivered events are discarded; the only event delivered
// afterwards is a single EventClose. Calling it again has no effect. It is
// safe to call from inside a listener.
func (c *Client) CloseConnection() {
	c.shutdown("closed by client", true)
}

// Close is CloseConnection for use as an io.Closer.
func (c *Client) Close() error {
	c.CloseConnection()
	return nil
}

func (c *Client) requireConnected(op string) bool {
	state := c.State()
	if state.IsTerminal() {
		c.log.Debug("dropping request on closed client", "op", op)
		return false
	}
	if !state.AcceptsRequests() {
		c.emitError(NewErrorWithCause(ErrorStatusInvalidState,
			"cannot "+op+" in state "+state.String(), ErrClientNotConnected))
		return false
	}
	return true
}

func (c *Client) requireStreaming(op string) bool {
	if !c.requireConnected(op) {
		return false
	}
	c.mu.RLock()
	streaming := c.streaming
	c.mu.RUnlock()
	if !streaming {
		c.emitError(NewErrorWithCause(ErrorStatusStreamingError, "cannot "+op, ErrNoActiveStream))
		return false
	}
	return true
}

// enqueue reports whether j was queued for the send worker.
func (c *Client) enqueue(op string, j job) bool {
	if !c.requireConnected(op) {
		return false
	}
	if j.kind == jobLocalFile || j.kind == jobRemoteURL {
		c.mu.RLock()
		streaming := c.streaming
		c.mu.RUnlock()
		if streaming {
			c.emitError(NewError(ErrorStatusInvalidState, "cannot "+op+" while a streaming session is active"))
			return false
		}
	}

	select {
	case <-c.done:
		c.log.Debug("dropping request during shutdown", "op", op)
		return false
	case c.jobs <- j:
		return true
	default:
		c.emitError(NewError(ErrorStatusQueueLimitExceeded, "request queue limit exceeded"))
		return false
	}
}

// readLoop reads frames until the connection fails or is closed.
func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		messagesReceived.Add(context.Background(), 1)

		resp, err := decodeResponse(message)
		if err != nil {
			invalid := NewErrorWithCause(ErrorStatusInvalidJSON, "failed to parse response", err)
			c.emit(Event{Type: EventError, Err: invalid, Raw: message})
			continue
		}

		events := eventsFor(resp, message)
		if len(events) == 0 {
			c.log.Debug("dropping untyped message", "size", len(message))
			continue
		}
		for _, ev := range events {
			c.emit(ev)
		}
	}
}

func (c *Client) handleReadError(err error) {
	select {
	case <-c.done:
		return
	default:
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
		c.log.Info("connection closed by server", "reason", closeErr.Text)
		c.shutdown("closed by server", false)
		return
	}

	c.log.Warn("connection lost", "error", err)
	c.emitError(NewErrorWithCause(ErrorStatusConnectionClosed, "connection closed unexpectedly", err))
	c.shutdown("connection lost", false)
}

// keepAliveLoop pings the backend at regular intervals.
func (c *Client) keepAliveLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.options.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			// Best-effort: a dead connection is reported by the reader.
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.options.WriteTimeout)); err != nil {
				c.log.Debug("keep-alive ping failed", "error", err)
			}
		}
	}
}

// writeRaw writes a message directly to the WebSocket.
func (c *Client) writeRaw(conn *websocket.Conn, msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
	if err := conn.WriteMessage(msgType, data); err != nil {
		return NewErrorWithCause(ErrorStatusWebSocketError, "write error", err)
	}
	framesSent.Add(context.Background(), 1)
	if msgType == websocket.BinaryMessage {
		audioBytesSent.Add(context.Background(), int64(len(data)))
	}
	return nil
}

// sendControl sends a JSON control message.
func (c *Client) sendControl(conn *websocket.Conn, v any) error {
	data, err := encodeMessage(v)
	if err != nil {
		return NewErrorWithCause(ErrorStatusConfigurationError, "failed to encode message", err)
	}
	return c.writeRaw(conn, websocket.TextMessage, data)
}

func (c *Client) emit(ev Event) {
	select {
	case <-c.done:
		recordEvent(eventsDropped, ev.Type)
		return
	default:
	}
	select {
	case c.events <- ev:
	case <-c.done:
		recordEvent(eventsDropped, ev.Type)
	}
}

func (c *Client) emitError(err *Error) {
	c.log.Warn("request failed", "status", string(err.Status), "error", err.Error())
	c.emit(Event{Type: EventError, Err: err})
}

// fail reports a connect failure and closes the client.
func (c *Client) fail(err *Error) {
	c.emitError(err)
	c.shutdown("connect failed", false)
}

// shutdown tears the session down once. With suppress set, events still
// queued for delivery are discarded; otherwise they are delivered before
// EventClose.
func (c *Client) shutdown(reason string, suppress bool) {
	c.closeOnce.Do(func() {
		if suppress {
			c.suppress.Store(true)
		}

		c.mu.Lock()
		c.setStateLocked(StateClosing)
		conn := c.conn
		c.mu.Unlock()

		close(c.done)
		c.cancel()

		if conn != nil {
			deadline := time.Now().Add(c.options.WriteTimeout)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				c.log.Debug("failed to send close frame", "error", err)
			}
			conn.Close()
		}
		c.workers.Wait()

		c.mu.Lock()
		c.setStateLocked(StateClosed)
		c.conn = nil
		c.streaming = false
		c.mu.Unlock()

		c.log.Info("connection closed", "reason", reason)
		c.closeEvent = Event{Type: EventClose, Reason: reason}
		close(c.closed)
	})
}

// dispatchLoop delivers events to listeners in the order they were emitted.
func (c *Client) dispatchLoop() {
	defer close(c.dispatcherDone)

	for {
		select {
		case <-c.closed:
			c.finish()
			return
		default:
		}

		select {
		case ev := <-c.events:
			c.deliver(ev, true)
		case <-c.closed:
			c.finish()
			return
		}
	}
}

func (c *Client) finish() {
	for {
		select {
		case ev := <-c.events:
			c.deliver(ev, true)
		default:
			c.deliver(c.closeEvent, false)
			return
		}
	}
}

// deliver invokes the listener for ev. Queued events are discarded once
// CloseConnection has started; the check sits right before the call so no
// queued event reaches a listener after that point.
func (c *Client) deliver(ev Event, queued bool) {
	if queued && c.suppress.Load() {
		recordEvent(eventsDropped, ev.Type)
		return
	}
	listener := c.listeners.get(ev.Type)
	if listener == nil {
		c.log.Debug("no listener registered, dropping event", "event", string(ev.Type))
		recordEvent(eventsDropped, ev.Type)
		return
	}
	recordEvent(eventsDispatched, ev.Type)
	listener(ev)
}
