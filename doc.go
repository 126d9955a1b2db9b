// Package bodhi provides a Go SDK for the Bodhi speech-to-text WebSocket API.
//
// A Client owns a single WebSocket connection to the backend. Requests are
// fire-and-forget: TranscribeLocalFile, TranscribeRemoteURL and the streaming
// calls return nothing, and every outcome, including errors, is delivered to
// event listeners.
//
// # Listeners
//
// Each event type has at most one listener. Registering a second listener for
// the same type silently replaces the first, which then receives nothing:
//
//	client.On(bodhi.EventTranscript, func(ev bodhi.Event) {
//	    if ev.Response.IsFinal() {
//	        fmt.Println(ev.Response.Text)
//	    }
//	})
//	client.On(bodhi.EventError, func(ev bodhi.Event) {
//	    log.Printf("error: %v", ev.Err)
//	})
//
// Listeners run one at a time on a dedicated goroutine, in the order the
// underlying messages arrived. Events with no registered listener are dropped.
//
// # Quick Start
//
//	client := bodhi.NewClient(bodhi.ClientOptions{})
//	defer client.Close()
//
//	client.On(bodhi.EventTranscript, onTranscript)
//	client.On(bodhi.EventClose, func(bodhi.Event) { close(finished) })
//
//	client.Connect(ctx, bodhi.CredentialsFromEnv())
//	client.TranscribeLocalFile("call.wav", bodhi.TranscriptionOptions{
//	    Model: "hi-banking-v2-8khz",
//	})
//
// # Connection lifecycle
//
// The client moves through Disconnected, Connecting, Connected, Closing and
// Closed. A failed Connect or a lost connection goes straight to Closed.
// CloseConnection is idempotent; EventClose is delivered exactly once and is
// always the last event a client produces.
//
// # Error Handling
//
// Errors are delivered as EventError with a *bodhi.Error whose Status tells
// local failures (file_not_found, invalid_audio_format, invalid_state, ...)
// apart from failures reported by the backend (auth_error, quota_exceeded,
// api_error, ...):
//
//	client.On(bodhi.EventError, func(ev bodhi.Event) {
//	    if bodhi.IsErrorStatus(ev.Err, bodhi.ErrorStatusAuthError) {
//	        // rotate credentials
//	    }
//	})
//
// # Credentials
//
// CredentialsFromEnv reads BODHI_API_KEY and BODHI_CUSTOMER_ID. The SDK never
// stores credentials beyond the handshake.
package bodhi
