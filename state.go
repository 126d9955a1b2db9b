package bodhi

// State represents the lifecycle state of the client's connection.
type State string

const (
	// StateDisconnected is the initial state before Connect is called.
	StateDisconnected State = "Disconnected"

	// StateConnecting indicates the client is dialing the backend.
	StateConnecting State = "Connecting"

	// StateConnected indicates the WebSocket session is open and requests may be sent.
	StateConnected State = "Connected"

	// StateClosing indicates a graceful shutdown was requested and is in progress.
	StateClosing State = "Closing"

	// StateClosed is terminal. It is reached after CloseConnection, a failed
	// Connect, or an abrupt transport failure.
	StateClosed State = "Closed"
)

// IsActive returns true if the state holds (or is acquiring) a connection.
func (s State) IsActive() bool {
	switch s {
	case StateConnecting, StateConnected:
		return true
	default:
		return false
	}
}

// AcceptsRequests returns true if transcription requests may be issued.
func (s State) AcceptsRequests() bool {
	return s == StateConnected
}

// IsTerminal returns true if the state cannot transition further.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// canTransition reports whether moving from s to next is a legal edge of the
// connection state machine.
func (s State) canTransition(next State) bool {
	switch s {
	case StateDisconnected:
		return next == StateConnecting || next == StateClosed
	case StateConnecting:
		return next == StateConnected || next == StateClosing || next == StateClosed
	case StateConnected:
		return next == StateClosing || next == StateClosed
	case StateClosing:
		return next == StateClosed
	default:
		return false
	}
}

func (s State) String() string {
	return string(s)
}
