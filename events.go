package bodhi

import "sync"

// EventType identifies the category of an asynchronous occurrence. The set is
// open: server messages with an unrecognized type are dispatched under
// EventType(type) so they can still be observed with On. Types that collide
// with a client event are prefixed with ServerEventPrefix.
type EventType string

const (
	// EventOpen fires once the WebSocket session is established.
	EventOpen EventType = "open"

	// EventTranscript fires for every partial or complete transcript frame.
	EventTranscript EventType = "transcript"

	// EventUtteranceEnd fires after a complete segment has been delivered.
	EventUtteranceEnd EventType = "utterance_end"

	// EventError carries every runtime failure, local or reported by the backend.
	EventError EventType = "error"

	// EventClose fires exactly once, when the client reaches StateClosed. It is
	// always the last event a client delivers.
	EventClose EventType = "close"
)

// Event is passed to listeners. Only the fields relevant to Type are set.
type Event struct {
	Type     EventType
	Response *Response
	Err      *Error
	Reason   string
	Raw      []byte
}

// Listener receives events of the type it was registered for.
type Listener func(Event)

// registry holds at most one listener per event type. Registering a listener
// for a type that already has one replaces it; earlier listeners never see
// another dispatch.
type registry struct {
	mu        sync.RWMutex
	listeners map[EventType]Listener
}

func newRegistry() *registry {
	return &registry{listeners: make(map[EventType]Listener)}
}

func (r *registry) set(eventType EventType, listener Listener) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.listeners[eventType]
	if listener == nil {
		delete(r.listeners, eventType)
		return replaced
	}
	r.listeners[eventType] = listener
	return replaced
}

func (r *registry) get(eventType EventType) Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listeners[eventType]
}

// ServerEventPrefix namespaces server message types that collide with an
// event type the client emits itself, so {"type":"close"} is dispatched as
// "server.close" and never as EventClose.
const ServerEventPrefix = "server."

// serverEventType maps a server message type to the event it is dispatched under.
func serverEventType(msgType string) EventType {
	switch t := EventType(msgType); t {
	case EventOpen, EventTranscript, EventUtteranceEnd, EventClose:
		return ServerEventPrefix + t
	default:
		return t
	}
}

// eventsFor maps an inbound frame to the events it produces, in delivery order.
func eventsFor(resp *Response, raw []byte) []Event {
	switch {
	case resp.IsError() || EventType(resp.Type) == EventError:
		text := resp.errorText()
		if text == "" {
			text = "backend reported an error"
		}
		apiErr := NewError(ErrorStatusAPIError, text)
		if resp.Code != 0 {
			apiErr = MapAPIError(text, resp.Code)
		}
		return []Event{{Type: EventError, Response: resp, Err: apiErr, Raw: raw}}
	case resp.IsTranscript():
		events := []Event{{Type: EventTranscript, Response: resp, Raw: raw}}
		if resp.IsFinal() {
			events = append(events, Event{Type: EventUtteranceEnd, Response: resp, Raw: raw})
		}
		return events
	case resp.Type != "":
		return []Event{{Type: serverEventType(resp.Type), Response: resp, Raw: raw}}
	default:
		return nil
	}
}
