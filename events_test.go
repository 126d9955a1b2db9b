package bodhi

import "testing"

func TestRegistryOverwrite(t *testing.T) {
	r := newRegistry()

	var first, second int
	if replaced := r.set(EventTranscript, func(Event) { first++ }); replaced {
		t.Error("first registration should not report a replacement")
	}
	if replaced := r.set(EventTranscript, func(Event) { second++ }); !replaced {
		t.Error("second registration should report a replacement")
	}

	r.get(EventTranscript)(Event{Type: EventTranscript})
	if first != 0 || second != 1 {
		t.Errorf("expected only the second listener to run, got first=%d second=%d", first, second)
	}
}

func TestRegistryNilRemoves(t *testing.T) {
	r := newRegistry()
	r.set(EventError, func(Event) {})
	r.set(EventError, nil)
	if r.get(EventError) != nil {
		t.Error("expected nil listener to remove the registration")
	}
}

func TestEventsFor(t *testing.T) {
	tests := []struct {
		name   string
		resp   Response
		expect []EventType
	}{
		{
			name:   "partial",
			resp:   Response{Type: ResponseTypePartial, Text: "hel"},
			expect: []EventType{EventTranscript},
		},
		{
			name:   "complete",
			resp:   Response{Type: ResponseTypeComplete, Text: "hello"},
			expect: []EventType{EventTranscript, EventUtteranceEnd},
		},
		{
			name:   "error wins over type",
			resp:   Response{Type: ResponseTypeComplete, Error: "bad_request", Code: 400},
			expect: []EventType{EventError},
		},
		{
			name:   "unknown type is passed through",
			resp:   Response{Type: "speech_started"},
			expect: []EventType{"speech_started"},
		},
		{
			name:   "server close is namespaced",
			resp:   Response{Type: "close"},
			expect: []EventType{"server.close"},
		},
		{
			name:   "server open is namespaced",
			resp:   Response{Type: "open"},
			expect: []EventType{"server.open"},
		},
		{
			name:   "server utterance_end is namespaced",
			resp:   Response{Type: "utterance_end"},
			expect: []EventType{"server.utterance_end"},
		},
		{
			name:   "typed error frame",
			resp:   Response{Type: "error", Message: "session expired"},
			expect: []EventType{EventError},
		},
		{
			name:   "untyped",
			resp:   Response{CallID: "abc"},
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp
			events := eventsFor(&resp, nil)
			if len(events) != len(tt.expect) {
				t.Fatalf("expected %d events, got %d", len(tt.expect), len(events))
			}
			for i, ev := range events {
				if ev.Type != tt.expect[i] {
					t.Errorf("event[%d]: expected %s, got %s", i, tt.expect[i], ev.Type)
				}
			}
		})
	}
}

func TestEventsForErrorMapping(t *testing.T) {
	resp := Response{Error: "unauthorized", Message: "invalid api key", Code: 401}
	events := eventsFor(&resp, nil)
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected one error event, got %+v", events)
	}
	err := events[0].Err
	if err.Status != ErrorStatusAuthError {
		t.Errorf("expected auth_error, got %s", err.Status)
	}
	if err.Message != "invalid api key" {
		t.Errorf("expected message from frame, got %q", err.Message)
	}
	if err.Code == nil || *err.Code != 401 {
		t.Errorf("expected code 401, got %v", err.Code)
	}

	noCode := Response{Error: "internal"}
	events = eventsFor(&noCode, nil)
	if events[0].Err.Status != ErrorStatusAPIError || events[0].Err.Code != nil {
		t.Errorf("expected api_error without code, got %v", events[0].Err)
	}
}

func TestEventsForTypedErrorFrame(t *testing.T) {
	resp := Response{Type: "error", Message: "too many sessions", Code: 429}
	events := eventsFor(&resp, nil)
	if len(events) != 1 || events[0].Err == nil {
		t.Fatalf("expected one error event with an error, got %+v", events)
	}
	if events[0].Err.Status != ErrorStatusQuotaExceeded {
		t.Errorf("expected quota_exceeded, got %s", events[0].Err.Status)
	}
	if events[0].Err.Message != "too many sessions" {
		t.Errorf("expected message from frame, got %q", events[0].Err.Message)
	}

	bare := Response{Type: "error"}
	events = eventsFor(&bare, nil)
	if events[0].Err == nil || events[0].Err.Status != ErrorStatusAPIError || events[0].Err.Message == "" {
		t.Errorf("expected api_error with a message, got %+v", events[0].Err)
	}
}
