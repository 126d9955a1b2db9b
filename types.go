package bodhi

// Hotword biases recognition towards a phrase.
type Hotword struct {
	Phrase string  `json:"phrase"`
	Score  float64 `json:"score,omitempty"`
}

// RequestConfig is the per-request configuration sent before any audio.
type RequestConfig struct {
	Model          string    `json:"model"`
	TransactionID  string    `json:"transaction_id"`
	SampleRate     int       `json:"sample_rate"`
	ParseNumber    bool      `json:"parse_number,omitempty"`
	Hotwords       []Hotword `json:"hotwords,omitempty"`
	Aux            bool      `json:"aux,omitempty"`
	ExcludePartial bool      `json:"exclude_partial,omitempty"`
}

// ConfigMessage wraps RequestConfig on the wire.
type ConfigMessage struct {
	Config RequestConfig `json:"config"`
}

// EOFMessage tells the backend that no more audio follows for the current request.
type EOFMessage struct {
	EOF int `json:"eof"`
}

func NewEOFMessage() EOFMessage {
	return EOFMessage{EOF: 1}
}

const (
	ResponseTypePartial  = "partial"
	ResponseTypeComplete = "complete"
)

// Response is a frame received from the backend. Transcript frames carry
// Type, Text and timing; error frames carry Error, Message and Code.
type Response struct {
	CallID    string  `json:"call_id,omitempty"`
	SegmentID int     `json:"segment_id,omitempty"`
	EOS       bool    `json:"eos,omitempty"`
	Type      string  `json:"type,omitempty"`
	Text      string  `json:"text,omitempty"`
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`

	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// IsFinal reports whether the response is a completed segment.
func (r *Response) IsFinal() bool {
	return r.Type == ResponseTypeComplete
}

// IsTranscript reports whether the response carries transcript text.
func (r *Response) IsTranscript() bool {
	return r.Type == ResponseTypePartial || r.Type == ResponseTypeComplete
}

// IsError reports whether the backend reported a failure.
func (r *Response) IsError() bool {
	return r.Error != ""
}

// errorText returns the most descriptive message carried by an error frame.
func (r *Response) errorText() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}
