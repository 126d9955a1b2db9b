package bodhi

import (
	"errors"
	"fmt"
)

type ErrorStatus string

const (
	ErrorStatusConfigurationError ErrorStatus = "configuration_error"
	ErrorStatusConnectionError    ErrorStatus = "connection_error"
	ErrorStatusConnectionClosed   ErrorStatus = "connection_closed"
	ErrorStatusStreamingError     ErrorStatus = "streaming_error"
	ErrorStatusInvalidAudioFormat ErrorStatus = "invalid_audio_format"
	ErrorStatusAudioDownloadError ErrorStatus = "audio_download_error"
	ErrorStatusFileNotFound       ErrorStatus = "file_not_found"
	ErrorStatusInvalidURL         ErrorStatus = "invalid_url"
	ErrorStatusEmptyAudio         ErrorStatus = "empty_audio"
	ErrorStatusInvalidJSON        ErrorStatus = "invalid_json"
	ErrorStatusWebSocketError     ErrorStatus = "websocket_error"
	ErrorStatusInvalidState       ErrorStatus = "invalid_state"
	ErrorStatusQueueLimitExceeded ErrorStatus = "queue_limit_exceeded"
	ErrorStatusAPIError           ErrorStatus = "api_error"
	ErrorStatusAuthError          ErrorStatus = "auth_error"
	ErrorStatusBadRequest         ErrorStatus = "bad_request"
	ErrorStatusQuotaExceeded      ErrorStatus = "quota_exceeded"
	ErrorStatusNetworkError       ErrorStatus = "network_error"
)

// Error is the single error type delivered to EventError listeners.
type Error struct {
	Status  ErrorStatus
	Message string
	Code    *int
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("bodhi: %s (code=%d): %s", e.Status, *e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("bodhi: %s: %s: %v", e.Status, e.Message, e.Cause)
	}
	return fmt.Sprintf("bodhi: %s: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(status ErrorStatus, message string) *Error {
	return &Error{
		Status:  status,
		Message: message,
	}
}

func NewErrorWithCode(status ErrorStatus, message string, code int) *Error {
	return &Error{
		Status:  status,
		Message: message,
		Code:    &code,
	}
}

func NewErrorWithCause(status ErrorStatus, message string, cause error) *Error {
	return &Error{
		Status:  status,
		Message: message,
		Cause:   cause,
	}
}

func IsErrorStatus(err error, status ErrorStatus) bool {
	var bodhiErr *Error
	if errors.As(err, &bodhiErr) {
		return bodhiErr.Status == status
	}
	return false
}

// asError converts err into an *Error, keeping an existing status if err
// already carries one.
func asError(err error, fallback ErrorStatus, message string) *Error {
	var bodhiErr *Error
	if errors.As(err, &bodhiErr) {
		return bodhiErr
	}
	return NewErrorWithCause(fallback, message, err)
}

var (
	ErrClientNotConnected = NewError(ErrorStatusInvalidState, "client is not connected")
	ErrClientConnecting   = NewError(ErrorStatusInvalidState, "client is already connecting or connected")
	ErrMissingCredentials = NewError(ErrorStatusConfigurationError, "api key and customer id are required")
	ErrNoActiveStream     = NewError(ErrorStatusStreamingError, "no active streaming session")
)

// MapAPIError maps an error frame sent by the backend to a typed ErrorStatus.
func MapAPIError(message string, code int) *Error {
	var status ErrorStatus
	switch {
	case code == 401 || code == 403:
		status = ErrorStatusAuthError
	case code == 400:
		status = ErrorStatusBadRequest
	case code == 402 || code == 429:
		status = ErrorStatusQuotaExceeded
	case code == 408 || code >= 500:
		status = ErrorStatusNetworkError
	default:
		status = ErrorStatusAPIError
	}
	return NewErrorWithCode(status, message, code)
}
