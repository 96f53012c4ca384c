package meshy

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("meshy: api key is required")

// TransportError reports a network-level failure where no response was read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("meshy: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports a response that was received but rejected the request
// or did not have the expected shape.
type ServiceError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("meshy: %s: %s (%s, http %d)", e.Op, e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("meshy: %s: %s (http %d)", e.Op, e.Message, e.StatusCode)
}

// DownloadError reports a failure retrieving an artifact or writing it locally.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("meshy: download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
