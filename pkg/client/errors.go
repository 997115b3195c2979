package client

import (
	"errors"
	"fmt"
)

// ErrEndpointRequired is returned by New when no endpoint is configured.
var ErrEndpointRequired = errors.New("client: endpoint is required")

// TransportError reports a failed submission: a network failure, a non-2xx
// response, or a success response whose body could not be decoded. Message
// carries the server-provided `error` field when the response included one.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "" && e.StatusCode != 0:
		return fmt.Sprintf("client: prediction failed with status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("client: prediction failed with status %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("client: prediction failed with status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("client: prediction request failed: %v", e.Err)
	default:
		return "client: prediction failed"
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerMessage extracts the server-provided message from err, if any.
func ServerMessage(err error) (string, bool) {
	var terr *TransportError
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message, true
	}
	return "", false
}
