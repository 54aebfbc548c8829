package slack

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken means the bot token is empty or still the sample
	// placeholder. It is returned before any network use.
	ErrInvalidToken = errors.New("slack: bot token is empty or a placeholder")

	// ErrChannelNotFound means conversations.list returned no channel with
	// the requested name.
	ErrChannelNotFound = errors.New("slack: channel not found")

	// ErrChannelRequired means a send was attempted without a channel id.
	ErrChannelRequired = errors.New("slack: channel is required")
)

// UpstreamError is a structured rejection from the API: the response parsed
// and carried "ok": false. Code is the API's error string, verbatim.
type UpstreamError struct {
	Op   string
	Code string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Op, e.Code)
}

// TransportError is a failed exchange: connection error, unreadable body or
// malformed JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("slack %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is an UpstreamError and returns its code.
func IsUpstream(err error) (string, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Code, true
	}
	return "", false
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
