package sonos

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRoomSpecified is returned when neither the call nor the client names a room.
	ErrNoRoomSpecified     = errors.New("no room specified and no default room configured")
	ErrInvalidPlaybackMode = errors.New("invalid playback mode")
	ErrInvalidContentType  = errors.New("invalid content type")
	ErrResponseTooLarge    = errors.New("response body too large")
)

// RequestFailedError reports a failed bridge request. StatusCode is zero when
// the request never produced a response.
type RequestFailedError struct {
	Action     string
	StatusCode int
	Err        error
}

func (e *RequestFailedError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("sonos request %s failed: status %d: %v", e.Action, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("sonos request %s failed: %v", e.Action, e.Err)
	default:
		return fmt.Sprintf("sonos request %s failed: status %d", e.Action, e.StatusCode)
	}
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}
