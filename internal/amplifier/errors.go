package amplifier

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse covers unparseable XML, missing required nodes and unknown power codes.
	ErrInvalidResponse = errors.New("invalid response from amplifier")
	// ErrInvalidSourceIndex is returned when a source index is outside the fetched source list.
	ErrInvalidSourceIndex = errors.New("invalid source index")
)

// NetworkError indicates the amplifier could not be reached.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("amplifier network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UnexpectedError reports request construction failures and unexpected HTTP statuses.
type UnexpectedError struct {
	Message string
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("amplifier unexpected error: %s", e.Message)
}
