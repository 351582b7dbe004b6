package applemusic

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDataReturned is returned when a lookup by ID yields an empty data array.
	ErrNoDataReturned = errors.New("apple music returned no data")
	// ErrInvalidPrivateKey wraps every failure to read a usable P-256 key from PEM.
	ErrInvalidPrivateKey = errors.New("invalid apple music private key")
	// ErrInvalidSecret is returned when the team ID or key ID is malformed.
	ErrInvalidSecret = errors.New("invalid apple music secret")
	// ErrExpirationTooLong is returned when a token lifetime exceeds MaxTokenLifetime.
	ErrExpirationTooLong = errors.New("token lifetime exceeds 15777000 seconds")
	// ErrMissingToken is returned when no developer token is configured.
	ErrMissingToken = errors.New("apple music developer token is not configured")
)

// HTTPError is returned for any non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("apple music http error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("apple music http error: status %d: %s", e.StatusCode, e.Body)
}

// DecodingError wraps a JSON decoding failure.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("apple music decoding error: %v", e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport failure (DNS, timeout, connection refused).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("apple music network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
