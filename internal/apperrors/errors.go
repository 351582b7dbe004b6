package apperrors

import (
	"errors"
	"net/http"

	"github.com/strefethen/music-agent-go/internal/amplifier"
	"github.com/strefethen/music-agent-go/internal/applemusic"
	"github.com/strefethen/music-agent-go/internal/openurl"
	"github.com/strefethen/music-agent-go/internal/sonos"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// =============================================================================
// Error Codes
// =============================================================================

type ErrorCode string

const (
	ErrorCodeInternalError            ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError          ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound                 ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized             ErrorCode = "UNAUTHORIZED"
	ErrorCodeToolNotFound             ErrorCode = "TOOL_NOT_FOUND"
	ErrorCodeEventNotFound            ErrorCode = "EVENT_NOT_FOUND"
	ErrorCodeRoutineNotFound          ErrorCode = "ROUTINE_NOT_FOUND"
	ErrorCodeSonosNoRoom              ErrorCode = "SONOS_NO_ROOM"
	ErrorCodeSonosRequestFailed       ErrorCode = "SONOS_REQUEST_FAILED"
	ErrorCodeAmplifierUnreachable     ErrorCode = "AMPLIFIER_UNREACHABLE"
	ErrorCodeAmplifierInvalidResponse ErrorCode = "AMPLIFIER_INVALID_RESPONSE"
	ErrorCodeAmplifierError           ErrorCode = "AMPLIFIER_ERROR"
	ErrorCodeAppleAPIError            ErrorCode = "APPLE_API_ERROR"
	ErrorCodeAppleNoData              ErrorCode = "APPLE_NO_DATA"
	ErrorCodeAppleTokenInvalid        ErrorCode = "APPLE_TOKEN_INVALID"
	ErrorCodeOpenURLFailed            ErrorCode = "OPEN_URL_FAILED"
	ErrorCodeAuthTokenExpired         ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrorCodeAuthTokenInvalid         ErrorCode = "AUTH_TOKEN_INVALID"
)

// =============================================================================
// Stripe API Error Types
// =============================================================================

// ErrorType categorizes errors following Stripe API conventions.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrorTypeAPIError       ErrorType = "api_error"
	ErrorTypeAuthError      ErrorType = "authentication_error"
)

// StripeErrorBody is the Stripe-style error payload.
// Format: {"type": "invalid_request_error", "code": "NOT_FOUND", "message": "..."}
type StripeErrorBody struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// AppError is the base error type for HTTP responses.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (err *AppError) Error() string {
	return err.Message
}

// StripeErrorBody returns the error in Stripe API format.
func (err *AppError) StripeErrorBody() StripeErrorBody {
	errType := ErrorTypeAPIError
	switch {
	case err.StatusCode == http.StatusUnauthorized || err.StatusCode == http.StatusForbidden:
		errType = ErrorTypeAuthError
	case err.StatusCode >= 400 && err.StatusCode < 500:
		errType = ErrorTypeInvalidRequest
	}

	return StripeErrorBody{
		Type:    errType,
		Code:    string(err.Code),
		Message: err.Message,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

func NewValidationError(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewUnauthorizedError(message string, code ...ErrorCode) *AppError {
	errCode := ErrorCodeUnauthorized
	if len(code) > 0 {
		errCode = code[0]
	}
	return NewAppError(errCode, message, http.StatusUnauthorized, nil)
}

func NewNotFoundResource(resource, id string) *AppError {
	message := resource + " not found"
	details := map[string]any{
		"resource": resource,
	}
	if id != "" {
		message = resource + " not found: " + id
		details["id"] = id
	}
	return NewAppError(ErrorCodeNotFound, message, http.StatusNotFound, details)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, http.StatusInternalServerError, nil)
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return FromError(err)
}

// FromError maps client and tool errors onto HTTP status codes and error codes.
// Unrecognised errors become a generic 500 so internals are not leaked.
func FromError(err error) *AppError {
	var (
		appErr      *AppError
		argErr      *tools.ArgumentError
		sonosErr    *sonos.RequestFailedError
		ampNetErr   *amplifier.NetworkError
		ampErr      *amplifier.UnexpectedError
		appleHTTP   *applemusic.HTTPError
		appleNet    *applemusic.NetworkError
		appleDecode *applemusic.DecodingError
		openErr     *openurl.OpenFailedError
	)

	switch {
	case err == nil:
		return NewInternalError("Unknown error")
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, tools.ErrToolNotFound):
		return NewAppError(ErrorCodeToolNotFound, err.Error(), http.StatusNotFound, nil)
	case errors.As(err, &argErr):
		return NewValidationError(err.Error(), map[string]any{"argument": argErr.Name})
	case errors.Is(err, amplifier.ErrInvalidSourceIndex),
		errors.Is(err, sonos.ErrInvalidPlaybackMode),
		errors.Is(err, sonos.ErrInvalidContentType),
		errors.Is(err, openurl.ErrInvalidURL):
		return NewValidationError(err.Error(), nil)
	case errors.Is(err, sonos.ErrNoRoomSpecified):
		return NewAppError(ErrorCodeSonosNoRoom, err.Error(), http.StatusBadRequest, nil)
	case errors.As(err, &sonosErr):
		details := map[string]any{"action": sonosErr.Action}
		if sonosErr.StatusCode != 0 {
			details["status"] = sonosErr.StatusCode
		}
		return NewAppError(ErrorCodeSonosRequestFailed, err.Error(), http.StatusBadGateway, details)
	case errors.As(err, &ampNetErr):
		return NewAppError(ErrorCodeAmplifierUnreachable, err.Error(), http.StatusBadGateway, nil)
	case errors.Is(err, amplifier.ErrInvalidResponse):
		return NewAppError(ErrorCodeAmplifierInvalidResponse, err.Error(), http.StatusBadGateway, nil)
	case errors.As(err, &ampErr):
		return NewAppError(ErrorCodeAmplifierError, err.Error(), http.StatusBadGateway, nil)
	case errors.Is(err, applemusic.ErrNoDataReturned):
		return NewAppError(ErrorCodeAppleNoData, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, applemusic.ErrMissingToken),
		errors.Is(err, applemusic.ErrInvalidPrivateKey),
		errors.Is(err, applemusic.ErrInvalidSecret),
		errors.Is(err, applemusic.ErrExpirationTooLong):
		return NewAppError(ErrorCodeAppleTokenInvalid, err.Error(), http.StatusBadGateway, nil)
	case errors.As(err, &appleHTTP):
		return NewAppError(ErrorCodeAppleAPIError, err.Error(), http.StatusBadGateway, map[string]any{"status": appleHTTP.StatusCode})
	case errors.As(err, &appleNet), errors.As(err, &appleDecode):
		return NewAppError(ErrorCodeAppleAPIError, err.Error(), http.StatusBadGateway, nil)
	case errors.Is(err, openurl.ErrUnsupportedPlatform), errors.As(err, &openErr):
		return NewAppError(ErrorCodeOpenURLFailed, err.Error(), http.StatusInternalServerError, nil)
	default:
		return NewInternalError("Internal server error")
	}
}
