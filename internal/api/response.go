package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/apperrors"
	"github.com/strefethen/music-agent-go/internal/logging"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// StripeListResponse is the list envelope for collection endpoints.
// Example: {"object": "list", "data": [...], "has_more": false, "url": "/v1/tools"}
type StripeListResponse struct {
	Object  string `json:"object"`
	Data    any    `json:"data"`
	HasMore bool   `json:"has_more"`
	URL     string `json:"url"`
}

// StripeErrorResponse wraps errors in Stripe format.
type StripeErrorResponse struct {
	Error apperrors.StripeErrorBody `json:"error"`
}

// WriteJSON sends a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteError serializes an error into the Stripe-style error response.
// Response format: {"error": {"type": "...", "code": "...", "message": "..."}}
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.EnsureAppError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		logging.Error("request failed",
			zap.Error(err),
			zap.String("code", string(appErr.Code)),
			zap.String("path", r.URL.Path),
			zap.String("request_id", GetRequestID(r)),
		)
	}

	_ = WriteJSON(w, appErr.StatusCode, StripeErrorResponse{Error: appErr.StripeErrorBody()})
}

// WriteList writes a Stripe-style list response.
func WriteList(w http.ResponseWriter, url string, data any, hasMore bool) error {
	return WriteJSON(w, http.StatusOK, StripeListResponse{
		Object:  "list",
		Data:    data,
		HasMore: hasMore,
		URL:     url,
	})
}

// WriteResource writes a single resource that carries its own "object" field.
func WriteResource(w http.ResponseWriter, status int, resource any) error {
	return WriteJSON(w, status, resource)
}

// DecodeJSON reads a JSON request body into out. An empty body leaves out
// untouched.
func DecodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.NewValidationError("Invalid JSON body: "+err.Error(), nil)
	}
	return nil
}
