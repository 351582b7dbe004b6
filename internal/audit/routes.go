package audit

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/music-agent-go/internal/api"
	"github.com/strefethen/music-agent-go/internal/apperrors"
)

var validEventLevels = map[string]EventLevel{
	"INFO":  EventLevelInfo,
	"WARN":  EventLevelWarn,
	"ERROR": EventLevelError,
}

// RegisterRoutes wires audit routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/audit/events", api.Handler(queryEvents(service)))
	router.Method(http.MethodGet, "/v1/audit/events/{event_id}", api.Handler(getEvent(service)))
}

// GET /v1/audit/events
func queryEvents(service *Service) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		filters, err := parseQueryFilters(r)
		if err != nil {
			return err
		}

		events, _, hasMore, err := service.QueryEvents(r.Context(), filters)
		if err != nil {
			return apperrors.NewInternalError("Failed to query audit events")
		}

		return api.WriteList(w, "/v1/audit/events", events, hasMore)
	}
}

// GET /v1/audit/events/{event_id}
func getEvent(service *Service) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		eventID := chi.URLParam(r, "event_id")

		event, err := service.GetEvent(r.Context(), eventID)
		if err != nil {
			var notFoundErr *EventNotFoundError
			if errors.As(err, &notFoundErr) {
				return apperrors.NewAppError(apperrors.ErrorCodeEventNotFound, "Event not found", http.StatusNotFound, map[string]any{
					"event_id": eventID,
				})
			}
			return apperrors.NewInternalError("Failed to get audit event")
		}

		return api.WriteResource(w, http.StatusOK, event)
	}
}

func parseQueryFilters(r *http.Request) (EventQueryFilters, error) {
	filters := EventQueryFilters{Limit: DefaultQueryLimit}
	query := r.URL.Query()

	if tool := query.Get("tool"); tool != "" {
		filters.Tool = &tool
	}
	if source := query.Get("source"); source != "" {
		filters.Source = &source
	}
	if client := query.Get("client"); client != "" {
		filters.Client = &client
	}

	if level := query.Get("level"); level != "" {
		parsed, ok := validEventLevels[strings.ToUpper(level)]
		if !ok {
			return filters, apperrors.NewValidationError("invalid level", map[string]any{
				"level":        level,
				"valid_levels": []string{"INFO", "WARN", "ERROR"},
			})
		}
		filters.Level = &parsed
	}

	if raw := query.Get("start_date"); raw != "" {
		start, err := parseDate(raw, false)
		if err != nil {
			return filters, apperrors.NewValidationError("invalid start_date, expected ISO 8601", map[string]any{"start_date": raw})
		}
		filters.StartDate = &start
	}
	if raw := query.Get("end_date"); raw != "" {
		end, err := parseDate(raw, true)
		if err != nil {
			return filters, apperrors.NewValidationError("invalid end_date, expected ISO 8601", map[string]any{"end_date": raw})
		}
		filters.EndDate = &end
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > MaxQueryLimit {
			return filters, apperrors.NewValidationError("invalid limit, must be between 1 and 1000", map[string]any{
				"limit": limitStr,
			})
		}
		filters.Limit = limit
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filters, apperrors.NewValidationError("invalid offset, must be >= 0", map[string]any{
				"offset": offsetStr,
			})
		}
		filters.Offset = offset
	}

	return filters, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Millisecond), nil
	}
	return day, nil
}
