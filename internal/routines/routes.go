package routines

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/music-agent-go/internal/api"
	"github.com/strefethen/music-agent-go/internal/apperrors"
)

// RegisterRoutes wires routine routes to the router.
func RegisterRoutes(router chi.Router, runner *Runner) {
	router.Method(http.MethodGet, "/v1/routines", api.Handler(listRoutines(runner)))
	router.Method(http.MethodPost, "/v1/routines/{name}/run", api.Handler(runRoutine(runner)))
	router.Method(http.MethodGet, "/v1/routines/{name}/runs", api.Handler(listRuns(runner)))
}

type routineResource struct {
	Object string `json:"object"`
	Routine
}

// GET /v1/routines
func listRoutines(runner *Runner) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		list := runner.List()
		data := make([]routineResource, 0, len(list))
		for _, routine := range list {
			data = append(data, routineResource{Object: "routine", Routine: routine})
		}
		return api.WriteList(w, "/v1/routines", data, false)
	}
}

// POST /v1/routines/{name}/run
//
// A failed step still returns 200 with status "failed"; the run itself is the
// resource.
func runRoutine(runner *Runner) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		name := chi.URLParam(r, "name")
		run, err := runner.Run(r.Context(), name, TriggerManual)
		if err != nil {
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				return routineError(name, err)
			}
		}
		return api.WriteResource(w, http.StatusOK, run)
	}
}

// GET /v1/routines/{name}/runs
func listRuns(runner *Runner) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		name := chi.URLParam(r, "name")
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 100 {
				return apperrors.NewValidationError("limit must be between 1 and 100", map[string]any{"field": "limit"})
			}
			limit = parsed
		}
		runs, err := runner.Runs(r.Context(), name, limit)
		if err != nil {
			return routineError(name, err)
		}
		return api.WriteList(w, "/v1/routines/"+name+"/runs", runs, false)
	}
}

func routineError(name string, err error) error {
	if IsNotFound(err) {
		return apperrors.NewAppError(apperrors.ErrorCodeRoutineNotFound, "Routine not found", http.StatusNotFound, map[string]any{
			"routine": name,
		})
	}
	return apperrors.NewInternalError("Failed to load routine runs")
}
