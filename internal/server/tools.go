package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/music-agent-go/internal/api"
	"github.com/strefethen/music-agent-go/internal/tools"
)

type toolResource struct {
	Object string `json:"object"`
	tools.Tool
}

type toolResult struct {
	Object string `json:"object"`
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

func registerToolRoutes(router chi.Router, registry *tools.Registry) {
	router.Method(http.MethodGet, "/v1/tools", api.Handler(listTools(registry)))
	router.Method(http.MethodPost, "/v1/tools/{name}", api.Handler(callTool(registry)))
}

// GET /v1/tools
func listTools(registry *tools.Registry) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		list := registry.List()
		data := make([]toolResource, 0, len(list))
		for _, tool := range list {
			data = append(data, toolResource{Object: "tool", Tool: tool})
		}
		return api.WriteList(w, "/v1/tools", data, false)
	}
}

// POST /v1/tools/{name}
// Body: the tool's JSON arguments, or empty for none.
func callTool(registry *tools.Registry) api.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		name := chi.URLParam(r, "name")

		var args tools.Args
		if err := api.DecodeJSON(r, &args); err != nil {
			return err
		}

		result, err := registry.CallFrom(r.Context(), Source, name, args)
		if err != nil {
			return err
		}
		return api.WriteResource(w, http.StatusOK, toolResult{Object: "tool_result", Tool: name, Result: result})
	}
}
