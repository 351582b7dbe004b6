package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/api"
	"github.com/strefethen/music-agent-go/internal/audit"
	"github.com/strefethen/music-agent-go/internal/auth"
	"github.com/strefethen/music-agent-go/internal/config"
	"github.com/strefethen/music-agent-go/internal/db"
	"github.com/strefethen/music-agent-go/internal/logging"
	"github.com/strefethen/music-agent-go/internal/nowplaying"
	"github.com/strefethen/music-agent-go/internal/routines"
	"github.com/strefethen/music-agent-go/internal/sonos"
	"github.com/strefethen/music-agent-go/internal/system"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// Source labels tool calls made through the HTTP gateway.
const Source = "gateway"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// requestLoggerMiddleware logs all incoming HTTP requests
func requestLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.status),
				zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
				zap.String("request_id", api.GetRequestID(r)),
			)
		})
	}
}

// Deps are the already-built pieces the gateway serves.
type Deps struct {
	Registry *tools.Registry
	// Sonos enables the now-playing websocket when set.
	Sonos *sonos.Client
	// Routines are scheduled on cron while the handler is live. Nil means
	// load cfg.Gateway.RoutinesFile.
	Routines []routines.Routine
	// Version is reported by GET /v1/system/info.
	Version string
	Logger  *zap.Logger
}

// NewHandler builds the HTTP handler and returns a shutdown function.
func NewHandler(cfg config.Config, deps Deps) (http.Handler, func(context.Context) error, error) {
	if err := cfg.Gateway.Validate(); err != nil {
		return nil, nil, err
	}
	if deps.Registry == nil {
		return nil, nil, errors.New("tool registry is required")
	}
	logger := logging.Or(deps.Logger).Named("gateway")

	logger.Info("using database", zap.String("path", cfg.Gateway.SQLiteDBPath))
	dbPair, err := db.Init(cfg.Gateway.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(api.RequestIDMiddleware)
	router.Use(requestLoggerMiddleware(logger))
	router.Use(api.RecovererMiddleware)
	router.Use(auth.Middleware(cfg.Gateway))

	auditService := audit.NewService(dbPair, logger)
	deps.Registry.AddObserver(auditService)
	audit.RegisterRoutes(router, auditService)
	auditService.StartPruneJob()

	registerHealthRoutes(router, auditService)
	registerToolRoutes(router, deps.Registry)

	routineDefs := deps.Routines
	if routineDefs == nil {
		routineDefs, err = loadRoutines(cfg.Gateway.RoutinesFile, logger)
		if err != nil {
			auditService.StopPruneJob()
			_ = dbPair.Close()
			return nil, nil, err
		}
	}
	runner, err := routines.NewRunner(routineDefs, deps.Registry, routines.NewRepository(dbPair), logger)
	if err != nil {
		auditService.StopPruneJob()
		_ = dbPair.Close()
		return nil, nil, err
	}
	routines.RegisterRoutes(router, runner)
	if err := runner.Start(); err != nil {
		auditService.StopPruneJob()
		_ = dbPair.Close()
		return nil, nil, err
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	var clients system.ClientCounter
	if deps.Sonos != nil {
		hub := nowplaying.NewHub(logger)
		poller := nowplaying.NewPoller(deps.Sonos, hub, cfg.Gateway.NowPlayingInterval())
		go hub.Run(bgCtx)
		go poller.Run(bgCtx)
		nowplaying.RegisterRoutes(router, hub, poller, deps.Sonos.ResolveRoom)
		clients = hub
	}
	system.RegisterRoutes(router, system.NewService(deps.Version, dbPair, deps.Registry, runner, clients))

	shutdown := func(ctx context.Context) error {
		bgCancel()
		runner.Stop()
		auditService.StopPruneJob()
		return dbPair.Close()
	}

	return router, shutdown, nil
}

// loadRoutines treats a missing routines file as no routines.
func loadRoutines(path string, logger *zap.Logger) ([]routines.Routine, error) {
	if path == "" {
		return []routines.Routine{}, nil
	}
	defs, err := routines.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("no routines file, scheduler idle", zap.String("path", path))
		return []routines.Routine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load routines: %w", err)
	}
	return defs, nil
}

func registerHealthRoutes(router chi.Router, auditService *audit.Service) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "music-agent",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		if !auditService.IsHealthy() {
			return api.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "degraded",
				"checks": map[string]string{"audit": "failing"},
			})
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
