// Package system reports gateway status.
package system

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/strefethen/music-agent-go/internal/routines"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// pingTimeout bounds the SQLite liveness check.
const pingTimeout = 2 * time.Second

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
}

// ClientCounter reports connected websocket clients. *nowplaying.Hub
// satisfies it.
type ClientCounter interface {
	ClientCount() int
}

// Info is the GET /v1/system/info resource.
type Info struct {
	Object            string  `json:"object"`
	Version           string  `json:"version"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
	MemoryMB          float64 `json:"memory_mb"`
	Goroutines        int     `json:"goroutines"`
	SQLiteConnected   bool    `json:"sqlite_connected"`
	Tools             int     `json:"tools"`
	Routines          int     `json:"routines"`
	ScheduledRoutines int     `json:"scheduled_routines"`
	NowPlayingEnabled bool    `json:"now_playing_enabled"`
	NowPlayingClients int     `json:"now_playing_clients"`
}

// Service collects status from the gateway's components. The runner and
// clients may be nil.
type Service struct {
	version  string
	reader   *sql.DB
	registry *tools.Registry
	runner   *routines.Runner
	clients  ClientCounter
	started  time.Time
	now      func() time.Time
}

// NewService creates a Service. Uptime is measured from this call.
func NewService(version string, dbPair DBPair, registry *tools.Registry, runner *routines.Runner, clients ClientCounter) *Service {
	return &Service{
		version:  version,
		reader:   dbPair.Reader(),
		registry: registry,
		runner:   runner,
		clients:  clients,
		started:  time.Now(),
		now:      time.Now,
	}
}

// Info gathers the current status.
func (s *Service) Info(ctx context.Context) Info {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := Info{
		Object:          "system_info",
		Version:         s.version,
		UptimeSeconds:   int64(s.now().Sub(s.started).Seconds()),
		MemoryMB:        float64(mem.Alloc) / 1024 / 1024,
		Goroutines:      runtime.NumGoroutine(),
		SQLiteConnected: s.sqliteConnected(ctx),
	}
	if s.registry != nil {
		info.Tools = s.registry.Len()
	}
	if s.runner != nil {
		for _, routine := range s.runner.List() {
			info.Routines++
			if routine.Schedule != "" {
				info.ScheduledRoutines++
			}
		}
	}
	if s.clients != nil {
		info.NowPlayingEnabled = true
		info.NowPlayingClients = s.clients.ClientCount()
	}
	return info
}

func (s *Service) sqliteConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.reader.PingContext(ctx) == nil
}
