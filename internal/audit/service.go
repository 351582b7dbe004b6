package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/api"
	"github.com/strefethen/music-agent-go/internal/auth"
	"github.com/strefethen/music-agent-go/internal/logging"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// Default configuration values
const (
	DefaultRetentionDays   = 90
	DefaultPruneInterval   = 24 * time.Hour
	DefaultQueryLimit      = 100
	MaxQueryLimit          = 1000
	MaxConsecutiveFailures = 3
)

// Service records tool invocations and serves them back to the gateway.
type Service struct {
	logger              *zap.Logger
	repo                *Repository
	retentionDays       int
	pruneInterval       time.Duration
	stopCh              chan struct{}
	stopOnce            sync.Once
	wg                  sync.WaitGroup
	healthy             bool
	healthMu            sync.RWMutex
	consecutiveFailures int
}

// NewService creates a new audit service. A nil logger uses the global one.
func NewService(dbPair DBPair, logger *zap.Logger) *Service {
	return &Service{
		logger:        logging.Or(logger).Named("audit"),
		repo:          NewRepository(dbPair),
		retentionDays: DefaultRetentionDays,
		pruneInterval: DefaultPruneInterval,
		stopCh:        make(chan struct{}),
		healthy:       true,
	}
}

// RecordEvent writes a new audit event.
func (s *Service) RecordEvent(ctx context.Context, input WriteEventInput) (*AuditEvent, error) {
	if input.Level == nil {
		level := EventLevelInfo
		input.Level = &level
	}

	s.logger.Debug("recording audit event",
		zap.String("tool", input.Tool),
		zap.String("level", string(*input.Level)),
		zap.String("source", input.Source),
	)

	event, err := s.repo.InsertEvent(ctx, input)
	if err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("failed to record audit event: %w", err)
	}

	s.recordSuccess()
	return event, nil
}

// ObserveInvocation records a tool call. It implements tools.Observer.
// Recording outlives the caller's cancellation so failed requests are kept.
func (s *Service) ObserveInvocation(ctx context.Context, inv tools.Invocation) {
	input := WriteEventInput{
		Tool:     inv.Tool,
		Source:   inv.Source,
		Args:     inv.Args,
		Duration: inv.Duration,
		Message:  inv.Tool + " succeeded",
	}
	if requestID := api.RequestIDFromContext(ctx); requestID != "" {
		input.RequestID = &requestID
	}
	if user, ok := auth.UserFromContext(ctx); ok && user.ClientName != "" {
		client := user.ClientName
		input.Client = &client
	}
	if name, ok := strings.CutPrefix(inv.Source, RoutineSourcePrefix); ok {
		input.Routine = &name
	}

	if inv.Err != nil {
		level := EventLevelError
		errText := inv.Err.Error()
		input.Level = &level
		input.Error = &errText
		input.Message = inv.Tool + " failed: " + errText
	} else {
		input.Result = inv.Result
	}

	if _, err := s.RecordEvent(context.WithoutCancel(ctx), input); err != nil {
		s.logger.Warn("audit write failed", zap.String("tool", inv.Tool), zap.Error(err))
	}
}

// QueryEvents retrieves events with filters and pagination.
// Returns: events, total count, hasMore flag, error.
func (s *Service) QueryEvents(ctx context.Context, filters EventQueryFilters) ([]AuditEvent, int, bool, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultQueryLimit
	}
	if filters.Limit > MaxQueryLimit {
		filters.Limit = MaxQueryLimit
	}

	events, total, err := s.repo.QueryEvents(ctx, filters)
	if err != nil {
		s.recordFailure()
		return nil, 0, false, fmt.Errorf("failed to query audit events: %w", err)
	}

	s.recordSuccess()
	return events, total, filters.Offset+len(events) < total, nil
}

// GetEvent retrieves a single event by ID.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*AuditEvent, error) {
	event, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		s.recordFailure()
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	s.recordSuccess()

	if event == nil {
		return nil, &EventNotFoundError{EventID: eventID}
	}
	return event, nil
}

// StartPruneJob prunes immediately, then every pruneInterval until
// StopPruneJob is called.
func (s *Service) StartPruneJob() {
	s.logger.Info("starting audit prune job",
		zap.Duration("interval", s.pruneInterval),
		zap.Int("retention_days", s.retentionDays),
	)

	s.wg.Add(1)
	go s.runPruneLoop()
}

// StopPruneJob stops the background prune job. It is safe to call twice.
func (s *Service) StopPruneJob() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.logger.Info("audit prune job stopped")
}

func (s *Service) runPruneLoop() {
	defer s.wg.Done()

	s.pruneAndLog()

	ticker := time.NewTicker(s.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pruneAndLog()
		}
	}
}

func (s *Service) pruneAndLog() {
	count, err := s.Prune(context.Background())
	if err != nil {
		s.logger.Error("audit prune failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("pruned audit events", zap.Int64("count", count))
	}
}

// Prune deletes events past the retention window and returns the count.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	count, err := s.repo.PruneOldEvents(ctx, s.retentionDays)
	if err != nil {
		s.recordFailure()
		return 0, fmt.Errorf("failed to prune audit events: %w", err)
	}

	s.recordSuccess()
	return count, nil
}

// IsHealthy reports false after MaxConsecutiveFailures database errors in a row.
func (s *Service) IsHealthy() bool {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.healthy
}

func (s *Service) recordSuccess() {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.consecutiveFailures = 0
	s.healthy = true
}

func (s *Service) recordFailure() {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.consecutiveFailures++
	if s.consecutiveFailures >= MaxConsecutiveFailures {
		s.healthy = false
	}
}
