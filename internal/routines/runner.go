package routines

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/logging"
	"github.com/strefethen/music-agent-go/internal/tools"
)

// SourcePrefix labels tool calls made by routines, followed by the routine name.
const SourcePrefix = "routine:"

// Runner executes routines through the tool registry and schedules them on cron.
type Runner struct {
	logger   *zap.Logger
	registry *tools.Registry
	runs     *Repository
	routines map[string]Routine

	cron     *cron.Cron
	baseCtx  context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewRunner validates routines against the registry. runs may be nil, in which
// case runs are not persisted.
func NewRunner(routines []Routine, registry *tools.Registry, runs *Repository, logger *zap.Logger) (*Runner, error) {
	byName := make(map[string]Routine, len(routines))
	for _, r := range routines {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate routine name %q", r.Name)
		}
		for i, step := range r.Steps {
			if _, ok := registry.Get(step.Tool); !ok {
				return nil, fmt.Errorf("routine %s: step %d: %w: %s", r.Name, i+1, tools.ErrToolNotFound, step.Tool)
			}
		}
		byName[r.Name] = r
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger:   logging.Or(logger).Named("routines"),
		registry: registry,
		runs:     runs,
		routines: byName,
		cron:     cron.New(cron.WithParser(scheduleParser)),
		baseCtx:  ctx,
		cancel:   cancel,
	}, nil
}

// List returns routines sorted by name.
func (r *Runner) List() []Routine {
	list := make([]Routine, 0, len(r.routines))
	for _, routine := range r.routines {
		list = append(list, routine)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Get returns one routine by name.
func (r *Runner) Get(name string) (Routine, bool) {
	routine, ok := r.routines[name]
	return routine, ok
}

// Runs returns recent persisted runs of a routine.
func (r *Runner) Runs(ctx context.Context, name string, limit int) ([]Run, error) {
	if _, ok := r.routines[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoutineNotFound, name)
	}
	if r.runs == nil {
		return []Run{}, nil
	}
	return r.runs.ListRuns(ctx, name, limit)
}

// Start schedules every routine that has a schedule.
func (r *Runner) Start() error {
	scheduled := 0
	for _, routine := range r.List() {
		if routine.Schedule == "" {
			continue
		}
		name := routine.Name
		if _, err := r.cron.AddFunc(routine.Schedule, func() {
			if _, err := r.Run(r.baseCtx, name, TriggerSchedule); err != nil {
				r.logger.Error("scheduled routine failed", zap.String("routine", name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule routine %s: %w", name, err)
		}
		scheduled++
	}
	r.cron.Start()
	r.logger.Info("routine scheduler started", zap.Int("routines", len(r.routines)), zap.Int("scheduled", scheduled))
	return nil
}

// Stop cancels in-flight scheduled runs and waits for them to return.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		<-r.cron.Stop().Done()
		r.logger.Info("routine scheduler stopped")
	})
}

// Run executes a routine's steps in order. The first failing step stops the
// routine and is returned as a *StepError alongside the failed run.
func (r *Runner) Run(ctx context.Context, name, trigger string) (*Run, error) {
	routine, ok := r.routines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoutineNotFound, name)
	}

	run := r.startRun(ctx, name, trigger)
	logger := r.logger.With(zap.String("routine", name), zap.String("run_id", run.RunID), zap.String("trigger", trigger))
	logger.Info("routine started", zap.Int("steps", len(routine.Steps)))

	source := SourcePrefix + name
	var runErr error
	for i, step := range routine.Steps {
		result, err := r.registry.CallFrom(ctx, source, step.Tool, tools.Args(copyArgs(step.Args)))
		outcome := StepResult{Index: i, Tool: step.Tool, Result: result}
		if err != nil {
			outcome.Result = nil
			outcome.Error = err.Error()
			run.Steps = append(run.Steps, outcome)

			runErr = &StepError{Routine: name, Index: i, Tool: step.Tool, Err: err}
			failed := i
			msg := runErr.Error()
			run.Status = RunStatusFailed
			run.FailedStep = &failed
			run.Error = &msg
			logger.Error("routine step failed", zap.Int("step", i+1), zap.String("tool", step.Tool), zap.Error(err))
			break
		}
		run.Steps = append(run.Steps, outcome)
	}
	if runErr == nil {
		run.Status = RunStatusSucceeded
		logger.Info("routine succeeded")
	}

	r.finishRun(ctx, run)
	return run, runErr
}

func (r *Runner) startRun(ctx context.Context, name, trigger string) *Run {
	if r.runs != nil {
		run, err := r.runs.StartRun(context.WithoutCancel(ctx), name, trigger)
		if err == nil {
			run.persisted = true
			return run
		}
		r.logger.Warn("failed to record routine start", zap.String("routine", name), zap.Error(err))
	}
	return &Run{
		Object:      "routine_run",
		RunID:       "run_" + uuid.NewString(),
		Routine:     name,
		TriggeredBy: trigger,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
}

func (r *Runner) finishRun(ctx context.Context, run *Run) {
	if r.runs == nil || !run.persisted {
		ended := time.Now().UTC()
		run.EndedAt = &ended
		return
	}
	if err := r.runs.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		r.logger.Warn("failed to record routine result", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

// copyArgs keeps tool handlers from mutating the routine definition.
func copyArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

// IsNotFound reports whether err is ErrRoutineNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoutineNotFound)
}
