// Package routines runs named sequences of tool calls, on a cron schedule or
// on demand.
package routines

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRoutineNotFound is returned when no routine has the requested name.
var ErrRoutineNotFound = errors.New("routine not found")

// Step is one tool call within a routine.
type Step struct {
	Tool string         `yaml:"tool" json:"tool"`
	Args map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// Routine is a named list of steps. An empty Schedule means manual only.
type Routine struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Schedule    string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// File is the on-disk layout of routines.yaml.
type File struct {
	Routines []Routine `yaml:"routines"`
}

// RunStatus tracks a run through its lifecycle.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Trigger values recorded with each run.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// StepResult is the outcome of one executed step.
type StepResult struct {
	Index  int    `json:"index"`
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Run is one execution of a routine. Steps are only populated for runs made
// in this process.
type Run struct {
	Object      string       `json:"object"`
	RunID       string       `json:"run_id"`
	Routine     string       `json:"routine"`
	TriggeredBy string       `json:"triggered_by"`
	Status      RunStatus    `json:"status"`
	StartedAt   time.Time    `json:"started_at"`
	EndedAt     *time.Time   `json:"ended_at,omitempty"`
	FailedStep  *int         `json:"failed_step,omitempty"`
	Error       *string      `json:"error,omitempty"`
	Steps       []StepResult `json:"steps,omitempty"`

	persisted bool
}

// StepError reports the step that stopped a routine.
type StepError struct {
	Routine string
	Index   int
	Tool    string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("routine %s: step %d (%s): %v", e.Routine, e.Index+1, e.Tool, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// DBPair is the database interface the run repository needs.
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}
