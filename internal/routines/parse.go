package routines

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// scheduleParser accepts standard five-field expressions plus descriptors
// such as @daily.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Load reads and validates a routines file.
func Load(path string) ([]Routine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routines file: %w", err)
	}
	routines, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return routines, nil
}

// Parse decodes routines YAML and validates every routine.
func Parse(data []byte) ([]Routine, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse routines: %w", err)
	}

	seen := make(map[string]bool, len(file.Routines))
	for i := range file.Routines {
		r := &file.Routines[i]
		r.Name = strings.TrimSpace(r.Name)
		r.Schedule = strings.TrimSpace(r.Schedule)
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("duplicate routine name %q", r.Name)
		}
		seen[r.Name] = true
	}
	return file.Routines, nil
}

// Validate checks the name, schedule and steps.
func (r Routine) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("routine name is required")
	}
	if r.Schedule != "" {
		if _, err := scheduleParser.Parse(r.Schedule); err != nil {
			return fmt.Errorf("routine %s: invalid schedule %q: %w", r.Name, r.Schedule, err)
		}
	}
	if len(r.Steps) == 0 {
		return fmt.Errorf("routine %s: at least one step is required", r.Name)
	}
	for i, step := range r.Steps {
		if strings.TrimSpace(step.Tool) == "" {
			return fmt.Errorf("routine %s: step %d: tool is required", r.Name, i+1)
		}
	}
	return nil
}
