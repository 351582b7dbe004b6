// Package tools exposes the amplifier, Sonos, Apple Music and URL clients as
// named tools with JSON Schema inputs. The same registry backs the MCP
// server, the HTTP gateway and scheduled routines.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrToolNotFound is returned by Call for an unregistered name.
var ErrToolNotFound = errors.New("tool not found")

// HandlerFunc runs a tool. The result is either a string or a value that
// marshals to JSON.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// Tool describes one callable operation.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	Handler     HandlerFunc     `json:"-"`
}

// Invocation is what observers see after every call.
type Invocation struct {
	Tool      string
	Args      Args
	Result    any
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	// Source identifies the caller, e.g. "gateway", "mcp" or "routine:morning".
	Source string
}

// Observer is notified after each tool call, successful or not.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, inv Invocation)

func (f ObserverFunc) ObserveInvocation(ctx context.Context, inv Invocation) {
	f(ctx, inv)
}

// Registry holds tools in registration order.
type Registry struct {
	mu        sync.RWMutex
	tools     []Tool
	byName    map[string]int
	observers []Observer
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return errors.New("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	if len(tool.InputSchema) == 0 {
		tool.InputSchema = emptySchema
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.byName[tool.Name] = len(r.tools)
	r.tools = append(r.tools, tool)
	return nil
}

func (r *Registry) mustRegister(tools ...Tool) {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			panic(err)
		}
	}
}

// AddObserver registers an observer for every subsequent call.
func (r *Registry) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[idx], true
}

// List returns tools in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Tool(nil), r.tools...)
}

// Names returns tool names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for _, tool := range r.tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Call runs the named tool and notifies observers.
func (r *Registry) Call(ctx context.Context, name string, args Args) (any, error) {
	return r.CallFrom(ctx, "", name, args)
}

// CallFrom is Call with a caller label recorded on the Invocation.
func (r *Registry) CallFrom(ctx context.Context, source, name string, args Args) (any, error) {
	if args == nil {
		args = Args{}
	}

	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrToolNotFound, name, strings.Join(r.Names(), ", "))
	}

	started := time.Now()
	result, err := tool.Handler(ctx, args)

	r.mu.RLock()
	observers := append([]Observer(nil), r.observers...)
	r.mu.RUnlock()

	inv := Invocation{
		Tool:      name,
		Args:      args,
		Result:    result,
		Err:       err,
		StartedAt: started,
		Duration:  time.Since(started),
		Source:    source,
	}
	for _, o := range observers {
		o.ObserveInvocation(ctx, inv)
	}
	return result, err
}

// RenderText formats a tool result for text transports: strings pass
// through and everything else becomes indented JSON.
func RenderText(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}
