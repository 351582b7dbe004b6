package amplifier

import (
	"context"
	"slices"
	"sync"
)

var defaultMockSources = []string{"AppleTV", "Sonos", "CD", "Tuner"}

// MockCalls is a snapshot of how often each operation was invoked.
type MockCalls struct {
	PowerOn           int
	PowerOff          int
	SwitchToSource    int
	SwitchToSonos     int
	SwitchToAppleTV   int
	GetSourceNames    int
	GetMainZoneStatus int
	LastSourceIndex   int
}

// MockController is an in-memory Controller for tests and dry runs.
type MockController struct {
	mu            sync.Mutex
	sources       []string
	zoneName      string
	powered       bool
	currentSource string
	calls         MockCalls
}

// NewMockController returns a mock with four sources, powered off, on AppleTV.
func NewMockController() *MockController {
	m := &MockController{}
	m.Reset()
	return m
}

// Reset restores the initial state and clears call counters.
func (m *MockController) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = slices.Clone(defaultMockSources)
	m.zoneName = "Main Zone"
	m.powered = false
	m.currentSource = "AppleTV"
	m.calls = MockCalls{}
}

// Calls returns the current call counters.
func (m *MockController) Calls() MockCalls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockController) PowerOn(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.PowerOn++
	m.powered = true
	return nil
}

func (m *MockController) PowerOff(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.PowerOff++
	m.powered = false
	return nil
}

// SwitchToSource records the index and changes the current source only when
// the index is in range, mirroring a receiver that ignores bad indices.
func (m *MockController) SwitchToSource(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchLocked(index)
	return nil
}

func (m *MockController) switchLocked(index int) {
	m.calls.SwitchToSource++
	m.calls.LastSourceIndex = index
	if index > 0 && index <= len(m.sources) {
		m.currentSource = m.sources[index-1]
	}
}

func (m *MockController) SwitchToSonos(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.SwitchToSonos++
	m.switchLocked(slices.Index(m.sources, "Sonos") + 1)
	return nil
}

func (m *MockController) SwitchToAppleTV(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.SwitchToAppleTV++
	m.switchLocked(slices.Index(m.sources, "AppleTV") + 1)
	return nil
}

func (m *MockController) GetSourceNames(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.GetSourceNames++
	return slices.Clone(m.sources), nil
}

func (m *MockController) GetMainZoneStatus(_ context.Context) (ZoneStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.GetMainZoneStatus++
	return ZoneStatus{Name: m.zoneName, IsPowered: m.powered, SourceName: m.currentSource}, nil
}
