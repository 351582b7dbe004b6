// Package amplifier controls the main zone of an AV receiver through its
// HTTPS/XML web API.
package amplifier

import (
	"context"
	"fmt"
)

const (
	DefaultPort               = 10443
	DefaultSonosSourceIndex   = 4
	DefaultAppleTVSourceIndex = 1
)

// Controller is the operation set shared by the HTTP and mock controllers.
// Source indices are 1-based.
type Controller interface {
	PowerOn(ctx context.Context) error
	PowerOff(ctx context.Context) error
	SwitchToSource(ctx context.Context, index int) error
	SwitchToSonos(ctx context.Context) error
	SwitchToAppleTV(ctx context.Context) error
	GetSourceNames(ctx context.Context) ([]string, error)
	GetMainZoneStatus(ctx context.Context) (ZoneStatus, error)
}

// ZoneStatus is the combined main zone state.
type ZoneStatus struct {
	Name       string `json:"name"`
	IsPowered  bool   `json:"is_powered"`
	SourceName string `json:"source_name,omitempty"`
}

// Config holds connection parameters and the installation's source wiring.
type Config struct {
	Host               string
	Port               int
	SonosSourceIndex   int
	AppleTVSourceIndex int
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.SonosSourceIndex == 0 {
		c.SonosSourceIndex = DefaultSonosSourceIndex
	}
	if c.AppleTVSourceIndex == 0 {
		c.AppleTVSourceIndex = DefaultAppleTVSourceIndex
	}
	return c
}

// SwitchToValidatedSource fetches the current source list and switches only
// when index falls inside it.
func SwitchToValidatedSource(ctx context.Context, c Controller, index int) (string, error) {
	names, err := c.GetSourceNames(ctx)
	if err != nil {
		return "", err
	}
	if index < 1 || index > len(names) {
		return "", fmt.Errorf("%w: %d not in 1..%d", ErrInvalidSourceIndex, index, len(names))
	}
	if err := c.SwitchToSource(ctx, index); err != nil {
		return "", err
	}
	return names[index-1], nil
}
