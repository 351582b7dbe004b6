package tools

import (
	"context"
	"fmt"

	"github.com/strefethen/music-agent-go/internal/amplifier"
)

// AmplifierFactory builds a controller for an explicit host and port.
type AmplifierFactory func(host string, port int) amplifier.Controller

// SourceEntry pairs a 1-based input index with its name.
type SourceEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// AmplifierStatus is the getStatus result.
type AmplifierStatus struct {
	Zone   string `json:"zone"`
	Power  string `json:"power"`
	Source string `json:"source"`
}

var amplifierEndpoint = map[string]property{
	"host": str("Optional host address for the amplifier"),
	"port": integer("Optional port for the amplifier (default: 10443)"),
}

type amplifierTools struct {
	controller amplifier.Controller
	factory    AmplifierFactory
}

// RegisterAmplifier adds the amplifier toolset. factory may be nil, in which
// case host and port overrides are ignored.
func RegisterAmplifier(r *Registry, controller amplifier.Controller, factory AmplifierFactory) {
	t := &amplifierTools{controller: controller, factory: factory}
	endpoint := schema(amplifierEndpoint)

	r.mustRegister(
		Tool{
			Name:        "powerOn",
			Description: "Power on the amplifier",
			InputSchema: endpoint,
			Handler: t.simple(func(ctx context.Context, c amplifier.Controller) error {
				return c.PowerOn(ctx)
			}, "Amplifier powered on"),
		},
		Tool{
			Name:        "powerOff",
			Description: "Power off the amplifier",
			InputSchema: endpoint,
			Handler: t.simple(func(ctx context.Context, c amplifier.Controller) error {
				return c.PowerOff(ctx)
			}, "Amplifier powered off"),
		},
		Tool{
			Name:        "switchToSonos",
			Description: "Switch amplifier input to Sonos",
			InputSchema: endpoint,
			Handler: t.simple(func(ctx context.Context, c amplifier.Controller) error {
				return c.SwitchToSonos(ctx)
			}, "Switched to Sonos input"),
		},
		Tool{
			Name:        "switchToAppleTV",
			Description: "Switch amplifier input to Apple TV",
			InputSchema: endpoint,
			Handler: t.simple(func(ctx context.Context, c amplifier.Controller) error {
				return c.SwitchToAppleTV(ctx)
			}, "Switched to Apple TV input"),
		},
		Tool{
			Name:        "switchToSource",
			Description: "Switch amplifier to a specific input source by index",
			InputSchema: schema(merge(amplifierEndpoint, map[string]property{
				"index": integer("The 1-based index of the input source (see getSources)"),
			}), "index"),
			Handler: t.switchToSource,
		},
		Tool{
			Name:        "getSources",
			Description: "Get a list of available input sources",
			InputSchema: endpoint,
			Handler:     t.getSources,
		},
		Tool{
			Name:        "getStatus",
			Description: "Get the current status of the amplifier",
			InputSchema: endpoint,
			Handler:     t.getStatus,
		},
	)
}

func (t *amplifierTools) resolve(args Args) (amplifier.Controller, error) {
	host := args.OptionalString("host")
	port, err := args.IntOr("port", 0)
	if err != nil {
		return nil, err
	}
	if t.factory == nil || (host == "" && port == 0) {
		return t.controller, nil
	}
	return t.factory(host, port), nil
}

func (t *amplifierTools) simple(fn func(context.Context, amplifier.Controller) error, message string) HandlerFunc {
	return func(ctx context.Context, args Args) (any, error) {
		c, err := t.resolve(args)
		if err != nil {
			return nil, err
		}
		if err := fn(ctx, c); err != nil {
			return nil, err
		}
		return message, nil
	}
}

func (t *amplifierTools) switchToSource(ctx context.Context, args Args) (any, error) {
	index, err := args.RequiredInt("index")
	if err != nil {
		return nil, err
	}
	c, err := t.resolve(args)
	if err != nil {
		return nil, err
	}
	name, err := amplifier.SwitchToValidatedSource(ctx, c, index)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("Switched to source %s (index %d)", name, index), nil
}

func (t *amplifierTools) getSources(ctx context.Context, args Args) (any, error) {
	c, err := t.resolve(args)
	if err != nil {
		return nil, err
	}
	names, err := c.GetSourceNames(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]SourceEntry, len(names))
	for i, name := range names {
		entries[i] = SourceEntry{Index: i + 1, Name: name}
	}
	return entries, nil
}

func (t *amplifierTools) getStatus(ctx context.Context, args Args) (any, error) {
	c, err := t.resolve(args)
	if err != nil {
		return nil, err
	}
	status, err := c.GetMainZoneStatus(ctx)
	if err != nil {
		return nil, err
	}
	result := AmplifierStatus{Zone: status.Name, Power: "Off", Source: status.SourceName}
	if status.IsPowered {
		result.Power = "On"
	}
	if result.Source == "" {
		result.Source = "Unknown"
	}
	return result, nil
}
