package tools

import (
	"fmt"
	"strings"

	"github.com/strefethen/music-agent-go/internal/amplifier"
	"github.com/strefethen/music-agent-go/internal/applemusic"
	"github.com/strefethen/music-agent-go/internal/openurl"
	"github.com/strefethen/music-agent-go/internal/sonos"
)

// Toolset names a group of tools that can be served together.
type Toolset string

const (
	ToolsetAmplifier  Toolset = "amplifier"
	ToolsetSonos      Toolset = "sonos"
	ToolsetAppleMusic Toolset = "applemusic"
	ToolsetOpenURL    Toolset = "openurl"
	ToolsetAll        Toolset = "all"
)

// ParseToolsets parses a comma-separated toolset list. "all" expands to
// every toolset.
func ParseToolsets(value string) ([]Toolset, error) {
	if strings.TrimSpace(value) == "" {
		value = string(ToolsetAll)
	}
	seen := make(map[Toolset]bool)
	var sets []Toolset
	for _, part := range strings.Split(value, ",") {
		set := Toolset(strings.ToLower(strings.TrimSpace(part)))
		switch set {
		case ToolsetAll:
			return []Toolset{ToolsetAmplifier, ToolsetSonos, ToolsetAppleMusic, ToolsetOpenURL}, nil
		case ToolsetAmplifier, ToolsetSonos, ToolsetAppleMusic, ToolsetOpenURL:
			if !seen[set] {
				seen[set] = true
				sets = append(sets, set)
			}
		case "":
		default:
			return nil, fmt.Errorf("unknown toolset %q", part)
		}
	}
	return sets, nil
}

// Deps carries the clients the toolsets wrap. AppleMusic may be nil when no
// developer token is configured.
type Deps struct {
	Amplifier        amplifier.Controller
	AmplifierFactory AmplifierFactory
	Sonos            *sonos.Client
	AppleMusic       *applemusic.Client
	AppleUserToken   string
	Opener           *openurl.Opener
}

// Build registers the requested toolsets. A toolset whose client is missing
// is an error when it was asked for explicitly, and skipped under "all".
func Build(deps Deps, sets []Toolset, explicit bool) (*Registry, error) {
	r := NewRegistry()
	for _, set := range sets {
		switch set {
		case ToolsetAmplifier:
			if deps.Amplifier == nil {
				if explicit {
					return nil, fmt.Errorf("toolset %s: amplifier is not configured", set)
				}
				continue
			}
			RegisterAmplifier(r, deps.Amplifier, deps.AmplifierFactory)
		case ToolsetSonos:
			if deps.Sonos == nil {
				if explicit {
					return nil, fmt.Errorf("toolset %s: sonos bridge is not configured", set)
				}
				continue
			}
			RegisterSonos(r, deps.Sonos)
		case ToolsetAppleMusic:
			if deps.AppleMusic == nil {
				if explicit {
					return nil, fmt.Errorf("toolset %s: apple music credentials are not configured", set)
				}
				continue
			}
			RegisterAppleMusic(r, deps.AppleMusic, deps.AppleUserToken)
		case ToolsetOpenURL:
			opener := deps.Opener
			if opener == nil {
				opener = openurl.New()
			}
			RegisterOpenURL(r, opener)
		}
	}
	return r, nil
}
