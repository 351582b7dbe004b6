// Package nowplaying streams Sonos room state to websocket clients.
package nowplaying

import (
	"github.com/strefethen/music-agent-go/internal/sonos"
)

// Update is the client-facing payload for one room.
type Update struct {
	Object        string      `json:"object"`
	Room          string      `json:"room"`
	PlaybackState string      `json:"playback_state"`
	Track         sonos.Track `json:"track"`
	Volume        int         `json:"volume"`
	Mute          bool        `json:"mute"`
	Elapsed       int         `json:"elapsed"`
}

func newUpdate(room string, state sonos.State) Update {
	return Update{
		Object:        "now_playing",
		Room:          room,
		PlaybackState: state.PlaybackState,
		Track:         state.CurrentTrack,
		Volume:        state.Volume,
		Mute:          state.Mute,
		Elapsed:       state.ElapsedTime,
	}
}

// changed ignores Elapsed, which moves on every poll while playing.
func changed(prev *Update, next Update) bool {
	if prev == nil {
		return true
	}
	return prev.PlaybackState != next.PlaybackState ||
		prev.Track != next.Track ||
		prev.Volume != next.Volume ||
		prev.Mute != next.Mute
}
