package sonos

import (
	"fmt"
	"strings"
)

// PlaybackMode controls where Apple Music content lands.
type PlaybackMode string

const (
	PlaybackNow   PlaybackMode = "now"
	PlaybackNext  PlaybackMode = "next"
	PlaybackQueue PlaybackMode = "queue"
)

// ParsePlaybackMode accepts now, next or queue, case-insensitively.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	mode := PlaybackMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlaybackMode, s)
	}
	return mode, nil
}

func (m PlaybackMode) valid() bool {
	switch m {
	case PlaybackNow, PlaybackNext, PlaybackQueue:
		return true
	}
	return false
}

// ContentType is the kind of Apple Music item being played.
type ContentType string

const (
	ContentSong     ContentType = "song"
	ContentAlbum    ContentType = "album"
	ContentPlaylist ContentType = "playlist"
)

// ParseContentType accepts song, album or playlist, case-insensitively.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidContentType, s)
	}
	return ct, nil
}

func (c ContentType) valid() bool {
	switch c {
	case ContentSong, ContentAlbum, ContentPlaylist:
		return true
	}
	return false
}

// State is the bridge's view of a single room.
type State struct {
	PlaybackState        string     `json:"playbackState"`
	CurrentTrack         Track      `json:"currentTrack"`
	NextTrack            *Track     `json:"nextTrack,omitempty"`
	Volume               int        `json:"volume"`
	Mute                 bool       `json:"mute"`
	ElapsedTime          int        `json:"elapsedTime"`
	ElapsedTimeFormatted string     `json:"elapsedTimeFormatted"`
	TrackNo              int        `json:"trackNo,omitempty"`
	PlayMode             *PlayMode  `json:"playMode,omitempty"`
	Equalizer            *Equalizer `json:"equalizer,omitempty"`
	Queue                []Track    `json:"queue,omitempty"`
}

// IsPlaying reports whether the room is actively playing.
func (s State) IsPlaying() bool {
	return s.PlaybackState == "PLAYING"
}

// Track durations are in seconds.
type Track struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	AlbumArtURI string `json:"albumArtURI,omitempty"`
	Duration    int    `json:"duration"`
	URI         string `json:"uri,omitempty"`
}

// QueueItem is one entry from the queue endpoint. URI is only populated in
// detailed mode.
type QueueItem struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtURI string `json:"albumArtURI,omitempty"`
	URI         string `json:"uri,omitempty"`
}

type PlayMode struct {
	Repeat    string `json:"repeat"`
	Shuffle   bool   `json:"shuffle"`
	Crossfade bool   `json:"crossfade"`
}

type Equalizer struct {
	Bass     int  `json:"bass"`
	Treble   int  `json:"treble"`
	Loudness bool `json:"loudness"`
}

// Zone is a group of rooms playing in sync under one coordinator.
type Zone struct {
	UUID        string   `json:"uuid"`
	Coordinator Member   `json:"coordinator"`
	Members     []Member `json:"members"`
}

type Member struct {
	UUID     string      `json:"uuid"`
	RoomName string      `json:"roomName"`
	State    MemberState `json:"state"`
}

type MemberState struct {
	Volume        int        `json:"volume"`
	Mute          bool       `json:"mute"`
	PlaybackState string     `json:"playbackState,omitempty"`
	Equalizer     *Equalizer `json:"equalizer,omitempty"`
	CurrentTrack  *Track     `json:"currentTrack,omitempty"`
}

// QueueOptions selects a window of the queue. Offset is ignored unless Limit
// is set.
type QueueOptions struct {
	Limit    *int
	Offset   *int
	Detailed bool
}
