package sonos

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateJSON = `{
  "playbackState": "PLAYING",
  "currentTrack": {"title": "Back in Black", "artist": "AC/DC", "album": "Back in Black", "duration": 255, "uri": "x-sonos-http:song%3a1440"},
  "nextTrack": {"title": "Hells Bells", "artist": "AC/DC", "duration": 312},
  "volume": 35,
  "mute": false,
  "elapsedTime": 42,
  "elapsedTimeFormatted": "00:00:42",
  "trackNo": 3,
  "playMode": {"repeat": "none", "shuffle": true, "crossfade": false},
  "equalizer": {"bass": 2, "treble": -1, "loudness": true}
}`

const zonesJSON = `[
  {"uuid": "RINCON_A", "coordinator": {"uuid": "RINCON_A", "roomName": "Kitchen", "state": {"volume": 20, "mute": false}},
   "members": [
     {"uuid": "RINCON_A", "roomName": "Kitchen", "state": {"volume": 20, "mute": false, "playbackState": "PLAYING"}},
     {"uuid": "RINCON_B", "roomName": "Dining Room", "state": {"volume": 15, "mute": true}}
   ]},
  {"uuid": "RINCON_C", "coordinator": {"uuid": "RINCON_C", "roomName": "Office", "state": {"volume": 10, "mute": false}},
   "members": [{"uuid": "RINCON_C", "roomName": "Office", "state": {"volume": 10, "mute": false}}]}
]`

type fakeBridge struct {
	mu     sync.Mutex
	paths  []string
	bodies map[string]string
	status int
}

func (f *fakeBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	status := f.status
	body := f.bodies[r.URL.Path]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if body == "" {
		body = `{"status":"success"}`
	}
	_, _ = w.Write([]byte(body))
}

func (f *fakeBridge) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func newTestClient(t *testing.T, bridge *fakeBridge, defaultRoom string) *Client {
	t.Helper()
	server := httptest.NewServer(bridge)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient(Config{Host: u.Hostname(), Port: port, DefaultRoom: defaultRoom})
}

func intPtr(v int) *int { return &v }

func TestClient_Actions(t *testing.T) {
	bridge := &fakeBridge{}
	client := newTestClient(t, bridge, "Living Room")
	ctx := context.Background()

	require.NoError(t, client.Play(ctx, ""))
	require.NoError(t, client.Pause(ctx, "Kitchen"))
	require.NoError(t, client.Stop(ctx, ""))
	require.NoError(t, client.Next(ctx, ""))
	require.NoError(t, client.Previous(ctx, ""))
	require.NoError(t, client.SetVolume(ctx, "", 30))
	require.NoError(t, client.SetShuffle(ctx, "", true))
	require.NoError(t, client.SetShuffle(ctx, "", false))
	require.NoError(t, client.ClearQueue(ctx, ""))
	require.NoError(t, client.JoinRoom(ctx, "Office", "Kitchen"))
	require.NoError(t, client.LeaveGroup(ctx, "Office"))
	require.NoError(t, client.Mute(ctx, ""))
	require.NoError(t, client.Unmute(ctx, ""))

	assert.Equal(t, []string{
		"/Living Room/play",
		"/Kitchen/pause",
		"/Living Room/stop",
		"/Living Room/next",
		"/Living Room/previous",
		"/Living Room/volume/30",
		"/Living Room/shuffle/on",
		"/Living Room/shuffle/off",
		"/Living Room/clearqueue",
		"/Office/join/Kitchen",
		"/Office/leave",
		"/Living Room/mute",
		"/Living Room/unmute",
	}, bridge.recorded())
}

func TestClient_AddToQueueEscapesURI(t *testing.T) {
	var rawPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	u, _ := url.Parse(server.URL)
	port, _ := strconv.Atoi(u.Port())
	client := NewClient(Config{Host: u.Hostname(), Port: port, DefaultRoom: "Kitchen"})

	require.NoError(t, client.AddToQueue(context.Background(), "", "x-sonos-http:track/1.mp4?sid=204"))
	assert.Equal(t, "/Kitchen/queue/x-sonos-http:track%2F1.mp4%3Fsid=204", rawPath)
}

func TestClient_NoRoom(t *testing.T) {
	bridge := &fakeBridge{}
	client := newTestClient(t, bridge, "")
	ctx := context.Background()

	require.ErrorIs(t, client.Play(ctx, ""), ErrNoRoomSpecified)
	_, err := client.GetState(ctx, "")
	require.ErrorIs(t, err, ErrNoRoomSpecified)
	_, err = client.GetQueue(ctx, "", QueueOptions{})
	require.ErrorIs(t, err, ErrNoRoomSpecified)
	require.ErrorIs(t, client.PlayAppleMusic(ctx, "", ContentSong, "1", PlaybackNow), ErrNoRoomSpecified)

	assert.Empty(t, bridge.recorded())
}

func TestClient_GetQueuePaths(t *testing.T) {
	tests := []struct {
		name string
		opts QueueOptions
		want string
	}{
		{name: "plain", opts: QueueOptions{}, want: "/Kitchen/queue"},
		{name: "limit", opts: QueueOptions{Limit: intPtr(10)}, want: "/Kitchen/queue/10"},
		{name: "limit and offset", opts: QueueOptions{Limit: intPtr(10), Offset: intPtr(20)}, want: "/Kitchen/queue/10/20"},
		{name: "offset without limit is dropped", opts: QueueOptions{Offset: intPtr(20)}, want: "/Kitchen/queue"},
		{name: "detailed", opts: QueueOptions{Detailed: true}, want: "/Kitchen/queue/detailed"},
		{name: "all", opts: QueueOptions{Limit: intPtr(5), Offset: intPtr(0), Detailed: true}, want: "/Kitchen/queue/5/0/detailed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bridge := &fakeBridge{bodies: map[string]string{tc.want: `[]`}}
			client := newTestClient(t, bridge, "Kitchen")

			items, err := client.GetQueue(context.Background(), "", tc.opts)
			require.NoError(t, err)
			assert.Empty(t, items)
			assert.Equal(t, []string{tc.want}, bridge.recorded())
		})
	}
}

func TestClient_GetQueueDecodes(t *testing.T) {
	bridge := &fakeBridge{bodies: map[string]string{
		"/Kitchen/queue/detailed": `[{"title":"Song A","artist":"Artist A","album":"Album A","uri":"x-sonos:1"},{"title":"Song B","artist":"Artist B","album":"Album B","albumArtURI":"/art.jpg"}]`,
	}}
	client := newTestClient(t, bridge, "Kitchen")

	items, err := client.GetQueue(context.Background(), "", QueueOptions{Detailed: true})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, QueueItem{Title: "Song A", Artist: "Artist A", Album: "Album A", URI: "x-sonos:1"}, items[0])
	assert.Equal(t, "/art.jpg", items[1].AlbumArtURI)
}

func TestClient_GetState(t *testing.T) {
	bridge := &fakeBridge{bodies: map[string]string{"/Kitchen/state": stateJSON}}
	client := newTestClient(t, bridge, "")

	state, err := client.GetState(context.Background(), "Kitchen")
	require.NoError(t, err)
	assert.True(t, state.IsPlaying())
	assert.Equal(t, "Back in Black", state.CurrentTrack.Title)
	assert.Equal(t, 255, state.CurrentTrack.Duration)
	require.NotNil(t, state.NextTrack)
	assert.Equal(t, "Hells Bells", state.NextTrack.Title)
	assert.Equal(t, 35, state.Volume)
	assert.Equal(t, 42, state.ElapsedTime)
	assert.Equal(t, "00:00:42", state.ElapsedTimeFormatted)
	assert.Equal(t, 3, state.TrackNo)
	require.NotNil(t, state.PlayMode)
	assert.True(t, state.PlayMode.Shuffle)
	require.NotNil(t, state.Equalizer)
	assert.True(t, state.Equalizer.Loudness)
	assert.Nil(t, state.Queue)
}

func TestClient_GetRooms(t *testing.T) {
	bridge := &fakeBridge{bodies: map[string]string{"/zones": zonesJSON}}
	client := newTestClient(t, bridge, "")

	rooms, err := client.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen", "Dining Room", "Office"}, rooms)

	zones, err := client.GetZones(context.Background())
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "Kitchen", zones[0].Coordinator.RoomName)
	assert.True(t, zones[0].Members[1].State.Mute)
	assert.Equal(t, "PLAYING", zones[0].Members[0].State.PlaybackState)
}

func TestClient_PlayAppleMusic(t *testing.T) {
	bridge := &fakeBridge{}
	client := newTestClient(t, bridge, "Kitchen")
	ctx := context.Background()

	require.NoError(t, client.PlayAppleMusic(ctx, "", ContentSong, "1440857781", PlaybackNow))
	require.NoError(t, client.PlayAppleMusic(ctx, "Office", ContentAlbum, "1440857000", PlaybackQueue))
	require.NoError(t, client.PlayAppleMusicPlaylist(ctx, "", "p.abc123", PlaybackNext))
	require.NoError(t, client.PlayStorefrontPlaylist(ctx, "", "pl.f4d106fed2bd41149aaacabb233eb5eb", PlaybackNow))

	assert.Equal(t, []string{
		"/Kitchen/applemusic/now/song:1440857781",
		"/Office/applemusic/queue/album:1440857000",
		"/Kitchen/applemusic/next/playlist:p.abc123",
		"/Kitchen/applemusic/now/playlist:pl.f4d106fed2bd41149aaacabb233eb5eb",
	}, bridge.recorded())

	require.ErrorIs(t, client.PlayAppleMusic(ctx, "", ContentType("video"), "1", PlaybackNow), ErrInvalidContentType)
	require.ErrorIs(t, client.PlayAppleMusic(ctx, "", ContentSong, "1", PlaybackMode("later")), ErrInvalidPlaybackMode)
	assert.Len(t, bridge.recorded(), 4)
}

func TestClient_RequestFailed(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		client := newTestClient(t, &fakeBridge{status: http.StatusInternalServerError}, "Kitchen")

		err := client.Play(context.Background(), "")
		var failed *RequestFailedError
		require.True(t, errors.As(err, &failed))
		assert.Equal(t, "play", failed.Action)
		assert.Equal(t, http.StatusInternalServerError, failed.StatusCode)
	})

	t.Run("decode", func(t *testing.T) {
		client := newTestClient(t, &fakeBridge{bodies: map[string]string{"/Kitchen/state": "not json"}}, "Kitchen")

		_, err := client.GetState(context.Background(), "")
		var failed *RequestFailedError
		require.True(t, errors.As(err, &failed))
		assert.Equal(t, "state", failed.Action)
		require.Error(t, failed.Err)
	})

	t.Run("oversized body", func(t *testing.T) {
		huge := `{"title":"` + strings.Repeat("a", maxResponseBody) + `"}`
		client := newTestClient(t, &fakeBridge{bodies: map[string]string{"/Kitchen/state": huge}}, "Kitchen")

		_, err := client.GetState(context.Background(), "")
		var failed *RequestFailedError
		require.True(t, errors.As(err, &failed))
		assert.ErrorIs(t, err, ErrResponseTooLarge)
	})

	t.Run("network", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		u, _ := url.Parse(server.URL)
		port, _ := strconv.Atoi(u.Port())
		server.Close()

		client := NewClient(Config{Host: u.Hostname(), Port: port})
		_, err := client.GetRooms(context.Background())
		var failed *RequestFailedError
		require.True(t, errors.As(err, &failed))
		assert.Zero(t, failed.StatusCode)
	})
}

func TestParsers(t *testing.T) {
	mode, err := ParsePlaybackMode(" Next ")
	require.NoError(t, err)
	assert.Equal(t, PlaybackNext, mode)
	_, err = ParsePlaybackMode("later")
	require.ErrorIs(t, err, ErrInvalidPlaybackMode)

	ct, err := ParseContentType("ALBUM")
	require.NoError(t, err)
	assert.Equal(t, ContentAlbum, ct)
	_, err = ParseContentType("station")
	require.ErrorIs(t, err, ErrInvalidContentType)
}

func TestClient_ConfigAndEndpoint(t *testing.T) {
	client := NewClient(Config{DefaultRoom: "Kitchen"})
	cfg := client.Config()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)

	other := client.WithEndpoint("bridge.local", 0)
	assert.Equal(t, "bridge.local", other.Config().Host)
	assert.Equal(t, DefaultPort, other.Config().Port)
	assert.Equal(t, "Kitchen", other.Config().DefaultRoom)
	assert.Same(t, client.httpClient, other.httpClient)

	room, err := other.ResolveRoom("")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", room)
}
