package nowplaying

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/music-agent-go/internal/sonos"
)

type fakeSource struct {
	mu     sync.Mutex
	states map[string]sonos.State
	calls  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{states: make(map[string]sonos.State)}
}

func (f *fakeSource) set(room string, state sonos.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[room] = state
}

func (f *fakeSource) GetState(_ context.Context, room string) (sonos.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.states[room], nil
}

func resolveWithDefault(def string) RoomResolver {
	return func(room string) (string, error) {
		if room != "" {
			return room, nil
		}
		if def != "" {
			return def, nil
		}
		return "", sonos.ErrNoRoomSpecified
	}
}

func playing(title string, volume int) sonos.State {
	return sonos.State{
		PlaybackState: "PLAYING",
		CurrentTrack:  sonos.Track{Title: title, Artist: "Test Artist", Duration: 200},
		Volume:        volume,
		ElapsedTime:   12,
	}
}

func setup(t *testing.T, source StateSource, def string) (*Hub, *Poller, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	poller := NewPoller(source, hub, time.Hour)

	srv := httptest.NewServer(Handler(hub, poller, resolveWithDefault(def)))
	t.Cleanup(srv.Close)
	return hub, poller, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Route + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// waitReady blocks until n clients are registered and watching.
func waitReady(t *testing.T, hub *Hub, poller *Poller, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		poller.mu.RLock()
		watchers := 0
		for _, count := range poller.watched {
			watchers += count
		}
		poller.mu.RUnlock()
		return hub.ClientCount() == n && watchers == n
	}, 2*time.Second, 10*time.Millisecond)
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update Update
	require.NoError(t, conn.ReadJSON(&update))
	return update
}

func TestChanged(t *testing.T) {
	base := newUpdate("Kitchen", playing("Song A", 20))

	assert.True(t, changed(nil, base))

	same := base
	same.Elapsed = 99
	assert.False(t, changed(&base, same), "elapsed alone is not a change")

	louder := base
	louder.Volume = 30
	assert.True(t, changed(&base, louder))

	muted := base
	muted.Mute = true
	assert.True(t, changed(&base, muted))

	paused := base
	paused.PlaybackState = "PAUSED_PLAYBACK"
	assert.True(t, changed(&base, paused))

	next := base
	next.Track.Title = "Song B"
	assert.True(t, changed(&base, next))
}

func TestPoller_OnlyWatchedRooms(t *testing.T) {
	source := newFakeSource()
	source.set("Kitchen", playing("Song A", 20))
	hub := NewHub(nil)
	poller := NewPoller(source, hub, 0)

	assert.Equal(t, DefaultInterval, poller.interval)

	poller.Poll(context.Background())
	assert.Equal(t, 0, source.calls)

	poller.UpdateRoom(context.Background(), "Kitchen")
	_, ok := poller.LastState("Kitchen")
	assert.False(t, ok, "unwatched rooms are not cached")

	poller.Watch("Kitchen")
	poller.Poll(context.Background())
	update, ok := poller.LastState("Kitchen")
	require.True(t, ok)
	assert.Equal(t, "Song A", update.Track.Title)
	assert.Equal(t, "now_playing", update.Object)

	poller.Unwatch("Kitchen")
	_, ok = poller.LastState("Kitchen")
	assert.False(t, ok)
}

func TestHandler_BroadcastsOnChange(t *testing.T) {
	source := newFakeSource()
	source.set("Kitchen", playing("Song A", 20))
	hub, poller, srv := setup(t, source, "")

	conn := dial(t, srv, "?room=Kitchen")
	waitReady(t, hub, poller, 1)

	poller.Poll(context.Background())
	first := readUpdate(t, conn)
	assert.Equal(t, "Kitchen", first.Room)
	assert.Equal(t, "PLAYING", first.PlaybackState)
	assert.Equal(t, "Song A", first.Track.Title)
	assert.Equal(t, 20, first.Volume)
	assert.Equal(t, 12, first.Elapsed)

	// Unchanged state produces no message, so the next one read is the volume change.
	poller.Poll(context.Background())
	source.set("Kitchen", playing("Song A", 35))
	poller.Poll(context.Background())

	second := readUpdate(t, conn)
	assert.Equal(t, 35, second.Volume)
}

func TestHandler_NewClientGetsLastState(t *testing.T) {
	source := newFakeSource()
	source.set("Office", playing("Song B", 10))
	hub, poller, srv := setup(t, source, "Office")

	first := dial(t, srv, "")
	waitReady(t, hub, poller, 1)
	poller.Poll(context.Background())
	assert.Equal(t, "Song B", readUpdate(t, first).Track.Title)

	second := dial(t, srv, "?room=Office")
	update := readUpdate(t, second)
	assert.Equal(t, "Office", update.Room)
	assert.Equal(t, "Song B", update.Track.Title)
}

func TestHandler_OtherRoomsNotDelivered(t *testing.T) {
	source := newFakeSource()
	source.set("Kitchen", playing("Song A", 20))
	source.set("Office", playing("Song C", 40))
	hub, poller, srv := setup(t, source, "")

	kitchen := dial(t, srv, "?room=Kitchen")
	office := dial(t, srv, "?room=Office")
	waitReady(t, hub, poller, 2)

	poller.Poll(context.Background())
	assert.Equal(t, "Kitchen", readUpdate(t, kitchen).Room)
	assert.Equal(t, "Office", readUpdate(t, office).Room)
}

func TestHandler_Disconnect(t *testing.T) {
	source := newFakeSource()
	hub, poller, srv := setup(t, source, "")

	conn := dial(t, srv, "?room=Den")
	waitReady(t, hub, poller, 1)

	require.NoError(t, conn.Close())
	waitReady(t, hub, poller, 0)
	require.Eventually(t, func() bool { return len(poller.rooms()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_NoRoom(t *testing.T) {
	_, _, srv := setup(t, newFakeSource(), "")

	resp, err := http.Get(srv.URL + Route)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
