package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/strefethen/music-agent-go/internal/applemusic"
	"github.com/strefethen/music-agent-go/internal/auth"
	"github.com/strefethen/music-agent-go/internal/config"
	"github.com/strefethen/music-agent-go/internal/openurl"
	"github.com/strefethen/music-agent-go/internal/routines"
	"github.com/strefethen/music-agent-go/internal/tools"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var configEnv = []string{
	"MUSIC_AGENT_CONFIG", "AMP_HOST", "AMP_PORT", "AMP_MOCK",
	"SONOS_HOST", "SONOS_PORT", "SONOS_DEFAULT_ROOM",
	"APPLE_TEAM_ID", "APPLE_KEY_ID", "APPLE_PRIVATE_KEY_PATH", "APPLE_DEVELOPER_TOKEN",
	"APPLE_MUSIC_API_URL", "APPLE_STOREFRONT", "APPLE_MUSIC_USER_TOKEN",
	"JWT_SECRET", "SQLITE_DB_PATH", "ROUTINES_FILE", "LOG_LEVEL", "LOG_FILE",
}

// isolate runs the test in an empty directory with no configuration in the
// environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
	return dir
}

func runApp(t *testing.T, app *App, args ...string) (string, string, error) {
	t.Helper()
	if app == nil {
		app = &App{Version: "test"}
	}
	root := newRootCommand(app)
	var stdout, stderr bytes.Buffer
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

type fakeBridge struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.EscapedPath())
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/zones":
		_, _ = w.Write([]byte(`[{"uuid":"RINCON_A","coordinator":{"uuid":"RINCON_A","roomName":"Living Room","state":{"volume":20}},"members":[{"uuid":"RINCON_A","roomName":"Living Room","state":{"volume":20}}]}]`))
	default:
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}
}

func (f *fakeBridge) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) == 0 {
		return ""
	}
	return f.paths[len(f.paths)-1]
}

func bridgeEnv(t *testing.T, bridge *fakeBridge) {
	t.Helper()
	srv := httptest.NewServer(bridge)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	t.Setenv("SONOS_HOST", u.Hostname())
	t.Setenv("SONOS_PORT", u.Port())
}

func TestAmp_Mock(t *testing.T) {
	isolate(t)

	out, _, err := runApp(t, nil, "amp", "--mock", "power-on")
	require.NoError(t, err)
	assert.Equal(t, "Amplifier powered on\n", out)

	out, _, err = runApp(t, nil, "amp", "--mock", "sources")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Sonos"`)

	out, _, err = runApp(t, nil, "amp", "--mock", "status")
	require.NoError(t, err)
	var status map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "Main Zone", status["zone"])
}

func TestAmp_Errors(t *testing.T) {
	isolate(t)

	_, _, err := runApp(t, nil, "amp", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMP_HOST")

	_, _, err = runApp(t, nil, "amp", "--mock", "source", "two")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be an integer")
}

func TestToolDeps_MockIgnoresEndpointOverride(t *testing.T) {
	isolate(t)
	app := &App{Version: "test", logger: zap.NewNop()}
	app.cfg = config.Defaults()
	app.cfg.Amplifier.Mock = true

	deps, err := app.toolDeps()
	require.NoError(t, err)
	assert.Nil(t, deps.AmplifierFactory)

	registry, err := tools.Build(deps, []tools.Toolset{tools.ToolsetAmplifier}, true)
	require.NoError(t, err)
	_, err = registry.Call(context.Background(), "powerOn", tools.Args{"host": "10.0.0.5", "port": float64(1)})
	require.NoError(t, err)
}

func TestSonos_Commands(t *testing.T) {
	isolate(t)
	bridge := &fakeBridge{}
	bridgeEnv(t, bridge)
	t.Setenv("SONOS_DEFAULT_ROOM", "Living Room")

	out, _, err := runApp(t, nil, "sonos", "play")
	require.NoError(t, err)
	assert.Equal(t, "Playback started in room: default room\n", out)
	assert.Equal(t, "/Living%20Room/play", bridge.last())

	out, _, err = runApp(t, nil, "sonos", "--room", "Kitchen", "volume", "30")
	require.NoError(t, err)
	assert.Equal(t, "Volume set to 30 in room: Kitchen\n", out)
	assert.Equal(t, "/Kitchen/volume/30", bridge.last())

	out, _, err = runApp(t, nil, "sonos", "-r", "Kitchen", "shuffle", "on")
	require.NoError(t, err)
	assert.Contains(t, out, "Shuffle mode enabled")

	_, _, err = runApp(t, nil, "sonos", "-r", "Kitchen", "play-apple", "album", "1440", "--mode", "next")
	require.NoError(t, err)
	assert.Equal(t, "/Kitchen/applemusic/next/album:1440", bridge.last())

	out, _, err = runApp(t, nil, "sonos", "-r", "Kitchen", "mute")
	require.NoError(t, err)
	assert.Equal(t, "Muted Kitchen\n", out)
	assert.Equal(t, "/Kitchen/mute", bridge.last())

	out, _, err = runApp(t, nil, "sonos", "zones")
	require.NoError(t, err)
	assert.Contains(t, out, `"roomName": "Living Room"`)
}

func TestSonos_Validation(t *testing.T) {
	isolate(t)
	bridge := &fakeBridge{}
	bridgeEnv(t, bridge)

	_, _, err := runApp(t, nil, "sonos", "-r", "Kitchen", "volume", "150")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "between 0 and 100")

	_, _, err = runApp(t, nil, "sonos", "play")
	require.Error(t, err, "no room and no default")

	assert.Empty(t, bridge.last())
}

func TestMusic_SearchByArtist(t *testing.T) {
	isolate(t)
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"artists":{"data":[{"id":"5468295","type":"artists","attributes":{"name":"Daft Punk","genreNames":["Electronic"]}}]}}}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("APPLE_DEVELOPER_TOKEN", "dev-token")
	t.Setenv("APPLE_MUSIC_API_URL", srv.URL)

	out, _, err := runApp(t, nil, "music", "--storefront", "gb", "artist", "Daft", "Punk")
	require.NoError(t, err)
	assert.Equal(t, "/catalog/gb/search", gotPath)
	assert.Equal(t, "Bearer dev-token", gotAuth)
	assert.Contains(t, out, `"name": "Daft Punk"`)
}

func TestMusic_ChartsHelpListsValidValues(t *testing.T) {
	isolate(t)

	out, _, err := runApp(t, nil, "music", "charts", "--help")
	require.NoError(t, err)
	for _, chart := range applemusic.ChartTypes {
		_, err := applemusic.ParseChartType(string(chart))
		require.NoError(t, err)
		assert.Contains(t, out, string(chart))
	}
	for _, genre := range applemusic.ChartGenres {
		assert.Contains(t, out, string(genre))
	}
	assert.NotContains(t, out, "music-videos")
}

func TestMusic_NotConfigured(t *testing.T) {
	isolate(t)

	_, _, err := runApp(t, nil, "music", "artist", "Daft Punk")
	require.Error(t, err)
	assert.ErrorIs(t, err, errAppleNotConfigured)
}

func TestOpenURL(t *testing.T) {
	isolate(t)
	var launched []string
	app := &App{
		Version: "test",
		opener: openurl.NewWithRunner("darwin", func(_ context.Context, name string, args ...string) error {
			launched = append(append(launched, name), args...)
			return nil
		}),
	}

	out, _, err := runApp(t, app, "open-url", "https://music.apple.com/us/album/1440")
	require.NoError(t, err)
	assert.Equal(t, "Successfully opened URL: https://music.apple.com/us/album/1440\n", out)
	assert.Equal(t, []string{"open", "https://music.apple.com/us/album/1440"}, launched)

	_, _, err = runApp(t, app, "open-url", "file:///etc/passwd")
	require.Error(t, err)
	assert.ErrorIs(t, err, openurl.ErrInvalidURL)
}

func TestGatewayToken(t *testing.T) {
	isolate(t)

	_, _, err := runApp(t, nil, "gateway-token")
	require.Error(t, err, "no secret configured")

	t.Setenv("JWT_SECRET", testSecret)
	out, _, err := runApp(t, nil, "gateway-token", "--sub", "kitchen-pad", "--client-name", "Kitchen iPad", "--ttl", "10m")
	require.NoError(t, err)

	var issued issuedToken
	require.NoError(t, json.Unmarshal([]byte(out), &issued))
	assert.Equal(t, "Bearer", issued.TokenType)

	cfg := config.Defaults()
	cfg.Gateway.JWTSecret = testSecret
	payload, err := auth.VerifyToken(cfg.Gateway, issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "kitchen-pad", payload.Sub)
	assert.Equal(t, "Kitchen iPad", payload.ClientName)
}

const routinesYAML = `
routines:
  - name: movie
    description: Apple TV on the main zone
    steps:
      - tool: powerOn
      - tool: switchToAppleTV
  - name: broken
    steps:
      - tool: switchToSource
        args: {index: 9}
`

func TestRoutines(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "routines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routinesYAML), 0o600))
	t.Setenv("ROUTINES_FILE", path)
	t.Setenv("AMP_MOCK", "true")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "data", "agent.db"))

	out, _, err := runApp(t, nil, "routines", "list")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "movie"`)
	assert.Contains(t, out, `"name": "broken"`)

	out, _, err = runApp(t, nil, "routines", "run", "movie", "--record")
	require.NoError(t, err)
	var run routines.Run
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, routines.RunStatusSucceeded, run.Status)
	assert.Len(t, run.Steps, 2)
	assert.FileExists(t, filepath.Join(dir, "data", "agent.db"))

	out, _, err = runApp(t, nil, "routines", "run", "broken")
	require.Error(t, err)
	var stepErr *routines.StepError
	assert.ErrorAs(t, err, &stepErr)
	assert.Contains(t, out, `"status": "failed"`)

	_, _, err = runApp(t, nil, "routines", "run", "missing")
	require.Error(t, err)
	assert.True(t, routines.IsNotFound(err))
}

func TestExecute_ExitCodes(t *testing.T) {
	isolate(t)
	var stdout, stderr bytes.Buffer

	code := Execute("1.2.3", []string{"--version"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "1.2.3")

	stdout.Reset()
	code = Execute("1.2.3", []string{"amp", "--mock", "source", "0"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error:")
}
