package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/music-agent-go/internal/auth"
	"github.com/strefethen/music-agent-go/internal/config"
	"github.com/strefethen/music-agent-go/internal/routines"
	"github.com/strefethen/music-agent-go/internal/sonos"
	"github.com/strefethen/music-agent-go/internal/tools"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Gateway.JWTSecret = testSecret
	cfg.Gateway.SQLiteDBPath = filepath.Join(t.TempDir(), "gateway.db")
	cfg.Gateway.RoutinesFile = filepath.Join(t.TempDir(), "missing-routines.yaml")
	cfg.Gateway.NowPlayingIntervalMs = 20
	return cfg
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(tools.Tool{
		Name:        "echo",
		Description: "Echo text",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		Handler: func(_ context.Context, args tools.Args) (any, error) {
			return args.RequiredString("text")
		},
	}))
	require.NoError(t, reg.Register(tools.Tool{
		Name: "broken",
		Handler: func(context.Context, tools.Args) (any, error) {
			return nil, errors.New("boom")
		},
	}))
	return reg
}

type gateway struct {
	handler http.Handler
	token   string
}

func newGateway(t *testing.T, cfg config.Config, deps Deps) *gateway {
	t.Helper()
	handler, shutdown, err := NewHandler(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	token, _, err := auth.IssueToken(cfg.Gateway, auth.TokenPayload{Sub: "test", ClientName: "tests"}, time.Hour)
	require.NoError(t, err)
	return &gateway{handler: handler, token: token}
}

func (g *gateway) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler_RequiresSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Gateway.JWTSecret = "short"
	_, _, err := NewHandler(cfg, Deps{Registry: testRegistry(t)})
	require.Error(t, err)

	_, _, err = NewHandler(testConfig(t), Deps{})
	require.Error(t, err)
}

func TestHealthRoutes(t *testing.T) {
	g := newGateway(t, testConfig(t), Deps{Registry: testRegistry(t)})

	for _, path := range []string{"/v1/health", "/v1/health/live", "/v1/health/ready", "/v1/health/"} {
		rec := g.do(t, http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	assert.NotEmpty(t, g.do(t, http.MethodGet, "/v1/health", "", false).Header().Get("X-Request-ID"))
}

func TestSystemInfoRoute(t *testing.T) {
	g := newGateway(t, testConfig(t), Deps{Registry: testRegistry(t), Version: "2.0.1"})

	assert.Equal(t, http.StatusUnauthorized, g.do(t, http.MethodGet, "/v1/system/info", "", false).Code)

	rec := g.do(t, http.MethodGet, "/v1/system/info", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var info struct {
		Object            string `json:"object"`
		Version           string `json:"version"`
		SQLiteConnected   bool   `json:"sqlite_connected"`
		Tools             int    `json:"tools"`
		NowPlayingEnabled bool   `json:"now_playing_enabled"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "system_info", info.Object)
	assert.Equal(t, "2.0.1", info.Version)
	assert.True(t, info.SQLiteConnected)
	assert.Equal(t, 2, info.Tools)
	assert.False(t, info.NowPlayingEnabled)
}

func TestToolRoutes(t *testing.T) {
	g := newGateway(t, testConfig(t), Deps{Registry: testRegistry(t)})

	rec := g.do(t, http.MethodGet, "/v1/tools", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = g.do(t, http.MethodGet, "/v1/tools", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Object string `json:"object"`
		URL    string `json:"url"`
		Data   []struct {
			Object      string          `json:"object"`
			Name        string          `json:"name"`
			InputSchema json.RawMessage `json:"input_schema"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "list", list.Object)
	assert.Equal(t, "/v1/tools", list.URL)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "tool", list.Data[0].Object)
	assert.Equal(t, "echo", list.Data[0].Name)
	assert.Contains(t, string(list.Data[0].InputSchema), `"required"`)

	rec = g.do(t, http.MethodPost, "/v1/tools/echo", `{"text":"hello"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"object":"tool_result","tool":"echo","result":"hello"}`, rec.Body.String())

	rec = g.do(t, http.MethodPost, "/v1/tools/echo", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")

	rec = g.do(t, http.MethodPost, "/v1/tools/echo", `{not json`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = g.do(t, http.MethodPost, "/v1/tools/nope", `{}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOOL_NOT_FOUND")

	rec = g.do(t, http.MethodPost, "/v1/tools/broken", `{}`, true)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestToolCallsAreAudited(t *testing.T) {
	g := newGateway(t, testConfig(t), Deps{Registry: testRegistry(t)})

	require.Equal(t, http.StatusOK, g.do(t, http.MethodPost, "/v1/tools/echo", `{"text":"hi"}`, true).Code)
	g.do(t, http.MethodPost, "/v1/tools/broken", `{}`, true)

	rec := g.do(t, http.MethodGet, "/v1/audit/events?source=gateway", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []struct {
			Tool      string  `json:"tool"`
			Level     string  `json:"level"`
			Source    string  `json:"source"`
			RequestID *string `json:"request_id"`
			Client    *string `json:"client"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)

	byTool := map[string]string{}
	for _, event := range list.Data {
		byTool[event.Tool] = event.Level
		assert.Equal(t, Source, event.Source)
		require.NotNil(t, event.RequestID)
		require.NotNil(t, event.Client)
		assert.Equal(t, "tests", *event.Client)
	}
	assert.Equal(t, "INFO", byTool["echo"])
	assert.Equal(t, "ERROR", byTool["broken"])
}

func TestRoutineRoutes(t *testing.T) {
	defs := []routines.Routine{{Name: "greet", Steps: []routines.Step{{Tool: "echo", Args: map[string]any{"text": "morning"}}}}}
	g := newGateway(t, testConfig(t), Deps{Registry: testRegistry(t), Routines: defs})

	rec := g.do(t, http.MethodPost, "/v1/routines/greet/run", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"succeeded"`)

	rec = g.do(t, http.MethodGet, "/v1/audit/events?source=routine:greet", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"routine":"greet"`)
}

func TestNewHandler_BadRoutinesFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "routines.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routines:\n  - name: x\n    steps:\n      - tool: missingTool\n"), 0o600))
	cfg.Gateway.RoutinesFile = path

	_, _, err := NewHandler(cfg, Deps{Registry: testRegistry(t)})
	require.ErrorIs(t, err, tools.ErrToolNotFound)
}

func TestNowPlayingWebsocket(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Kitchen/state" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"playbackState":"PLAYING","currentTrack":{"title":"Song A","artist":"Test Artist","duration":180},"volume":25,"mute":false,"elapsedTime":3}`))
	}))
	defer bridge.Close()
	u, err := url.Parse(bridge.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	sonosClient := sonos.NewClient(sonos.Config{Host: u.Hostname(), Port: port, DefaultRoom: "Kitchen"})

	g := newGateway(t, testConfig(t), Deps{Registry: testRegistry(t), Sonos: sonosClient})
	srv := httptest.NewServer(g.handler)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/now-playing/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+g.token, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var update map[string]any
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "Kitchen", update["room"])
	assert.Equal(t, "PLAYING", update["playback_state"])
	assert.Equal(t, float64(25), update["volume"])
}
