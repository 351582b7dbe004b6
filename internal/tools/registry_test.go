package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echo " + name,
		Handler: func(_ context.Context, args Args) (any, error) {
			return args.OptionalString("text"), nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("beta")))
	require.NoError(t, r.Register(echoTool("alpha")))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"alpha", "beta"}, r.Names())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "beta", list[0].Name, "List keeps registration order")
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(list[0].InputSchema))

	require.Error(t, r.Register(echoTool("alpha")))
	require.Error(t, r.Register(Tool{Name: "", Handler: echoTool("x").Handler}))
	require.Error(t, r.Register(Tool{Name: "nohandler"}))
}

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	result, err := r.Call(context.Background(), "echo", Args{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result)

	result, err = r.Call(context.Background(), "echo", nil)
	require.NoError(t, err)
	assert.Equal(t, "", result)

	_, err = r.Call(context.Background(), "missing", nil)
	require.True(t, errors.Is(err, ErrToolNotFound))
	assert.Contains(t, err.Error(), "available: echo")
}

func TestRegistry_Observers(t *testing.T) {
	r := NewRegistry()
	failure := errors.New("boom")
	require.NoError(t, r.Register(echoTool("echo")))
	require.NoError(t, r.Register(Tool{
		Name: "fail",
		Handler: func(context.Context, Args) (any, error) {
			return nil, failure
		},
	}))

	var (
		mu   sync.Mutex
		seen []Invocation
	)
	r.AddObserver(ObserverFunc(func(_ context.Context, inv Invocation) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, inv)
	}))

	_, err := r.CallFrom(context.Background(), "routine:morning", "echo", Args{"text": "hi"})
	require.NoError(t, err)
	_, err = r.Call(context.Background(), "fail", nil)
	require.ErrorIs(t, err, failure)
	_, _ = r.Call(context.Background(), "missing", nil)

	require.Len(t, seen, 2, "unknown tools are not observed")
	assert.Equal(t, "echo", seen[0].Tool)
	assert.Equal(t, "routine:morning", seen[0].Source)
	assert.Equal(t, "hi", seen[0].Result)
	assert.False(t, seen[0].StartedAt.IsZero())
	assert.Equal(t, "fail", seen[1].Tool)
	assert.ErrorIs(t, seen[1].Err, failure)
}

type stringer struct{}

func (stringer) String() string { return "custom" }

func TestRenderText(t *testing.T) {
	text, err := RenderText("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	text, err = RenderText(nil)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	text, err = RenderText(stringer{})
	require.NoError(t, err)
	assert.Equal(t, "custom", text)

	text, err = RenderText(SourceEntry{Index: 1, Name: "AppleTV"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"index\": 1,\n  \"name\": \"AppleTV\"\n}", text)

	_, err = RenderText(func() {})
	require.Error(t, err)
}

func TestToolJSONOmitsHandler(t *testing.T) {
	data, err := json.Marshal(echoTool("echo"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Handler")
	assert.Contains(t, string(data), `"name":"echo"`)
}
