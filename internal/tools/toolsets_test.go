package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/music-agent-go/internal/amplifier"
	"github.com/strefethen/music-agent-go/internal/applemusic"
	"github.com/strefethen/music-agent-go/internal/sonos"
)

func TestParseToolsets(t *testing.T) {
	all := []Toolset{ToolsetAmplifier, ToolsetSonos, ToolsetAppleMusic, ToolsetOpenURL}

	sets, err := ParseToolsets("")
	require.NoError(t, err)
	assert.Equal(t, all, sets)

	sets, err = ParseToolsets("sonos, ALL")
	require.NoError(t, err)
	assert.Equal(t, all, sets)

	sets, err = ParseToolsets("sonos,amplifier,sonos")
	require.NoError(t, err)
	assert.Equal(t, []Toolset{ToolsetSonos, ToolsetAmplifier}, sets)

	_, err = ParseToolsets("spotify")
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	deps := Deps{
		Amplifier: amplifier.NewMockController(),
		Sonos:     sonos.NewClient(sonos.Config{DefaultRoom: "Kitchen"}),
	}
	all, err := ParseToolsets("all")
	require.NoError(t, err)

	t.Run("all skips unconfigured apple music", func(t *testing.T) {
		r, err := Build(deps, all, false)
		require.NoError(t, err)
		_, ok := r.Get("searchByArtist")
		assert.False(t, ok)
		_, ok = r.Get("powerOn")
		assert.True(t, ok)
		_, ok = r.Get("openURL")
		assert.True(t, ok)
		assert.Equal(t, 7+17+1, r.Len())
	})

	t.Run("explicit apple music without client fails", func(t *testing.T) {
		_, err := Build(deps, []Toolset{ToolsetAppleMusic}, true)
		require.Error(t, err)
	})

	t.Run("apple music only", func(t *testing.T) {
		withApple := deps
		withApple.AppleMusic = applemusic.NewClient(applemusic.ClientConfig{Tokens: applemusic.StaticToken("t")})
		r, err := Build(withApple, []Toolset{ToolsetAppleMusic}, true)
		require.NoError(t, err)
		assert.Equal(t, 9, r.Len())
	})
}
