package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Strings(t *testing.T) {
	args := Args{"room": "  Kitchen ", "count": float64(3), "flag": true, "empty": "   "}

	assert.Equal(t, "Kitchen", args.OptionalString("room"))
	s, ok := args.String("count")
	assert.True(t, ok)
	assert.Equal(t, "3", s)
	s, _ = args.String("flag")
	assert.Equal(t, "true", s)

	_, err := args.RequiredString("empty")
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "empty", argErr.Name)

	_, err = args.RequiredString("missing")
	require.Error(t, err)
}

func TestArgs_Int(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		present bool
		wantErr bool
	}{
		{"float", float64(42), 42, true, false},
		{"int", 7, 7, true, false},
		{"string", " 12 ", 12, true, false},
		{"empty string", "", 0, false, false},
		{"fraction", 1.5, 0, true, true},
		{"bad string", "abc", 0, true, true},
		{"bool", true, 0, true, true},
		{"nil", nil, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present, err := Args{"n": tt.value}.Int("n")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.present, present)
		})
	}
}

func TestArgs_IntHelpers(t *testing.T) {
	args := Args{"limit": float64(10)}

	n, err := args.IntOr("limit", 25)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = args.IntOr("offset", 25)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	ptr, err := args.OptionalInt("offset")
	require.NoError(t, err)
	assert.Nil(t, ptr)

	ptr, err = args.OptionalInt("limit")
	require.NoError(t, err)
	require.NotNil(t, ptr)
	assert.Equal(t, 10, *ptr)

	_, err = args.RequiredInt("index")
	require.Error(t, err)
}

func TestArgs_Bool(t *testing.T) {
	for _, raw := range []any{true, "true", "YES", "on", "1", float64(1)} {
		b, ok, err := Args{"b": raw}.Bool("b")
		require.NoError(t, err, "%v", raw)
		assert.True(t, ok)
		assert.True(t, b, "%v", raw)
	}
	for _, raw := range []any{false, "false", "no", "off", "0", float64(0)} {
		b, _, err := Args{"b": raw}.Bool("b")
		require.NoError(t, err, "%v", raw)
		assert.False(t, b, "%v", raw)
	}

	_, _, err := Args{"b": "maybe"}.Bool("b")
	require.Error(t, err)

	_, err = Args{}.RequiredBool("b")
	require.Error(t, err)
}

func TestArgs_Volume(t *testing.T) {
	v, err := Args{"volume": float64(0)}.Volume("volume")
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	v, err = Args{"volume": float64(100)}.Volume("volume")
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	_, err = Args{"volume": float64(101)}.Volume("volume")
	assert.EqualError(t, err, `invalid argument "volume": must be between 0 and 100`)

	_, err = Args{"volume": float64(-1)}.Volume("volume")
	require.Error(t, err)
}
