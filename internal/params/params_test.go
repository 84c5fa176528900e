package params

import (
	"testing"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_Missing(t *testing.T) {
	_, err := String(map[string]any{}, "command")
	require.Error(t, err)
	assert.Equal(t, envelope.KindValidationError, err.(*envelope.StratumError).Kind)
}

func TestString_WrongType(t *testing.T) {
	_, err := String(map[string]any{"command": 5}, "command")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")
}

func TestString_Present(t *testing.T) {
	s, err := String(map[string]any{"command": "ls"}, "command")
	require.NoError(t, err)
	assert.Equal(t, "ls", s)
}

func TestOptString_DefaultsWhenAbsent(t *testing.T) {
	assert.Equal(t, "fallback", OptString(map[string]any{}, "x", "fallback"))
}

func TestInt_DecodesJSONFloat64(t *testing.T) {
	n, err := Int(map[string]any{"count": float64(3)}, "count")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestInt_MissingIsValidationError(t *testing.T) {
	_, err := Int(map[string]any{}, "count")
	require.Error(t, err)
	assert.Equal(t, envelope.KindValidationError, err.(*envelope.StratumError).Kind)
}

func TestOptInt_DefaultsOnWrongType(t *testing.T) {
	assert.Equal(t, 10, OptInt(map[string]any{"count": "nope"}, "count", 10))
}

func TestOptBool_DefaultsWhenAbsent(t *testing.T) {
	assert.True(t, OptBool(map[string]any{}, "flag", true))
}

// TestMissingParamError_S1 reproduces spec §8 scenario S1's literal error
// text. A Result's data.error carries this bare message (see
// dispatch_test.go); Error() itself still prefixes the Kind tag for
// logging/wrapping purposes.
func TestMissingParamError_S1(t *testing.T) {
	err := MissingParamError("command", "shell exec")
	assert.Equal(t, `Missing "command" parameter for shell exec`, err.(*envelope.StratumError).PlainMessage())
	assert.Equal(t, `ValidationError: Missing "command" parameter for shell exec`, err.Error())
}
