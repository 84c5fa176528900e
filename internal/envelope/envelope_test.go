package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewErrorResult_IDMatchesCommand exercises §8 property 1: the result's
// id always equals the originating command's id.
func TestNewErrorResult_IDMatchesCommand(t *testing.T) {
	res := NewErrorResult("cmd-42", New(KindValidationError, "boom"))
	assert.Equal(t, "cmd-42", res.ID)
	assert.Equal(t, StatusError, res.Status)
}

// TestNewErrorResult_SplitsKindFromPlainMessage reproduces spec §8 scenario
// S1: data.error carries the bare message, not the Kind-prefixed Error()
// text; the taxonomy tag goes in the separate data.kind field.
func TestNewErrorResult_SplitsKindFromPlainMessage(t *testing.T) {
	res := NewErrorResult("a", New(KindValidationError, `Missing "command" parameter for shell exec`))
	assert.Equal(t, `Missing "command" parameter for shell exec`, res.Data["error"])
	assert.Equal(t, "ValidationError", res.Data["kind"])
}

// TestNewErrorResult_PlainErrorHasNoKind covers a non-*StratumError escape
// (e.g. a recovered panic wrapped in fmt.Errorf): no data.kind is added.
func TestNewErrorResult_PlainErrorHasNoKind(t *testing.T) {
	res := NewErrorResult("b", assert.AnError)
	assert.Equal(t, assert.AnError.Error(), res.Data["error"])
	_, hasKind := res.Data["kind"]
	assert.False(t, hasKind)
}

func TestNewResult_DefaultsNilDataToEmptyMap(t *testing.T) {
	res := NewResult("x", nil)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestParseCommand_RoundTrips(t *testing.T) {
	raw := []byte(`{"type":"command","id":"a","layer":"shell","action":"exec","params":{"command":"ls"}}`)
	c, err := ParseCommand(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", c.ID)
	assert.Equal(t, LayerShell, c.Layer)
	assert.Equal(t, "exec", c.Action)
	assert.Equal(t, "ls", c.Params["command"])
}

func TestParseCommand_MalformedJSON(t *testing.T) {
	_, err := ParseCommand([]byte("not json"))
	require.Error(t, err)
}

func TestStratumError_UnknownRefCarriesHint(t *testing.T) {
	err := UnknownRef("e1")
	assert.Equal(t, KindUnknownRef, err.Kind)
	assert.Contains(t, err.Error(), "Take a new snapshot")
}

func TestStratumError_Recoverable(t *testing.T) {
	assert.False(t, New(KindObservationFailure, "x").Recoverable())
	assert.False(t, New(KindOracleFailure, "x").Recoverable())
	assert.True(t, New(KindParseError, "x").Recoverable())
	assert.True(t, New(KindTimeout, "x").Recoverable())
}
