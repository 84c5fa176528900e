package shell

import (
	"context"
	"testing"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_MissingCommandParam(t *testing.T) {
	s := New()
	_, err := s.Handle(context.Background(), "exec", map[string]any{})
	require.Error(t, err)
	serr, ok := err.(*envelope.StratumError)
	require.True(t, ok)
	assert.Equal(t, envelope.KindValidationError, serr.Kind)
	assert.Contains(t, serr.Error(), `Missing "command" parameter for shell exec`)
}

func TestExec_ReturnsStdoutAndExitCode(t *testing.T) {
	s := New()
	data, err := s.Handle(context.Background(), "exec", map[string]any{"command": "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", data["stdout"])
	assert.Equal(t, 0, data["exitCode"])
}

func TestUnknownAction(t *testing.T) {
	s := New()
	_, err := s.Handle(context.Background(), "nonsense", nil)
	require.Error(t, err)
	serr, ok := err.(*envelope.StratumError)
	require.True(t, ok)
	assert.Equal(t, envelope.KindUnknownAction, serr.Kind)
}

func TestSanitizedEnv_StripsDangerousVars(t *testing.T) {
	t.Setenv("LD_PRELOAD", "/evil.so")
	env := sanitizedEnv()
	for _, kv := range env {
		assert.NotContains(t, kv, "LD_PRELOAD=")
	}
}
