package scripting

import (
	"testing"

	"github.com/deskstratum/agent/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, `say \"hi\"\nbye`, Escape(`say "hi"`+"\nbye"))
	assert.Equal(t, `C:\\Users\\x`, Escape(`C:\Users\x`))
}

func TestNextTempName_Unique(t *testing.T) {
	a := nextTempName()
	b := nextTempName()
	assert.NotEqual(t, a, b)
}

func kindOf(t *testing.T, err error) envelope.Kind {
	t.Helper()
	serr, ok := err.(*envelope.StratumError)
	require.True(t, ok)
	return serr.Kind
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, envelope.KindPermissionDenied, kindOf(t, classifyError("assistive access is disabled")))
	assert.Equal(t, envelope.KindAppNotFound, kindOf(t, classifyError("process not running")))
	assert.Equal(t, envelope.KindScriptFailed, kindOf(t, classifyError("syntax error near token")))
}
