package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyCombo_ModifierPlusPrintable(t *testing.T) {
	p, err := parseKeyCombo("cmd+s")
	require.NoError(t, err)
	assert.Equal(t, "s", p.MainKey)
	assert.Equal(t, []string{"command down"}, p.Modifiers)
	assert.Equal(t, 0, p.KeyCode)
}

func TestParseKeyCombo_SpecialKey(t *testing.T) {
	p, err := parseKeyCombo("shift+tab")
	require.NoError(t, err)
	assert.Equal(t, "tab", p.MainKey)
	assert.Equal(t, []string{"shift down"}, p.Modifiers)
	assert.Equal(t, 48, p.KeyCode)
}

func TestParseKeyCombo_MultipleModifiers(t *testing.T) {
	p, err := parseKeyCombo("cmd+option+escape")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"command down", "option down"}, p.Modifiers)
	assert.Equal(t, 53, p.KeyCode)
}

// TestParseKeyCombo_ModifierOnlyRejected matches spec §9's open-question
// resolution: modifier-only combos are explicitly unsupported.
func TestParseKeyCombo_ModifierOnlyRejected(t *testing.T) {
	_, err := parseKeyCombo("cmd")
	require.Error(t, err)
	assert.Equal(t, errModifierOnly, err)
}

func TestParseKeyCombo_BareKeyNoModifiers(t *testing.T) {
	p, err := parseKeyCombo("return")
	require.NoError(t, err)
	assert.Empty(t, p.Modifiers)
	assert.Equal(t, 36, p.KeyCode)
}
