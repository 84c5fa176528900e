package agentloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse_Action(t *testing.T) {
	raw := `{"thinking": "clicking button", "action": {"layer": "browser", "action": "click", "params": {"ref": "e1"}}}`
	p := ParseResponse(raw, 7)
	assert.Equal(t, OutcomeAction, p.Outcome)
	assert.Equal(t, "agent_7", p.Command.ID)
	assert.Equal(t, "browser", p.Command.Layer)
	assert.Equal(t, "click", p.Command.Action)
	assert.Equal(t, "e1", p.Command.Params["ref"])
}

func TestParseResponse_Complete(t *testing.T) {
	raw := `{"thinking": "done", "status": "complete", "summary": "Filled out the form."}`
	p := ParseResponse(raw, 1)
	assert.Equal(t, OutcomeComplete, p.Outcome)
	assert.Equal(t, "Filled out the form.", p.Summary)
}

func TestParseResponse_NeedsHelp(t *testing.T) {
	raw := `{"thinking": "stuck", "status": "needs_help", "question": "Which account should I use?"}`
	p := ParseResponse(raw, 1)
	assert.Equal(t, OutcomeNeedsHelp, p.Outcome)
	assert.Equal(t, "Which account should I use?", p.Question)
}

func TestParseResponse_ExplicitError(t *testing.T) {
	raw := `{"status": "error", "error": "the oracle declined"}`
	p := ParseResponse(raw, 1)
	assert.Equal(t, OutcomeError, p.Outcome)
	assert.Equal(t, "the oracle declined", p.Reason)
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	p := ParseResponse("not json at all", 1)
	assert.Equal(t, OutcomeError, p.Outcome)
	assert.Contains(t, p.Reason, "invalid JSON")
}

func TestParseResponse_MissingActionFields(t *testing.T) {
	raw := `{"thinking": "oops", "action": {"layer": "", "action": "click"}}`
	p := ParseResponse(raw, 1)
	assert.Equal(t, OutcomeError, p.Outcome)
	assert.Contains(t, p.Reason, "action")
}

func TestParseResponse_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"status\": \"complete\", \"summary\": \"done\"}\n```"
	p := ParseResponse(raw, 1)
	assert.Equal(t, OutcomeComplete, p.Outcome)
	assert.Equal(t, "done", p.Summary)
}

func TestParseResponse_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"{",
		"null",
		"[]",
		"{\"action\": null}",
		"```\n\n```",
		"{\"status\": \"complete\"",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			ParseResponse(in, 1)
		})
	}
}
