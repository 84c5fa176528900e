package agentloop

import (
	"context"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum"
)

// fakeOracle replays a fixed sequence of replies, one per Decide call.
type fakeOracle struct {
	replies []string
	calls   int
}

func (f *fakeOracle) Decide(ctx context.Context, systemPrompt string, history []anthropic.MessageParam) (string, error) {
	if f.calls >= len(f.replies) {
		return `{"status": "complete", "summary": "ran out of replies"}`, nil
	}
	r := f.replies[f.calls]
	f.calls++
	return r, nil
}

func newTestDispatcher() *dispatch.Dispatcher {
	d := dispatch.New()
	d.Register(envelope.LayerVision, stratum.HandlerFunc(func(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
		switch action {
		case "screenshot":
			return map[string]any{"image": "Zm9v", "width": 1280, "height": 800, "captureType": "fullscreen"}, nil
		case "context_collect":
			return map[string]any{"frontmostApp": "TextEdit", "windowTitle": "Untitled"}, nil
		case "click_coordinates":
			return map[string]any{"action": "click_coordinates"}, nil
		}
		return nil, envelope.New(envelope.KindUnknownAction, "unhandled %q", action)
	}))
	d.Register(envelope.LayerAccessibility, stratum.HandlerFunc(func(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
		return map[string]any{"elements": []map[string]any{}}, nil
	}))
	d.Register(envelope.LayerShell, stratum.HandlerFunc(func(ctx context.Context, action string, p map[string]any) (map[string]any, error) {
		if action == "exec" {
			return map[string]any{"stdout": "hi\n", "stderr": "", "exitCode": 0}, nil
		}
		return nil, envelope.New(envelope.KindUnknownAction, "unhandled %q", action)
	}))
	return d
}

func TestLoop_CompletesOnFirstReply(t *testing.T) {
	d := newTestDispatcher()
	oracle := &fakeOracle{replies: []string{
		`{"thinking": "easy", "status": "complete", "summary": "Task done."}`,
	}}
	loop := New(Config{Goal: "do a thing", Dispatcher: d, Oracle: oracle, SettleDelay: 0})

	result := loop.Run(context.Background())
	assert.Equal(t, LoopComplete, result.Outcome)
	assert.Equal(t, "Task done.", result.Summary)
	assert.Equal(t, 1, result.Steps)
}

func TestLoop_RunsActionThenCompletes(t *testing.T) {
	d := newTestDispatcher()
	oracle := &fakeOracle{replies: []string{
		`{"thinking": "click it", "action": {"layer": "vision", "action": "click_coordinates", "params": {"x": 10, "y": 20}}}`,
		`{"thinking": "done", "status": "complete", "summary": "Clicked."}`,
	}}
	loop := New(Config{Goal: "click the button", Dispatcher: d, Oracle: oracle, SettleDelay: 0})

	result := loop.Run(context.Background())
	assert.Equal(t, LoopComplete, result.Outcome)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 2, oracle.calls)
}

func TestLoop_TerminatesAfterThreeParseErrors(t *testing.T) {
	d := newTestDispatcher()
	oracle := &fakeOracle{replies: []string{
		"not json",
		"also not json",
		"still not json",
	}}
	loop := New(Config{Goal: "whatever", Dispatcher: d, Oracle: oracle, SettleDelay: 0})

	result := loop.Run(context.Background())
	assert.Equal(t, LoopError, result.Outcome)
	assert.Contains(t, result.Summary, "parse-error budget")
	assert.Equal(t, 3, result.Steps)
}

func TestLoop_NeedsHelpIsTerminal(t *testing.T) {
	d := newTestDispatcher()
	oracle := &fakeOracle{replies: []string{
		`{"thinking": "stuck", "status": "needs_help", "question": "Which file?"}`,
	}}
	loop := New(Config{Goal: "pick a file", Dispatcher: d, Oracle: oracle, SettleDelay: 0})

	result := loop.Run(context.Background())
	assert.Equal(t, LoopNeedsHelp, result.Outcome)
	assert.Equal(t, "Which file?", result.Summary)
}

func TestLoop_CapsAtMaxIterations(t *testing.T) {
	d := newTestDispatcher()
	oracle := &fakeOracle{replies: []string{
		`{"action": {"layer": "vision", "action": "click_coordinates", "params": {"x": 1, "y": 1}}}`,
		`{"action": {"layer": "vision", "action": "click_coordinates", "params": {"x": 2, "y": 2}}}`,
	}}
	loop := New(Config{Goal: "loop forever", Dispatcher: d, Oracle: oracle, MaxIterations: 2, SettleDelay: 0})

	result := loop.Run(context.Background())
	assert.Equal(t, LoopMaxIterations, result.Outcome)
	assert.Equal(t, 2, result.Steps)
}

func TestActionFeedback_TruncatesLongShellOutput(t *testing.T) {
	cmd := Command{Layer: "shell", Action: "exec"}
	longOutput := make([]byte, 10000)
	for i := range longOutput {
		longOutput[i] = 'a'
	}
	result := envelope.NewResult("x", map[string]any{"stdout": string(longOutput), "stderr": "", "exitCode": 0})

	feedback := actionFeedback(cmd, result)
	require.Less(t, len(feedback), len(longOutput))
	assert.Contains(t, feedback, "truncated")
}

func TestActionFeedback_SilentForBrowserSuccess(t *testing.T) {
	cmd := Command{Layer: "browser", Action: "click"}
	result := envelope.NewResult("x", map[string]any{"ref": "e1"})
	assert.Empty(t, actionFeedback(cmd, result))
}

func TestActionFeedback_ReportsErrors(t *testing.T) {
	cmd := Command{Layer: "browser", Action: "click"}
	result := envelope.NewErrorResult("x", envelope.UnknownRef("e99"))
	feedback := actionFeedback(cmd, result)
	assert.Contains(t, feedback, "failed")
	assert.Contains(t, feedback, "e99")
}
