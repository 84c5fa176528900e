package agentloop

import (
	"encoding/json"
	"strconv"
	"strings"
)

// rawEnvelope mirrors the oracle reply grammar (§6): either a status field
// ("complete"/"needs_help"/"error") or an "action" sub-object.
type rawEnvelope struct {
	Thinking string          `json:"thinking"`
	Status   string          `json:"status"`
	Summary  string          `json:"summary"`
	Question string          `json:"question"`
	Error    string          `json:"error"`
	Action   *rawActionBlock `json:"action"`
}

type rawActionBlock struct {
	Layer  string         `json:"layer"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// ParseResponse parses the oracle's raw reply into a tagged ParsedResponse.
// It is total (§8 property 5): every input string yields one of the four
// variants, and the function never panics. counter supplies the sequence
// number for agent_<counter> command ids issued on the "action" path.
func ParseResponse(raw string, counter int) ParsedResponse {
	trimmed := stripCodeFences(raw)

	var env rawEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return ParsedResponse{
			Outcome:     OutcomeError,
			Reason:      "invalid JSON: " + err.Error(),
			RawResponse: raw,
		}
	}

	switch env.Status {
	case "complete":
		return ParsedResponse{Outcome: OutcomeComplete, Thinking: env.Thinking, Summary: env.Summary}
	case "needs_help":
		return ParsedResponse{Outcome: OutcomeNeedsHelp, Thinking: env.Thinking, Question: env.Question}
	case "error":
		reason := env.Error
		if reason == "" {
			reason = "oracle reported an error"
		}
		return ParsedResponse{Outcome: OutcomeError, Reason: reason, RawResponse: raw}
	}

	if env.Action == nil || strings.TrimSpace(env.Action.Layer) == "" || strings.TrimSpace(env.Action.Action) == "" {
		return ParsedResponse{
			Outcome:     OutcomeError,
			Reason:      `missing or malformed "action" object (requires non-empty "layer" and "action")`,
			RawResponse: raw,
		}
	}

	return ParsedResponse{
		Outcome:  OutcomeAction,
		Thinking: env.Thinking,
		Command: Command{
			ID:     "agent_" + strconv.Itoa(counter),
			Layer:  env.Action.Layer,
			Action: env.Action.Action,
			Params: env.Action.Params,
		},
	}
}

// stripCodeFences trims a leading/trailing ```json ... ``` or ``` ... ```
// fence the oracle may wrap its reply in despite the "no prose or fences"
// instruction (§6).
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(s[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
