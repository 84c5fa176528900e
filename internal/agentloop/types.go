// Package agentloop implements the Observer (C8), the response parser (C9)
// and the Observe-Decide-Act loop (C10). Grounded on screenshot.go's
// executeSee composition order, the tolerant JSON-parsing discipline used
// throughout internal/agent/ai's providers, and agent/runner/runner.go's
// iterate-with-history shape from the teacher repo.
package agentloop

// AvailableLayer tags which structured element data an Observation carries
// (§3 invariant 5).
type AvailableLayer string

const (
	LayerBrowser      AvailableLayer = "browser"
	LayerAccessibility AvailableLayer = "accessibility"
	LayerVisionOnly   AvailableLayer = "vision-only"
)

// ActionSummary is one entry of an Observation's recent-action list.
type ActionSummary struct {
	Layer   string `json:"layer"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
}

// BrowserElements is the browser-stratum half of an Observation's element
// data (§3: "zero or one of {browser elements + page metadata, desktop
// elements}").
type BrowserElements struct {
	PageURL   string           `json:"pageUrl"`
	PageTitle string           `json:"pageTitle"`
	Elements  []map[string]any `json:"elements"`
}

// Observation is the composite state a single agent-loop step passes to the
// oracle (§3).
type Observation struct {
	Screenshot      string            `json:"screenshot"`
	Width           int               `json:"width"`
	Height          int               `json:"height"`
	FrontmostApp    string            `json:"frontmostApp"`
	WindowTitle     string            `json:"windowTitle"`
	MenuBarItems    []string          `json:"menuBarItems"`
	RecentActions   []ActionSummary   `json:"recentActions"`
	BrowserElements *BrowserElements  `json:"browserElements,omitempty"`
	DesktopElements []map[string]any `json:"desktopElements,omitempty"`
	AvailableLayer  AvailableLayer    `json:"availableLayer"`
}

// Command is the minimal shape of a dispatcher-bound command the oracle can
// request (mirrors envelope.Command's fields, with Layer kept as the plain
// string from the oracle's reply).
type Command struct {
	ID     string         `json:"id"`
	Layer  string         `json:"layer"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Outcome tags which of the four ParsedResponse variants was produced (§3).
type Outcome string

const (
	OutcomeAction     Outcome = "action"
	OutcomeComplete   Outcome = "complete"
	OutcomeNeedsHelp  Outcome = "needs_help"
	OutcomeError      Outcome = "error"
)

// ParsedResponse is C9's tagged-variant output. Exactly one of the
// outcome-specific fields is meaningful, selected by Outcome.
type ParsedResponse struct {
	Outcome Outcome

	// action
	Thinking string
	Command  Command

	// complete
	Summary string

	// needs_help
	Question string

	// error
	Reason      string
	RawResponse string
}

// LoopOutcome is the agent loop's terminal result tag (§4.C10).
type LoopOutcome string

const (
	LoopComplete       LoopOutcome = "complete"
	LoopNeedsHelp      LoopOutcome = "needs_help"
	LoopMaxIterations  LoopOutcome = "max_iterations"
	LoopError          LoopOutcome = "error"
)

// Result is the agent loop's final return value.
type Result struct {
	Outcome LoopOutcome `json:"outcome"`
	Summary string      `json:"summary"`
	Steps   int         `json:"steps"`
}
