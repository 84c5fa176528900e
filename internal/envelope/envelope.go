// Package envelope defines the command/result contract that flows between the
// controller, the dispatcher (C7) and every stratum.
package envelope

import "encoding/json"

// Layer identifies which stratum executor a Command targets.
type Layer string

const (
	LayerShell         Layer = "shell"
	LayerBrowser       Layer = "browser"
	LayerAccessibility Layer = "accessibility"
	LayerVision        Layer = "vision"
	LayerSystem        Layer = "system"
)

// Status is the outcome tag carried by a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Command is the inbound envelope (tag "command" on the wire).
type Command struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Layer  Layer          `json:"layer"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Result is the outbound envelope (tag "result" on the wire). It must be
// constructed for every command, including validation failures.
type Result struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Status Status         `json:"status"`
	Data   map[string]any `json:"data"`
}

// NewResult builds a success result for the given command id.
func NewResult(id string, data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{Type: "result", ID: id, Status: StatusSuccess, Data: data}
}

// NewErrorResult builds an error result for the given command id. For a
// *StratumError, data.error carries the bare message (the literal text
// scenario S1 mandates, e.g. `Missing "command" parameter for shell exec`)
// and the taxonomy tag (§7) goes in the separate data.kind field, rather
// than being prefixed onto data.error.
func NewErrorResult(id string, err error) Result {
	data := map[string]any{"error": err.Error()}
	if serr, ok := err.(*StratumError); ok {
		data["error"] = serr.PlainMessage()
		data["kind"] = string(serr.Kind)
	}
	return Result{
		Type:   "result",
		ID:     id,
		Status: StatusError,
		Data:   data,
	}
}

// ParseCommand decodes a raw inbound JSON message into a Command. Malformed
// JSON is reported by the caller as an error result with id "unknown" per §6.
func ParseCommand(raw []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(raw, &c); err != nil {
		return Command{}, err
	}
	return c, nil
}

// Marshal serializes a Result back to wire JSON.
func (r Result) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
