// Package workflow implements the Workflow definition and textual renderer
// (C12): schema, {{name}} variable resolution and formatWorkflowAsGoal. No
// teacher or pack repo implements token-substitution workflows; this
// package is built fresh against spec §3/§4.C12, following the
// collect-every-error-before-raising discipline of the teacher's
// internal/agent/tools/domain.go (ValidateResourceAction never fails on the
// first violation it finds).
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Variable describes one substitutable value a Workflow's steps reference.
type Variable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Step is one unit of work within a Workflow.
type Step struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	Application  string         `json:"application,omitempty"`
	Layer        string         `json:"layer"`
	Action       string         `json:"action"`
	Params       map[string]any `json:"params,omitempty"`
	Output       string         `json:"output,omitempty"`
	Verification string         `json:"verification,omitempty"`
	FallbackLayer string        `json:"fallbackLayer,omitempty"`
}

// Loop describes an optional iteration block over a collection variable.
type Loop struct {
	Over         string `json:"over"`
	Source       string `json:"source,omitempty"`
	Variable     string `json:"variable"`
	StepsInLoop  []Step `json:"stepsInLoop"`
}

// Rule is a standing condition/action pair evaluated throughout a run.
type Rule struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
	Source    string `json:"source,omitempty"`
}

// Definition is the flat-file workflow schema (§3). Version/CreatedAt/
// UpdatedAt are the SPEC_FULL supplement restoring fields the distilled
// spec dropped (§3 "[SUPPLEMENT]").
type Definition struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Version      int        `json:"version"`
	Applications []string   `json:"applications,omitempty"`
	Variables    []Variable `json:"variables,omitempty"`
	Steps        []Step     `json:"steps"`
	Loops        *Loop      `json:"loops,omitempty"`
	Rules        []Rule     `json:"rules,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

// Load reads a Definition from a flat JSON file (§1 non-goal: "no persistence
// beyond a flat file per definition").
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse workflow %s: %w", path, err)
	}
	if def.Version == 0 {
		def.Version = 1
	}
	return &def, nil
}

// Save writes the Definition back to path as pretty-printed JSON. Callers
// are responsible for stamping UpdatedAt before calling Save.
func (d *Definition) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var tokenRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// UnresolvedVariablesError names every {{name}} token resolveVariables could
// not substitute, collected in one pass rather than failing on the first
// miss (§4.C12).
type UnresolvedVariablesError struct {
	Names []string
}

func (e *UnresolvedVariablesError) Error() string {
	return fmt.Sprintf("unresolved workflow variables: %s", strings.Join(e.Names, ", "))
}

// ResolveVariables deep-copies w and substitutes every {{name}} token in
// step descriptions, every string value nested in step params (including
// inside arrays/objects), and verification strings — recursively over
// w.Steps and w.Loops.StepsInLoop alike. Every missing variable name is
// collected before returning a single error naming the complete set
// (§4.C12, §8 property 4).
func ResolveVariables(w *Definition, values map[string]string) (*Definition, error) {
	missing := map[string]struct{}{}

	substitute := func(s string) string {
		return tokenRe.ReplaceAllStringFunc(s, func(tok string) string {
			m := tokenRe.FindStringSubmatch(tok)
			name := m[1]
			if v, ok := values[name]; ok {
				return v
			}
			missing[name] = struct{}{}
			return tok
		})
	}

	var substituteAny func(v any) any
	substituteAny = func(v any) any {
		switch t := v.(type) {
		case string:
			return substitute(t)
		case map[string]any:
			out := make(map[string]any, len(t))
			for k, val := range t {
				out[k] = substituteAny(val)
			}
			return out
		case []any:
			out := make([]any, len(t))
			for i, val := range t {
				out[i] = substituteAny(val)
			}
			return out
		default:
			return v
		}
	}

	resolveStep := func(step Step) Step {
		step.Description = substitute(step.Description)
		step.Verification = substitute(step.Verification)
		if step.Params != nil {
			resolved := substituteAny(step.Params).(map[string]any)
			step.Params = resolved
		}
		return step
	}

	out := *w
	out.Steps = make([]Step, len(w.Steps))
	for i, step := range w.Steps {
		out.Steps[i] = resolveStep(step)
	}

	if w.Loops != nil {
		loops := *w.Loops
		loops.StepsInLoop = make([]Step, len(w.Loops.StepsInLoop))
		for i, step := range w.Loops.StepsInLoop {
			loops.StepsInLoop[i] = resolveStep(step)
		}
		out.Loops = &loops
	}

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, &UnresolvedVariablesError{Names: names}
	}
	return &out, nil
}

// FormatWorkflowAsGoal renders w as plain text suitable for feeding to the
// agent loop (C10) as its goal string (§4.C12).
func FormatWorkflowAsGoal(w *Definition) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Workflow: %s\n", w.Name)
	if w.Description != "" {
		fmt.Fprintf(&b, "%s\n", w.Description)
	}
	if len(w.Applications) > 0 {
		fmt.Fprintf(&b, "Applications: %s\n", strings.Join(w.Applications, ", "))
	}
	b.WriteString("\nSteps:\n")
	for i, step := range w.Steps {
		writeStep(&b, i+1, step, 0)
	}

	if w.Loops != nil {
		fmt.Fprintf(&b, "\nLoop over %s (as %s):\n", w.Loops.Over, w.Loops.Variable)
		for i, step := range w.Loops.StepsInLoop {
			writeStep(&b, i+1, step, 1)
		}
	}

	if len(w.Variables) > 0 {
		b.WriteString("\nVariables:\n")
		for _, v := range w.Variables {
			fmt.Fprintf(&b, "  - %s: %s\n", v.Name, v.Description)
		}
	}

	if len(w.Rules) > 0 {
		b.WriteString("\nRules:\n")
		for _, r := range w.Rules {
			fmt.Fprintf(&b, "  - if %s then %s\n", r.Condition, r.Action)
		}
	}

	return b.String()
}

func writeStep(b *strings.Builder, n int, step Step, indent int) {
	prefix := strings.Repeat("  ", indent)
	fmt.Fprintf(b, "%s%d. [%s/%s] %s\n", prefix, n, step.Layer, step.Action, step.Description)
	if len(step.Params) > 0 {
		keys := make([]string, 0, len(step.Params))
		for k := range step.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, step.Params[k])
		}
		fmt.Fprintf(b, "%s   params: %s\n", prefix, strings.Join(parts, ", "))
	}
	if step.Verification != "" {
		fmt.Fprintf(b, "%s   verify: %s\n", prefix, step.Verification)
	}
	if step.FallbackLayer != "" {
		fmt.Fprintf(b, "%s   fallback: %s\n", prefix, step.FallbackLayer)
	}
}
