package workflow

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() *Definition {
	return &Definition{
		ID:           "wf-1",
		Name:         "Send weekly report",
		Description:  "Opens {{app}} and emails {{recipient}}",
		Applications: []string{"Mail"},
		Variables: []Variable{
			{Name: "app", Description: "target application"},
			{Name: "recipient", Description: "email recipient"},
		},
		Steps: []Step{
			{
				ID:          "s1",
				Description: "Open {{app}}",
				Layer:       "shell",
				Action:      "launch_app",
				Params:      map[string]any{"name": "{{app}}"},
			},
			{
				ID:          "s2",
				Description: "Type recipient",
				Layer:       "accessibility",
				Action:      "set_value",
				Params: map[string]any{
					"ref":   "ax_1",
					"value": "{{recipient}}",
					"nested": map[string]any{
						"cc": []any{"{{recipient}}", "static@example.com"},
					},
				},
			},
		},
	}
}

func TestResolveVariables_SubstitutesAllTokens(t *testing.T) {
	w := sampleDefinition()
	resolved, err := ResolveVariables(w, map[string]string{
		"app":       "Mail",
		"recipient": "ops@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Open Mail", resolved.Steps[0].Description)
	assert.Equal(t, "Mail", resolved.Steps[0].Params["name"])
	assert.Equal(t, "ops@example.com", resolved.Steps[1].Params["value"])

	nested := resolved.Steps[1].Params["nested"].(map[string]any)
	cc := nested["cc"].([]any)
	assert.Equal(t, "ops@example.com", cc[0])
	assert.Equal(t, "static@example.com", cc[1])

	// Original is untouched (deep copy).
	assert.Equal(t, "Open {{app}}", w.Steps[0].Description)
}

func TestResolveVariables_SubstitutesLoopSteps(t *testing.T) {
	w := sampleDefinition()
	w.Loops = &Loop{
		Over:     "contacts",
		Variable: "contact",
		StepsInLoop: []Step{
			{
				ID:          "l1",
				Description: "Email {{contact}} about {{app}}",
				Layer:       "accessibility",
				Action:      "set_value",
				Params:      map[string]any{"value": "{{contact}}"},
			},
		},
	}

	resolved, err := ResolveVariables(w, map[string]string{
		"app": "Mail", "recipient": "ops@example.com", "contact": "alex@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Email alex@example.com about Mail", resolved.Loops.StepsInLoop[0].Description)
	assert.Equal(t, "alex@example.com", resolved.Loops.StepsInLoop[0].Params["value"])
	// Original is untouched (deep copy).
	assert.Equal(t, "Email {{contact}} about {{app}}", w.Loops.StepsInLoop[0].Description)
}

func TestResolveVariables_CollectsMissingNamesFromLoopSteps(t *testing.T) {
	w := sampleDefinition()
	w.Loops = &Loop{
		Over:     "contacts",
		Variable: "contact",
		StepsInLoop: []Step{
			{ID: "l1", Description: "Email {{contact}}", Layer: "accessibility", Action: "set_value"},
		},
	}

	_, err := ResolveVariables(w, map[string]string{"app": "Mail", "recipient": "ops@example.com"})

	var unresolved *UnresolvedVariablesError
	require.ErrorAs(t, err, &unresolved)
	assert.Contains(t, unresolved.Names, "contact")
}

func TestResolveVariables_CollectsAllMissingNames(t *testing.T) {
	w := sampleDefinition()
	_, err := ResolveVariables(w, map[string]string{})

	var unresolved *UnresolvedVariablesError
	require.ErrorAs(t, err, &unresolved)
	assert.ElementsMatch(t, []string{"app", "recipient"}, unresolved.Names)
}

func TestResolveVariables_IdempotentWhenEveryVariableSupplied(t *testing.T) {
	w := sampleDefinition()
	values := map[string]string{"app": "Mail", "recipient": "ops@example.com"}

	first, err := ResolveVariables(w, values)
	require.NoError(t, err)
	second, err := ResolveVariables(first, values)
	require.NoError(t, err)

	assert.Equal(t, first.Steps[0].Description, second.Steps[0].Description)
}

func TestFormatWorkflowAsGoal_IncludesStepsVariablesAndRules(t *testing.T) {
	w := sampleDefinition()
	w.Rules = []Rule{{Condition: "dialog appears", Action: "dismiss it"}}

	goal := FormatWorkflowAsGoal(w)

	assert.Contains(t, goal, "Workflow: Send weekly report")
	assert.Contains(t, goal, "[shell/launch_app]")
	assert.Contains(t, goal, "Variables:")
	assert.Contains(t, goal, "Rules:")
	assert.Contains(t, goal, "dismiss it")
}

func TestLoadSave_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.json")

	w := sampleDefinition()
	require.NoError(t, w.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, w.Name, loaded.Name)
	assert.Equal(t, 1, loaded.Version)
	assert.Len(t, loaded.Steps, len(w.Steps))
}
