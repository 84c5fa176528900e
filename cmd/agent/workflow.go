package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskstratum/agent/internal/agentloop"
	"github.com/deskstratum/agent/internal/credential"
	"github.com/deskstratum/agent/internal/workflow"
)

func newWorkflowCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "workflow",
		Short: "Render and execute workflow definitions (C12)",
	}
	root.AddCommand(newWorkflowRunCmd())
	return root
}

func newWorkflowRunCmd() *cobra.Command {
	var varsJSON string

	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Resolve variables, render the workflow as a goal, and run the agent loop against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := workflow.Load(args[0])
			if err != nil {
				return err
			}

			values := map[string]string{}
			if varsJSON != "" {
				if err := json.Unmarshal([]byte(varsJSON), &values); err != nil {
					return fmt.Errorf("parse --vars: %w", err)
				}
			}

			resolved, err := workflow.ResolveVariables(def, values)
			if err != nil {
				return err
			}
			goal := workflow.FormatWorkflowAsGoal(resolved)

			apiKey, ok := credential.Get(credential.Anthropic)
			if !ok {
				return fmt.Errorf("no ANTHROPIC_API_KEY configured (keychain or env)")
			}

			d := buildDispatcher()
			loop := agentloop.New(agentloop.Config{
				Goal:          goal,
				Dispatcher:    d,
				Oracle:        agentloop.NewAnthropicOracle(apiKey, cfg.AnthropicModel),
				MaxIterations: cfg.MaxIterations,
			})

			result := loop.Run(context.Background())
			out, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(out))

			if result.Outcome == agentloop.LoopError {
				return fmt.Errorf("workflow run failed: %s", result.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&varsJSON, "vars", "", `JSON object of variable values, e.g. '{"app":"Mail"}'`)
	return cmd
}
