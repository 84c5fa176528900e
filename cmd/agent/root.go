package main

import (
	"github.com/spf13/cobra"

	"github.com/deskstratum/agent/internal/config"
	"github.com/deskstratum/agent/internal/dispatch"
	"github.com/deskstratum/agent/internal/envelope"
	"github.com/deskstratum/agent/internal/stratum/browser"
	"github.com/deskstratum/agent/internal/stratum/shell"
	"github.com/deskstratum/agent/internal/stratum/vision"
)

var cfg *config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "agent",
		Short: "Layered-execution desktop automation agent",
		Long: `agent dispatches machine-readable commands against a desktop computer
across four execution strata (shell, browser, accessibility, vision), records
UI sessions, and can drive itself via an observe-decide-act loop.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newDispatchCmd())
	root.AddCommand(newRecordCmd())
	root.AddCommand(newWorkflowCmd())
	root.AddCommand(newSessionsCmd())

	return root
}

// buildDispatcher registers every stratum this host OS supports (§1
// non-goal: no cross-platform parity for accessibility/vision, which target
// the darwin scripting bridge only).
func buildDispatcher() *dispatch.Dispatcher {
	d := dispatch.New()
	d.Register(envelope.LayerShell, shell.New())
	d.Register(envelope.LayerBrowser, browser.New())
	d.Register(envelope.LayerVision, vision.New())
	registerAccessibility(d)
	return d
}
