// Command agent is the process entry point: it loads config, builds the
// Dispatcher with every stratum registered, and hands off to whichever
// subcommand the operator invoked. Grounded on cmd/nebo/root.go's
// cobra-root-plus-subcommands wiring from the teacher repo; this module's
// surface (run/dispatch/record/workflow) replaces the teacher's
// chat/desktop/doctor/skills command set with the spec's own commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/deskstratum/agent/internal/logging"
)

func main() {
	_ = godotenv.Load() // optional .env, matching the teacher's entrypoint idiom (§6)

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		logging.Errorf("fatal: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
