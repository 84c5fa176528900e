package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deskstratum/agent/internal/catalog"
)

func newSessionsCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect the recording session catalog (D1)",
	}
	root.AddCommand(newSessionsListCmd())
	return root
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(filepath.Join(cfg.DataDir, "catalog.db"))
			if err != nil {
				return err
			}
			defer cat.Close()

			entries, err := cat.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDESCRIPTION\tDURATION(ms)\tFRAMES\tEVENTS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", e.ID, e.Description, e.DurationMs, e.FrameCount, e.EventCount)
			}
			return w.Flush()
		},
	}
}
