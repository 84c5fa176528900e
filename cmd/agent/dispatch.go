package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskstratum/agent/internal/envelope"
)

func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Read one command envelope from stdin, dispatch it, print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}

			c, err := envelope.ParseCommand(raw)
			if err != nil {
				return printResult(envelope.NewErrorResult("unknown", err))
			}

			d := buildDispatcher()
			result := d.Dispatch(context.Background(), c)
			return printResult(result)
		},
	}
}

// printResult prints r and, for an error result, also returns an error so
// the process exits non-zero — dispatch itself never raises (§4.C7); only
// the CLI wrapper's exit code reflects failure.
func printResult(r envelope.Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if r.Status == envelope.StatusError {
		return fmt.Errorf("%v", r.Data["error"])
	}
	return nil
}
