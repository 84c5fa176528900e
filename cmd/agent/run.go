package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deskstratum/agent/internal/transport"
)

func newRunCmd() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the controller's transport and serve dispatched commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				url = cfg.TransportURL
			}
			if url == "" {
				return fmt.Errorf("no transport URL configured: pass --url or set WS_URL")
			}

			d := buildDispatcher()
			client, err := transport.Dial(url, cfg.AgentName, version, d)
			if err != nil {
				return err
			}
			defer client.Close()

			return client.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "controller websocket URL (overrides WS_URL)")
	return cmd
}

const version = "0.1.0"
