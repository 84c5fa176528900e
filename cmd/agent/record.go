package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deskstratum/agent/internal/catalog"
	"github.com/deskstratum/agent/internal/credential"
	"github.com/deskstratum/agent/internal/recording"
)

func newRecordCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a UI session (events, frames, audio) until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.New().String()
			sessionDir := filepath.Join(cfg.DataDir, "sessions", id)

			var transcriber recording.Transcriber
			if key, ok := credential.Get(credential.OpenAI); ok {
				transcriber = recording.NewWhisperTranscriber(key)
			}

			d := buildDispatcher()
			sess, err := recording.NewSession(id, description, sessionDir, cfg.HelperPath, d, transcriber)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("recording session %s started; press Ctrl-C to stop\n", id)
			if err := sess.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}

			manifest, err := sess.Stop(context.Background())
			if err != nil {
				return err
			}

			cat, err := catalog.Open(filepath.Join(cfg.DataDir, "catalog.db"))
			if err != nil {
				return err
			}
			defer cat.Close()
			if err := cat.Record(manifest, filepath.Join(sessionDir, "manifest.json")); err != nil {
				return err
			}

			fmt.Printf("session %s complete: %d events, %d frames, %dms\n",
				manifest.ID, manifest.EventCount, manifest.FrameCount, manifest.DurationMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "human-readable description stored with the session")
	return cmd
}
