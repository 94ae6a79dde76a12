package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/stillmind/sessionaudio/pkg/session"
)

var backgroundSafe bool

var playCmd = &cobra.Command{
	Use:     "play <clip.wav>",
	Short:   "Play a single narration clip",
	Long:    paragraph(fmt.Sprintf("\nPlay one %s through the arbiter: other audio is ducked while it speaks and restored afterward.", keyword("narration clip"))),
	Example: paragraph("sessionaudio play reminder.wav\nsessionaudio play --background-safe reminder.wav"),
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := engineConfig()
		if err != nil {
			return err
		}
		arbiter, audio, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer audio.Close() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := arbiter.PlayNarration(ctx, session.FileSource(args[0]), backgroundSafe); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		return nil
	},
}

func init() {
	playCmd.Flags().BoolVar(&backgroundSafe, "background-safe", false, "restore without deactivating (keeps a background session alive)")
}
