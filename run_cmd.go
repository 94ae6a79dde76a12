package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/stillmind/sessionaudio/internal/silence"
	"github.com/stillmind/sessionaudio/internal/timeline"
	"github.com/stillmind/sessionaudio/pkg/session"
)

// manifest describes one session on disk.
type manifest struct {
	TotalDuration float64                `yaml:"total_duration"`
	Chime         string                 `yaml:"chime"`
	Segments      []manifestSegment      `yaml:"segments"`
	Interjections []manifestInterjection `yaml:"interjections"`
}

type manifestSegment struct {
	Start    int     `yaml:"start"`
	Source   string  `yaml:"source"`
	Duration float64 `yaml:"duration"`
	Phase    string  `yaml:"phase"`
}

type manifestInterjection struct {
	At       int     `yaml:"at"`
	Source   string  `yaml:"source"`
	Duration float64 `yaml:"duration"`
}

func loadManifest(path string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("unable to read session manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("unable to parse session manifest: %w", err)
	}
	if m.TotalDuration <= 0 {
		return m, fmt.Errorf("session manifest needs a positive total_duration, got %v", m.TotalDuration)
	}
	if len(m.Segments) == 0 {
		return m, fmt.Errorf("session manifest has no segments")
	}
	return m, nil
}

var runCmd = &cobra.Command{
	Use:     "run <session.yml>",
	Short:   "Run a full timed session from a manifest",
	Long:    paragraph(fmt.Sprintf("\nRun a %s end to end: narration segments and interjections play at their scheduled offsets, silence fills the gaps, and a chime closes the session.", keyword("timed session"))),
	Example: paragraph("sessionaudio run morning.yml\nsessionaudio run --mock-audio morning.yml"),
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		m, err := loadManifest(args[0])
		if err != nil {
			return err
		}

		cfg, err := engineConfig()
		if err != nil {
			return err
		}
		arbiter, audio, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer audio.Close() //nolint:errcheck

		spacers, err := silence.NewGenerator(cfg.ScratchDir, cfg.SilenceSampleRate)
		if err != nil {
			return err
		}

		segments := make([]timeline.Segment, len(m.Segments))
		for i, s := range m.Segments {
			segments[i] = timeline.Segment{
				StartSeconds: s.Start,
				Source:       s.Source,
				Duration:     s.Duration,
				Phase:        s.Phase,
			}
		}
		interjections := make([]timeline.Interjection, len(m.Interjections))
		for i, ij := range m.Interjections {
			interjections[i] = timeline.Interjection{
				ScheduledSeconds: ij.At,
				Source:           ij.Source,
				Duration:         ij.Duration,
			}
		}

		chime := m.Chime
		if chime == "" {
			chime = cfg.ChimePath
		}
		items, entries := timeline.Build(segments, interjections, m.TotalDuration, spacers, chime)

		orchestrator := session.NewOrchestrator(arbiter, audio, cfg, items, entries, m.TotalDuration)

		isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
		orchestrator.OnProgress(func(elapsed float64, phase string) {
			if isTerminal {
				fmt.Printf("\r%s", subtle(fmt.Sprintf("  %6.1fs / %.1fs  %s    ", elapsed, m.TotalDuration, phase)))
			}
		})

		done := make(chan struct{})
		orchestrator.OnComplete(func() { close(done) })

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := orchestrator.Play(ctx); err != nil {
			return err
		}

		select {
		case <-done:
			if isTerminal {
				fmt.Println()
			}
			fmt.Println(keyword("session complete"))
		case <-ctx.Done():
			orchestrator.Stop()
			if isTerminal {
				fmt.Println()
			}
			fmt.Println(subtle("session stopped"))
		}
		return nil
	},
}
