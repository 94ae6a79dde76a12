package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stillmind/sessionaudio/internal/silence"
)

var silenceCmd = &cobra.Command{
	Use:     "silence <seconds>",
	Short:   "Generate a silent WAV asset",
	Long:    paragraph(fmt.Sprintf("\nGenerate an exact-duration %s and print its path. Assets are cached by duration; generating the same length twice is free.", keyword("silent WAV asset"))),
	Example: paragraph("sessionaudio silence 30\nsessionaudio silence 2.5"),
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}

		cfg, err := engineConfig()
		if err != nil {
			return err
		}
		gen, err := silence.NewGenerator(cfg.ScratchDir, cfg.SilenceSampleRate)
		if err != nil {
			return err
		}

		path, err := gen.Generate(seconds)
		if err != nil {
			return err
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("unable to stat generated asset: %w", err)
		}

		fmt.Println(path)
		fmt.Println(subtle(fmt.Sprintf("%s, %d Hz", humanize.Bytes(uint64(info.Size())), gen.SampleRate())))
		return nil
	},
}
