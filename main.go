// Package main provides the entry point for the sessionaudio CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stillmind/sessionaudio/pkg/session"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	forceDuck  bool
	mockAudio  bool

	rootCmd = &cobra.Command{
		Use:   "sessionaudio",
		Short: "Play guided audio sessions that share the speaker politely",
		Long: paragraph(
			fmt.Sprintf("\nPlay %s: timed narration with silence in between, ducking around whatever else is playing.", keyword("guided audio sessions")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if viper.GetBool("debug") {
				debug = true
			}
			return session.InitializeLogging(debug)
		},
	}
)

// engineConfig layers viper config-file values over defaults and environment.
func engineConfig() (session.Config, error) {
	cfg, err := session.LoadConfig()
	if err != nil {
		return cfg, err
	}

	if viper.IsSet("sample_rate") {
		cfg.SampleRate = viper.GetInt("sample_rate")
	}
	if viper.IsSet("silence_sample_rate") {
		cfg.SilenceSampleRate = viper.GetInt("silence_sample_rate")
	}
	if viper.IsSet("keepalive_volume") {
		cfg.KeepaliveVolume = viper.GetFloat64("keepalive_volume")
	}
	if viper.IsSet("scratch_dir") {
		cfg.ScratchDir = viper.GetString("scratch_dir")
	}
	if viper.IsSet("chime_path") {
		cfg.ChimePath = viper.GetString("chime_path")
	}
	if forceDuck {
		cfg.ForceDuck = true
	}
	if debug {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// newEngine builds the audio context and arbiter for one CLI invocation.
func newEngine(cfg session.Config) (*session.Arbiter, session.AudioContextInterface, error) {
	contextType := session.AudioContextAuto
	if mockAudio {
		contextType = session.AudioContextMock
	}
	audio, err := session.NewAudioContext(contextType)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to initialize audio: %w", err)
	}
	arbiter := session.NewArbiter(audio, session.NewFocusSession(audio), cfg)
	return arbiter, audio, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging to the debug log file")
	rootCmd.PersistentFlags().BoolVar(&forceDuck, "force-duck", false, "duck other audio for every clip, regardless of detection")
	rootCmd.PersistentFlags().BoolVar(&mockAudio, "mock-audio", false, "use the mock audio backend (no hardware output)")
	_ = rootCmd.PersistentFlags().MarkHidden("mock-audio")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("force_duck", rootCmd.PersistentFlags().Lookup("force-duck"))

	viper.SetDefault("sample_rate", session.SampleRate)
	viper.SetDefault("keepalive_volume", session.KeepaliveVolume)

	rootCmd.AddCommand(playCmd, runCmd, silenceCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "sessionaudio")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "sessionaudio")}, dirs...)
	}

	if c := os.Getenv("SESSIONAUDIO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("sessionaudio")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("sessionaudio")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "sessionaudio.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
