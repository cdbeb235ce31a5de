package cmd

import (
	"io"
	"log/slog"

	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/constants"
	"github.com/jsphweid/handcomposer/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	logFile    string

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "handcomposer",
	Short: "Play chords with your hands",
	Long: `handcomposer turns tracked hand landmarks into chords on a MIDI port.
The primary hand's height picks the root, the secondary hand's shape picks the
quality, and hand spread and distance drive velocity and tempo.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, logCloser = logging.Init(logging.Options{
			Debug:      debug,
			File:       logFile,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		})
		path := configPath
		if path == "" {
			path = constants.GetConfigPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		if path != "" {
			logger.Debug("config loaded", "path", path)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $HANDCOMPOSER_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file, rotated by size")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
