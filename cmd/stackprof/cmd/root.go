// Package cmd implements the stackprof command line.
package cmd

import (
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/danpilch/stackprof/pkg/config"
)

var (
	logLevel   string
	configPath string
	sessionDir string

	cfg    = config.Default()
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "stackprof",
	Short: "Sampling profiler for Go programs",
	Long: `stackprof records call stack samples of a running workload, stores the
resulting sessions and renders them as tables, trees, flame graphs or pprof
profiles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("dir") {
			cfg.SessionDir = sessionDir
		}

		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return errors.WrapIf(err, "invalid log level")
		}
		logger.SetLevel(lvl)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel,
		"log-level",
		logrus.WarnLevel.String(),
		"Log level. One of trace, debug, info, warn, error, fatal, panic.",
	)
	rootCmd.PersistentFlags().StringVar(&configPath,
		"config",
		"",
		"Path to a YAML configuration file",
	)
	rootCmd.PersistentFlags().StringVar(&sessionDir,
		"dir",
		"",
		"Session storage directory (default ~/.stackprof/sessions)",
	)

	rootCmd.AddCommand(recordCmd, renderCmd, listCmd, compareCmd, benchCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
