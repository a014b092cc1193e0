package cmd

import (
	"fmt"
	"os"

	"github.com/lattesec/log"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/calltree/internal/config"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "calltree",
	Short: "Reconstruct the dynamic call tree of a paused program by single-stepping it",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger, err := log.NewLogger().WithLevel(log.DEBUG).Build()
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			if err := logger.Start(); err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			log.Register(logger)
		}

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pause transition")
}
