package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/weekintas/valentino-matchingas/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "matchingas",
	Short: "Survey matchmaking engine",
	Long:  "Scores pairwise survey compatibility, stores the match matrix per project, and generates per-respondent result documents grouped by configurable display groups.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
