package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/i474232898/date-planner/internal/config"
	"github.com/i474232898/date-planner/pkg/logger"
)

var (
	version    = "0.1.0"
	configPath string
	cfg        *config.AppConfig
)

func main() {
	root := &cobra.Command{
		Use:   "date-planner",
		Short: "Weather-aware date planning assistant",
		Long: `date-planner answers date and outing questions with a language model,
using the user's location and the local forecast as context. It also serves
the credential-holding proxy for the web client.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default: environment only)")

	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(doctorCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
