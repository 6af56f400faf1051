package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/internal/pkg/config"
	"github.com/ManuelReschke/MealPilot/internal/pkg/env"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "mealpilot",
		Short:         "MealPilot - subscription-gated meal plan service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the environment, configuration and logger shared by all
// commands.
func bootstrap() (*config.Config, *zap.Logger, error) {
	envErr := env.SetupEnvFile()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.AppEnv == "dev")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	if envErr != nil {
		logger.Debug("using process environment", zap.String("reason", envErr.Error()))
	}
	return cfg, logger, nil
}
