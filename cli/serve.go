package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/karmachain/feedback-engine/engine/infra/server"
	"github.com/karmachain/feedback-engine/pkg/config"
	"github.com/karmachain/feedback-engine/pkg/logger"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the feedback engine HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := buildLogger(cmd, cfg)
			if err != nil {
				return err
			}
			return server.NewServer(cfg, log).Run()
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile != "" {
		if _, statErr := os.Stat(envFile); statErr == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %q: %w", envFile, err)
			}
		}
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	sources := []config.Source{}
	if configFile != "" {
		sources = append(sources, config.NewYAMLProvider(configFile))
	}
	sources = append(sources, config.NewEnvProvider())

	cfg, err := config.NewService().Load(cmd.Context(), sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildLogger resolves logging settings: explicit flags win over the
// configured runtime log level.
func buildLogger(cmd *cobra.Command, cfg *config.Config) (logger.Logger, error) {
	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = cfg.Runtime.LogLevel
	}
	return logger.SetupLogger(level, logJSON, logSource), nil
}
