package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/terra-clan/circular-readiness/internal/config"
)

// globalFlags are shared by every command
type globalFlags struct {
	envFile   string
	logLevel  string
	logFormat string
}

// Run executes the command line with args (including the program name)
func Run(ctx context.Context, args []string, version string) error {
	if err := newApp(version, os.Stdout).Run(ctx, args); err != nil {
		slog.Error("failed to run app", "error", err)
		return err
	}
	return nil
}

func newApp(version string, out io.Writer) *cli.Command {
	var g globalFlags

	return &cli.Command{
		Name:    "circular-readiness",
		Usage:   "Circularity maturity self-assessment service",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "Path to a .env file loaded before the environment",
				Value:       ".env",
				Sources:     cli.EnvVars("ENV_FILE"),
				Destination: &g.envFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error); overrides LOG_LEVEL",
				Destination: &g.logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "Log format (json, text); overrides LOG_FORMAT",
				Destination: &g.logFormat,
			},
		},
		Commands: []*cli.Command{
			cmdServe(&g),
			cmdValidate(),
			cmdMigrate(&g),
			cmdHistory(&g),
		},
	}
}

// loadConfig reads configuration and applies the global overrides
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnvFile(g.envFile)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	setupLogger(cfg.Log, os.Stderr)
	return cfg, nil
}

// setupLogger installs the default slog logger
func setupLogger(cfg config.LogConfig, w io.Writer) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
