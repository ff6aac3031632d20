package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/energyflow/app"
	"github.com/kilianp07/energyflow/config"
	coremon "github.com/kilianp07/energyflow/core/monitoring"
	"github.com/kilianp07/energyflow/infra/backend"
	"github.com/kilianp07/energyflow/infra/logger"
	"github.com/kilianp07/energyflow/infra/monitoring"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "energyflow",
	Short:         "Home energy flow service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the backend and serve the flow API until interrupted",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration and applies its logging section.
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	closer, err := logger.Setup(cfg.Logging.Options())
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}
	return cfg, closer, nil
}

func newClient(cfg *config.Config) (*backend.Client, error) {
	c, err := backend.NewClient(cfg.Backend.Options())
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	return c, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logCloser, err := loadConfig()
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log := logger.New("main")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
