package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/reusedev/sketch-relay/config"
	"github.com/reusedev/sketch-relay/internal/inject"
	"github.com/reusedev/sketch-relay/internal/modules/logs"
	"github.com/reusedev/sketch-relay/internal/service/http"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	httpPort   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:          "sketch-relay",
	Short:        "Turn jewelry sketches into photographs through Replicate",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&httpPort, "http-port", "", "listen http address, overrides server.addr")
	rootCmd.Flags().StringVar(&configPath, "config", "config.yml", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpPort != "" {
		cfg.Server.Addr = httpPort
	}
	logs.InitLogger(cfg.Log)
	banner(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := inject.Setup(cfg)
	server, err := do.Invoke[*http.Server](injector)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx)
	})
	err = g.Wait()
	if shutdownErr := injector.Shutdown(); shutdownErr != nil {
		logs.Logger.Warn().Err(shutdownErr).Msg("injector shutdown")
	}
	return err
}

func banner(cfg *config.Config) {
	if !cfg.APIConfigured() {
		logs.Logger.Warn().Msgf("%s is not set, generation requests will fail", config.EnvReplicateToken)
	}
	logs.Logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("model", cfg.Replicate.Model).
		Strs("allowed_origins", cfg.AllowedOrigins()).
		Msg("starting sketch relay")
}

