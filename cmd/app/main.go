package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	cookingtimer "github.com/wichananm65/cooking-timer"
	"github.com/wichananm65/cooking-timer/internal/assets"
	"github.com/wichananm65/cooking-timer/internal/config"
	"github.com/wichananm65/cooking-timer/internal/page"
	"github.com/wichananm65/cooking-timer/internal/server"
)

func main() {
	setupLogger(true)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("cooktimer exited abnormally")
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:           "cooktimer",
		Short:         "serve the cooking timer page",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), &cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			// restore default handling after the first signal so a second one kills the process
			context.AfterFunc(ctx, stop)
			return run(ctx, cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&envFile, "env-file", config.DefaultEnvFile, "optional env file loaded before reading the environment")
	fl.String("addr", config.DefaultAddr, "listen address")
	fl.Bool("dev", true, "development mode: console logs and template reload on change")
	fl.String("templates", config.DefaultTemplateDir, "template directory, embedded copy used when missing")
	fl.String("static", config.DefaultStaticDir, "static directory, embedded copy used when missing")
	return cmd
}

// applyFlags overrides environment values with flags given explicitly.
func applyFlags(fl *pflag.FlagSet, cfg *config.Config) {
	if fl.Changed("addr") {
		cfg.Addr, _ = fl.GetString("addr")
	}
	if fl.Changed("dev") {
		cfg.Dev, _ = fl.GetBool("dev")
	}
	if fl.Changed("templates") {
		cfg.TemplateDir, _ = fl.GetString("templates")
	}
	if fl.Changed("static") {
		cfg.StaticDir, _ = fl.GetString("static")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	setupLogger(cfg.Dev)
	log.Info().
		Bool("dev", cfg.Dev).
		Bool("firebase_api_key_set", cfg.FirebaseAPIKey != nil).
		Msg("config loaded")

	templates, err := assets.Open(cfg.TemplateDir, cookingtimer.Assets, "templates")
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	static, err := assets.Open(cfg.StaticDir, cookingtimer.Assets, "static")
	if err != nil {
		return fmt.Errorf("static: %w", err)
	}
	log.Debug().
		Bool("templates_on_disk", templates.OnDisk).
		Bool("static_on_disk", static.OnDisk).
		Msg("assets opened")

	renderer, err := page.NewRenderer(templates.Fs, page.IndexName)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.Dev && templates.OnDisk {
		w, err := page.NewWatcher(templates.Dir, renderer)
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	app := server.New(cfg, page.NewHandler(renderer, page.NewIndexData(cfg)), static.HTTP())
	g.Go(func() error { return server.Run(ctx, app, cfg.Addr) })
	return g.Wait()
}

func setupLogger(dev bool) {
	if dev {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().
			Timestamp().
			Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
