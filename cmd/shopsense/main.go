package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aruiz/shopsense/internal/catalog"
	"github.com/aruiz/shopsense/internal/compare"
	"github.com/aruiz/shopsense/internal/config"
	"github.com/aruiz/shopsense/internal/event"
	"github.com/aruiz/shopsense/internal/server"
	"github.com/aruiz/shopsense/internal/services"
	"github.com/aruiz/shopsense/internal/settings"
	"github.com/aruiz/shopsense/internal/store"
	"github.com/aruiz/shopsense/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "backup":
			runBackup(os.Args[2:])
			return
		case "restore":
			runRestore(os.Args[2:])
			return
		case "serve":
			runServe(os.Args[2:])
			return
		}
	}
	runServe(os.Args[1:])
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("ShopSense server starting", zap.String("version", version.Short()))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	st, err := store.New(cfg.GetString("store.path"))
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	bus := event.NewBus(logger)
	bus.SubscribeAll(func(_ context.Context, e event.Event) {
		logger.Debug("event published",
			zap.String("topic", e.Topic),
			zap.String("source", e.Source),
		)
	})

	ctx := context.Background()

	products, err := services.NewSQLiteProductRepository(ctx, st, bus)
	if err != nil {
		logger.Fatal("failed to initialize product repository", zap.Error(err))
	}
	settingsRepo, err := services.NewSQLiteSettingsRepository(ctx, st)
	if err != nil {
		logger.Fatal("failed to initialize settings repository", zap.Error(err))
	}

	if cfg.GetBool("catalog.seed") {
		if err := catalog.Seed(ctx, products, logger); err != nil {
			logger.Fatal("failed to seed catalog", zap.Error(err))
		}
	}

	baseOpts := compareOptions(cfg)
	resolver := settings.NewResolver(settingsRepo, baseOpts, logger)

	compareHandler := compare.NewHandler(products, resolver.Options, func(err error) bool {
		return errors.Is(err, services.ErrNotFound)
	}, logger)

	addr := cfg.GetString("server.host") + ":" + cfg.GetString("server.port")
	srv := server.New(addr, logger, cfg.GetInt("server.rate_limit"),
		catalog.NewHandler(products, logger),
		compareHandler,
		settings.NewHandler(resolver, logger),
	)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("ShopSense server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("ShopSense server stopped")
}

// compareOptions builds the static comparison defaults from config.
// Stored setting overrides are layered on top per request.
func compareOptions(cfg *config.Config) compare.Options {
	opts := compare.DefaultOptions()
	if v := cfg.GetFloat64("compare.price_band_min"); v > 0 {
		opts.Band.Min = v
	}
	if v := cfg.GetFloat64("compare.price_band_max"); v > 0 {
		opts.Band.Max = v
	}
	if v := cfg.GetFloat64("compare.damping"); v > 0 {
		opts.Damping = v
	}
	if v := cfg.GetInt("compare.limit"); v > 0 {
		opts.Limit = v
	}
	opts.Disadvantages = cfg.GetBool("compare.disadvantages")
	return opts
}
