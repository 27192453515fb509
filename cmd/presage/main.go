package main

//	@title			Presage API
//	@version		0.1.0
//	@description	Predictive alerting pipeline API.
//	@BasePath		/api/v1

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HerbHall/presage/internal/beacon"
	"github.com/HerbHall/presage/internal/config"
	"github.com/HerbHall/presage/internal/event"
	"github.com/HerbHall/presage/internal/insight"
	"github.com/HerbHall/presage/internal/registry"
	"github.com/HerbHall/presage/internal/seed"
	"github.com/HerbHall/presage/internal/seer"
	"github.com/HerbHall/presage/internal/server"
	"github.com/HerbHall/presage/internal/store"
	"github.com/HerbHall/presage/internal/tally"
	"github.com/HerbHall/presage/internal/version"
	"github.com/HerbHall/presage/internal/weave"
	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(version.Info())
		return
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Presage server starting", zap.String("version", version.Short()))

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	dbPath := viperCfg.GetString("database.path")
	if dbPath == "" {
		dbPath = "presage.db"
	}
	db, err := store.New(dbPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(bus, logger.Named("registry"))

	devMode := viperCfg.GetBool("server.dev_mode")

	// Construct modules and wire cross-module capabilities at the
	// composition root so the modules stay decoupled.
	beaconMod := beacon.New()
	weaveMod := weave.New()
	seerMod := seer.New()
	tallyMod := tally.New()
	insightMod := insight.New()

	beaconMod.SetVerifier(tallyMod)
	seerMod.SetBatchSource(weaveMod)
	seerMod.SetRecorder(beaconMod)
	seerMod.SetLedger(tallyMod)
	insightMod.SetHistorySource(beaconMod)

	modules := []plugin.Plugin{beaconMod, weaveMod, seerMod, tallyMod, insightMod}
	if devMode {
		seedMod := seed.New()
		seedMod.SetSink(beaconMod)
		modules = append(modules, seedMod)
		logger.Info("dev mode: test data generation enabled", zap.String("component", "seed"))
	}

	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	if err := reg.Validate(); err != nil {
		logger.Fatal("plugin validation failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.Sub("plugins." + name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Plugins: reg,
		}
	}); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	if addr == ":" {
		addr = "0.0.0.0:8080"
	}
	readyCheck := server.ReadinessChecker(func(ctx context.Context) error {
		return db.DB().PingContext(ctx)
	})
	srv := server.New(addr, reg, logger, readyCheck)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Presage server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	reg.StopAll(shutdownCtx)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Presage server stopped")
}
