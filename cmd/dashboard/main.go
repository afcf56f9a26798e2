package main

import (
	"context"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"latency-dashboard/internal/config"
	"latency-dashboard/internal/database"
	"latency-dashboard/internal/geo"
	"latency-dashboard/internal/logger"
	"latency-dashboard/internal/metrics"
	"latency-dashboard/internal/models"
	"latency-dashboard/internal/monitor"
	"latency-dashboard/internal/ping"
	"latency-dashboard/internal/report"
	"latency-dashboard/internal/web"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "latency-dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.New(cfg.Database.Path,
		database.WithDefaultSettings(defaultSettings(cfg)),
		database.WithLogger(log.Named("database")))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	pinger, err := ping.New(cfg.Probe.Mode, cfg.Probe.TCPPorts, log)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
	}

	mon := monitor.New(pinger, db, db, monitor.Options{
		Interval:            cfg.Probe.Interval,
		Timeout:             cfg.Probe.Timeout,
		MaxSamples:          cfg.Probe.MaxSamples,
		RetentionDays:       cfg.Database.RetentionDays,
		MaintenanceInterval: cfg.Database.MaintenanceInterval,
	}, log.Named("monitor"), collector)
	if err := mon.Start(); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	locator := geo.NewLocator(cfg.Map.GeoIPDatabase, log.Named("geo"))
	defer locator.Close()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}

	server := web.New(web.Deps{
		Store:   db,
		Engine:  mon,
		Pinger:  pinger,
		Reports: report.NewGenerator(db, log.Named("report")),
		Locator: locator,
		Metrics: collector,
		Logger:  log.Named("web"),
		Static:  static,
	}, web.Options{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MapDir:       cfg.Map.OutputDir,
		ReportDir:    cfg.Storage.Path,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()
	log.Info("dashboard available", zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-serveErr:
		if err != nil {
			log.Error("web server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		log.Warn("web server shutdown", zap.Error(serr))
	}

	mon.Stop()
	mon.Wait()
	return err
}

// defaultSettings seeds user settings from the probe configuration
func defaultSettings(cfg *config.Config) models.Settings {
	s := models.DefaultSettings(cfg.Storage.Path)
	if cfg.Probe.DefaultSamples > 0 {
		s.DefaultPings = cfg.Probe.DefaultSamples
	}
	if secs := int(cfg.Probe.Timeout / time.Second); secs > 0 {
		s.PingTimeout = secs
	}
	return s
}
