package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/npezzotti/go-interview/internal/api"
	"github.com/npezzotti/go-interview/internal/config"
	"github.com/npezzotti/go-interview/internal/database"
	"github.com/npezzotti/go-interview/internal/interview"
	"github.com/npezzotti/go-interview/internal/logging"
	"github.com/npezzotti/go-interview/internal/server"
	"github.com/npezzotti/go-interview/internal/stats"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger := logging.New(os.Stderr, "info", false)
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	if cfg.Migrate {
		if !database.IsPostgres(cfg.DatabaseDSN) {
			logger.Warn().Msg("migrations only apply to postgres, skipping")
		} else if err := database.Migrate(cfg.DatabaseDSN); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	repo, err := database.Open(openCtx, cfg.DatabaseDSN, cfg.MongoDatabase)
	cancelOpen()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("db close")
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	recorder := interview.NewRecorder(repo, logger, statsUpdater, interview.RecorderConfig{
		QueueSize:    cfg.AuditQueueSize,
		Workers:      cfg.AuditWorkers,
		WriteTimeout: cfg.AuditWriteTimeout,
	})

	signalServer := server.NewSignalServer(logger, statsUpdater, recorder, cfg.RoomCapacity)

	srv := api.NewInterviewApp(mux, logger, signalServer, repo, recorder, statsUpdater, cfg)

	statsUpdater.Run()
	recorder.Start()
	go signalServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("received signal")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown")
	}

	logger.Info().Msg("shutting down signal server...")
	if err := signalServer.Shutdown(shutDownCtx); err != nil {
		logger.Error().Err(err).Msg("signal server shutdown")
	}

	logger.Info().Msg("draining audit queue...")
	if err := recorder.Stop(shutDownCtx); err != nil {
		logger.Error().Err(err).Msg("recorder shutdown")
	}

	// audit workers still running after a timed out drain may report
	// failures, which stats drops once stopped
	statsUpdater.Stop()

	logger.Info().Msg("shutdown complete")
	return serveErr
}
