package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcengine/currency/internal/api"
	"github.com/mcengine/currency/internal/config"
	"github.com/mcengine/currency/internal/infra/dbmigrate"
	"github.com/mcengine/currency/internal/infra/logging"
	"github.com/mcengine/currency/internal/infra/sqlutils"
	"github.com/mcengine/currency/internal/services/ledger"
	"github.com/mcengine/currency/pkg/envconf"
	"github.com/mcengine/currency/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	backend, err := config.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return fmt.Errorf("storage backend: %w", err)
	}

	// --- Infra ---
	dbConns, err := sqlutils.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close database")

		return dbConns.Close()
	})

	// Schema creation is idempotent; running it on every startup matches
	// the plugin's initDB behavior.
	err = dbmigrate.Run(dbConns, backend)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	ledgerSrv, err := ledger.New(dbConns, backend)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, ledgerSrv)

	// Register HTTP server graceful shutdown
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("Currency API started", "backend", string(backend), "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
