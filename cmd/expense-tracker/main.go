package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
)

// finalSaveTimeout bounds the last ledger write after the server has drained.
const finalSaveTimeout = 5 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	l, cleanup, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open ledger", err, "backend", cfg.DataBackend)
	}

	srv := apphttp.NewServer(":"+cfg.Port, l, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"expenses", l.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, l, logger, cfg.ShutdownTimeout)
	})

	err = g.Wait()
	if cerr := cleanup(); cerr != nil {
		logger.Error("Failed to close store", log.FieldError, cerr)
	}
	if err != nil {
		stop()
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// shutdown drains the server within timeout and then writes the ledger one
// last time under its own deadline.
func shutdown(srv *apphttp.Server, l *ledger.Ledger, logger *log.Logger, timeout time.Duration) error {
	logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	saveCtx, cancelSave := context.WithTimeout(context.Background(), finalSaveTimeout)
	defer cancelSave()
	if saveErr := l.Save(saveCtx); saveErr != nil {
		logger.Error("Final save failed", log.FieldOperation, log.OpSave, log.FieldError, saveErr)
	}
	return err
}
