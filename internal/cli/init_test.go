package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
)

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
}

func TestSetupLoggerLevel(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	logger := SetupLogger("debug")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("expected debug level to be enabled")
	}
	logger = SetupLogger("nonsense")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("unknown level should fall back to info")
	}
}

func TestOpenLedgerReloadsSavedData(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DataBackend: "file",
		DataDir:     t.TempDir(),
		StorageKey:  "expenseTrackerData",
		Categories:  []string{"Food"},
	}

	l, cleanup, err := OpenLedger(ctx, quietLogger(), cfg)
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	if _, err := l.Add(ctx, ledger.Draft{Name: "Coffee", Amount: 4.5, Currency: core.USD, Category: "Food"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	cleanup()

	reopened, cleanup, err := OpenLedger(ctx, quietLogger(), cfg)
	if err != nil {
		t.Fatalf("OpenLedger() error = %v", err)
	}
	defer cleanup()
	if reopened.Len() != 1 {
		t.Fatalf("expected 1 expense after reopen, got %d", reopened.Len())
	}
	if got := reopened.Categories(); len(got) != 1 || got[0] != "Food" {
		t.Errorf("categories not applied: %v", got)
	}
}

func TestOpenLedgerInvalidBackend(t *testing.T) {
	_, _, err := OpenLedger(context.Background(), quietLogger(), &config.Config{DataBackend: "sheets"})
	if err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
