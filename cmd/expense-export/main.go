// Command expense-export writes the stored ledger as CSV.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
	"expensetracker/internal/log"
)

var errNothingToExport = errors.New("no expenses to export")

type options struct {
	output   string
	currency string
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "o", "", `output file or directory; empty or "-" writes to stdout`)
	flag.StringVar(&opts.currency, "currency", "", "only export expenses in this currency")
	flag.Parse()

	cli.LoadEnvFile()

	// stdout may carry the CSV, so logs go to stderr
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := cli.SetupLoggerTo(os.Stderr, level).WithComponent(log.ComponentExport)

	cfg := cli.LoadAndValidateConfig(logger)

	ledger, cleanup, err := cli.OpenLedger(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open ledger", err, "backend", cfg.DataBackend)
	}

	err = run(ledger.All(), cleanup, opts, os.Stdout, logger)
	switch {
	case errors.Is(err, errNothingToExport):
		logger.Warn("No expenses to export.", "currency", opts.currency)
		os.Exit(1)
	case err != nil:
		cli.Fatal(logger, "Export failed", err)
	}
}

// run filters and writes the records, closing the store before it returns
// on every path.
func run(records []core.Expense, closeStore backend.CleanupFunc, opts options, stdout io.Writer, logger *log.Logger) error {
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}()

	if opts.currency != "" {
		c, err := core.ParseCurrency(opts.currency)
		if err != nil {
			return fmt.Errorf("currency filter %q: %w", opts.currency, err)
		}
		records = aggregate.FilterByCurrency(records, c)
	}
	if len(records) == 0 {
		return errNothingToExport
	}

	dest := "stdout"
	if opts.output != "" && opts.output != "-" {
		dest = opts.output
		if info, err := os.Stat(dest); err == nil && info.IsDir() {
			dest = filepath.Join(dest, export.Filename(time.Now()))
		}
		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("create %s: %w", dest, err)
		}
		defer f.Close()
		if err := export.WriteCSV(f, records); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", dest, err)
		}
	} else if err := export.WriteCSV(stdout, records); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}

	logger.Info("Expenses exported", log.FieldCount, len(records), "destination", dest)
	return nil
}
