package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/subtrack/subtrack/internal/config"
	"github.com/subtrack/subtrack/internal/export"
	applog "github.com/subtrack/subtrack/internal/log"
	"github.com/subtrack/subtrack/internal/repository"
	"github.com/subtrack/subtrack/internal/service"
)

type Params struct {
	Months int    `descr:"How many recent months to report, current month first" default:"6"`
	Format string `descr:"Output format" alts:"table,json,xlsx" strict:"true" default:"table"`
	Out    string `descr:"Output file path, stdout when empty" default:""`
}

func main() {
	boa.NewCmdT[Params]("subtrack-report").
		WithShort("Print the monthly revenue report").
		WithLong("Aggregates recorded payments into per-month revenue totals per currency, "+
			"with a VND-converted column, and renders them as a table, JSON, or an xlsx workbook.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(params *Params) error {
	format, err := export.ParseFormat(params.Format)
	if err != nil {
		return err
	}
	if params.Months <= 0 {
		return fmt.Errorf("months must be positive, got %d", params.Months)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := applog.New(applog.Config{Level: "error", Format: "text"})

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	customerRepo := repository.NewCustomerRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subscriptionService := service.NewSubscriptionService(customerRepo, paymentRepo, nil, nil, cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := subscriptionService.MonthlyReport(ctx, params.Months)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	out, closeOut, err := openOutput(params.Out)
	if err != nil {
		return err
	}
	defer closeOut()

	return export.Write(out, format, rows)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
