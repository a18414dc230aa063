// Command rates-ingest bulk-loads operator shipping rates from CSV files
// into the shipping_rates table. Files may be plain or gzip-compressed;
// each row is: country,cost,currency,delivery_days[,active]. Rows without
// an active column default to active.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/glowcart/checkout-api/internal/domain/shipping"
	"github.com/glowcart/checkout-api/internal/storage/postgres"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("usage: rates-ingest [flags] <rates.csv[.gz]> ...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args()); err != nil {
		slog.Error("rates ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("rates ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewRateRepository(pool)

	var written atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			n, err := ingestFile(ctx, repo, path)
			if err != nil {
				return errors.Wrapf(err, "ingest %s", path)
			}
			written.Add(n)
			slog.Info("file ingested", slog.String("file", path), slog.Int64("rates", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("all files ingested", slog.Int64("total_rates", written.Load()))
	return nil
}

func ingestFile(ctx context.Context, repo *postgres.RateRepository, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return 0, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	var written int64
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, errors.Wrapf(err, "read line %d", line)
		}
		if line == 1 && strings.EqualFold(row[0], "country") {
			// Header row.
			continue
		}

		rate, err := parseRow(row)
		if err != nil {
			return written, errors.Wrapf(err, "parse line %d", line)
		}
		if err := repo.Upsert(ctx, rate); err != nil {
			return written, errors.Wrapf(err, "upsert rate for %q", rate.Country)
		}
		written++
	}
}

func parseRow(row []string) (shipping.Rate, error) {
	if len(row) < 4 {
		return shipping.Rate{}, errors.Errorf("expected at least 4 columns, got %d", len(row))
	}

	cost, err := decimal.NewFromString(strings.TrimSpace(row[1]))
	if err != nil {
		return shipping.Rate{}, errors.Wrap(err, "parse cost")
	}
	if cost.IsNegative() {
		return shipping.Rate{}, errors.New("cost must not be negative")
	}
	days, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return shipping.Rate{}, errors.Wrap(err, "parse delivery days")
	}

	active := true
	if len(row) > 4 {
		active, err = strconv.ParseBool(strings.TrimSpace(row[4]))
		if err != nil {
			return shipping.Rate{}, errors.Wrap(err, "parse active")
		}
	}

	return shipping.Rate{
		Country:               strings.TrimSpace(row[0]),
		Cost:                  cost,
		Currency:              strings.ToUpper(strings.TrimSpace(row[2])),
		EstimatedDeliveryDays: days,
		Active:                active,
	}, nil
}
