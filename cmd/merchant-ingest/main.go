// Command merchant-ingest bulk-imports merchant accounts from gzipped CSV
// exports (email,api_key,api_secret per line). An API key must belong to
// exactly one merchant, so keys that appear in more than one export file are
// treated as conflicting and skipped. Conflict detection uses one bloom
// filter per file so the key sets never have to fit in memory exactly.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/paygate-challenge/internal/api"
	"github.com/xenking/paygate-challenge/internal/domain/merchant"
	"github.com/xenking/paygate-challenge/internal/domain/order"
	"github.com/xenking/paygate-challenge/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type record struct {
	email  string
	apiKey string
	secret string
}

func main() {
	var (
		dataDir      string
		databaseURL  string
		secretPepper string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz merchant exports")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&secretPepper, "secret-pepper", "", "HMAC pepper for secret hashing (or PAYGATE_SECRET_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if secretPepper == "" {
		secretPepper = os.Getenv("PAYGATE_SECRET_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, secretPepper); err != nil {
		slog.Error("merchant ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("merchant ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, pepper string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.csv.gz files in %s", dataDir)
	}

	// Pass 1: one bloom filter of API keys per file, built concurrently.
	slog.Info("pass 1: building key filters", slog.Int("files", len(files)))

	filters, err := buildKeyFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build key filters")
	}

	// Pass 2: re-stream each file, skipping keys present in another file's
	// filter.
	slog.Info("pass 2: collecting unambiguous merchants")

	merchants, skipped, err := collectMerchants(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "collect merchants")
	}

	slog.Info("merchants collected",
		slog.Int("count", len(merchants)),
		slog.Int("conflicting", skipped),
	)

	if len(merchants) == 0 {
		slog.Info("nothing to import")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeMerchants(ctx, repository.NewMerchantRepository(pool), merchants, pepper)
}

func buildKeyFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamCSVFile(ctx, path, func(rec record) {
			filter.AddString(rec.apiKey)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("records", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for %s", path)
		}

		slog.Info("pass 1 complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("total_records", count),
		)

		filters[idx] = filter
		return nil
	}
}

// collectMerchants keeps records whose API key appears in no other file's
// filter. Within a single file, a repeated key keeps the last record, same as
// the email upsert does.
func collectMerchants(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]record, int, error) {
	var (
		kept    []record
		skipped int
	)

	for i, path := range files {
		var count uint64

		err := streamCSVFile(ctx, path, func(rec record) {
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("records", count),
				)
			}

			for j, f := range filters {
				if j == i {
					continue
				}
				if f.TestString(rec.apiKey) {
					skipped++
					return
				}
			}
			kept = append(kept, rec)
		})
		if err != nil {
			return nil, 0, errors.Wrapf(err, "scan %s", path)
		}
	}

	return kept, skipped, nil
}

// streamCSVFile opens a gzip-compressed CSV file and calls fn for each
// well-formed row. Short or empty rows are skipped.
func streamCSVFile(ctx context.Context, path string, fn func(record)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = -1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if len(row) < 3 || row[0] == "" || row[1] == "" {
			continue
		}

		fn(record{email: row[0], apiKey: row[1], secret: row[2]})
	}
}

func writeMerchants(ctx context.Context, repo *repository.MerchantRepository, records []record, pepper string) error {
	slog.Info("writing merchants to database", slog.Int("count", len(records)))

	for i, rec := range records {
		m := &merchant.Merchant{
			ID:         order.NewID("merchant_"),
			Email:      rec.email,
			APIKey:     rec.apiKey,
			SecretHash: api.SecretHash([]byte(pepper), rec.secret),
		}
		if err := repo.Upsert(ctx, m); err != nil {
			return errors.Wrapf(err, "upsert merchant %s", rec.email)
		}

		if (i+1)%100 == 0 || i+1 == len(records) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(records)))
		}
	}

	return nil
}
