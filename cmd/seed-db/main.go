// Command seed-db prepares a database for local development and tests: it
// runs migrations and upserts the well-known test merchant returned by
// GET /api/v1/test/merchant.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/paygate-challenge/internal/api"
	"github.com/xenking/paygate-challenge/internal/domain/merchant"
	"github.com/xenking/paygate-challenge/internal/domain/order"
	"github.com/xenking/paygate-challenge/internal/repository"
)

func main() {
	var (
		databaseURL  string
		email        string
		apiKey       string
		apiSecret    string
		secretPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&email, "email", "test@example.com", "merchant email to seed")
	flag.StringVar(&apiKey, "api-key", "", "merchant API key to seed (or PAYGATE_SEED_API_KEY env)")
	flag.StringVar(&apiSecret, "api-secret", "", "merchant API secret to seed (or PAYGATE_SEED_API_SECRET env)")
	flag.StringVar(&secretPepper, "secret-pepper", "", "HMAC pepper for secret hashing (or PAYGATE_SECRET_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PAYGATE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PAYGATE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiSecret == "" {
		apiSecret = os.Getenv("PAYGATE_SEED_API_SECRET")
	}
	if apiSecret == "" {
		slog.Error("API secret is required: set --api-secret or PAYGATE_SEED_API_SECRET")
		os.Exit(1)
	}
	if secretPepper == "" {
		secretPepper = os.Getenv("PAYGATE_SECRET_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, email, apiKey, apiSecret, secretPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, email, apiKey, apiSecret, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	merchants := repository.NewMerchantRepository(pool)

	m := &merchant.Merchant{
		ID:         order.NewID("merchant_"),
		Email:      email,
		APIKey:     apiKey,
		SecretHash: api.SecretHash([]byte(pepper), apiSecret),
	}
	if err := merchants.Upsert(ctx, m); err != nil {
		return errors.Wrap(err, "seed merchant")
	}

	slog.Info("upserted merchant", slog.String("email", email), slog.String("api_key", apiKey))

	return nil
}
