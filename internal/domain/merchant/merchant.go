// Package merchant holds the merchant identity consumed by authentication
// and the dashboard rollup contract.
package merchant

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no merchant matches the given credentials or
// identifier.
var ErrNotFound = errors.New("merchant not found")

// Merchant is a registered account that can create orders and view its
// payment dashboard.
type Merchant struct {
	ID         string
	Email      string
	APIKey     string
	SecretHash string
	CreatedAt  time.Time
}

// Repository provides merchant lookups for authentication and tooling.
type Repository interface {
	// FindByAPIKey returns the merchant owning the given API key, or
	// ErrNotFound.
	FindByAPIKey(ctx context.Context, apiKey string) (*Merchant, error)
	// FindByEmail returns the merchant registered under the given email, or
	// ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Merchant, error)
}
