package app

import (
	"os"
	"strconv"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/paygate-challenge/internal/settlement"
)

// Config holds the complete application configuration, loadable from
// environment variables (PAYGATE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8000" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (PAYGATE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SecretPepper string `usage:"HMAC pepper for merchant secret hashing (PAYGATE_SECRET_PEPPER)" flag:"secret-pepper"`
	Settlement   SettlementConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SettlementConfig is the deterministic-test surface of the settlement
// simulator. Forced values only take effect when TestMode is on.
type SettlementConfig struct {
	TestMode bool `default:"false" env:"TEST_MODE" usage:"Enable forced settlement outcomes" flag:"test-mode"`
	// ForcedDelay overrides the random settlement delay. Negative means not
	// forced.
	ForcedDelay time.Duration `default:"-1ms" env:"FORCED_DELAY" usage:"Forced settlement delay (test mode only)" flag:"forced-delay"`
	// ForcedOutcome is "true" or "false" to force the settlement verdict.
	// Empty means not forced.
	ForcedOutcome string `default:"" env:"FORCED_OUTCOME" usage:"Forced settlement outcome, true or false (test mode only)" flag:"forced-outcome"`
}

// Simulator translates the external representation into settlement.Config.
func (c SettlementConfig) Simulator() settlement.Config {
	cfg := settlement.Config{TestMode: c.TestMode}
	if c.ForcedDelay >= 0 {
		d := c.ForcedDelay
		cfg.ForcedDelay = &d
	}
	if c.ForcedOutcome != "" {
		b := c.ForcedOutcome == "true"
		cfg.ForcedOutcome = &b
	}
	return cfg
}

// RateLimitConfig controls the per-client fixed window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing. ShutdownTimeout must
// exceed the maximum settlement delay or in-flight payment requests are cut
// off after their terminal state is already persisted.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PAYGATE",
		Files:     []string{"config.yaml", "/etc/paygate/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set PAYGATE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's PAYGATE_-prefixed configuration. The unprefixed TEST_MODE
// family used by deployment scripts is honored the same way.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8000" {
		c.Addr = "0.0.0.0:" + port
	}
	if os.Getenv("TEST_MODE") == "true" {
		c.Settlement.TestMode = true
	}
	if v := os.Getenv("TEST_PROCESSING_DELAY"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Settlement.ForcedDelay = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("TEST_PAYMENT_SUCCESS"); v != "" {
		c.Settlement.ForcedOutcome = v
	}
}
