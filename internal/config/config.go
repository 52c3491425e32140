package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// StoreConfig selects and locates the persistence backends. The seed tool
// loads only this part.
type StoreConfig struct {
	AppEnv   string `envconfig:"APP_ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mysql"`
	DatabaseDSN string `envconfig:"DB_DSN_PRIMARY"`
	RedisURL    string `envconfig:"REDIS_URL"`
}

type Config struct {
	StoreConfig

	Port string `envconfig:"PORT" default:"8080"`

	// Auth
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"72h"`
	FrontendURL string        `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`

	// Payments
	PaymentProvider string `envconfig:"PAYMENT_PROVIDER" default:"stripe"`
	StripeSecretKey string `envconfig:"STRIPE_SECRET_KEY"`
	PaymentCurrency string `envconfig:"PAYMENT_CURRENCY" default:"inr"`

	// AllowTestPayments opts a production deployment into the test provider.
	AllowTestPayments bool `envconfig:"ALLOW_TEST_PAYMENTS" default:"false"`

	// Events
	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string   `envconfig:"KAFKA_ORDER_TOPIC" default:"orders"`

	// Orders
	OrderNumberPrefix   string          `envconfig:"ORDER_NUMBER_PREFIX" default:"STC"`
	OrderTransitions    string          `envconfig:"ORDER_TRANSITIONS" default:"strict"`
	OrderTotalTolerance decimal.Decimal `envconfig:"ORDER_TOTAL_TOLERANCE" default:"0.01"`

	// Uploads
	UploadDir string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	BaseURL   string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// Background low-stock scan; zero disables it.
	LowStockScanInterval time.Duration `envconfig:"LOW_STOCK_SCAN_INTERVAL" default:"1h"`
}

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"

	ProviderStripe = "stripe"
	ProviderTest   = "test"

	TransitionsStrict     = "strict"
	TransitionsPermissive = "permissive"
)

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadStore reads only the storage settings.
func LoadStore() (*StoreConfig, error) {
	var cfg StoreConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *StoreConfig) Validate() error {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.StoreDriver = strings.ToLower(c.StoreDriver)

	switch c.StoreDriver {
	case DriverMySQL:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("config: DB_DSN_PRIMARY is required when STORE_DRIVER=%s", DriverMySQL)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// IsDevelopment reports whether APP_ENV selects the development profile.
func (c *StoreConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction reports whether APP_ENV is production, the default.
func (c *StoreConfig) IsProduction() bool {
	return c.AppEnv == "" || c.AppEnv == "production"
}

// Validate rejects unknown enum values and incomplete driver settings.
func (c *Config) Validate() error {
	if err := c.StoreConfig.Validate(); err != nil {
		return err
	}
	c.PaymentProvider = strings.ToLower(c.PaymentProvider)
	c.OrderTransitions = strings.ToLower(c.OrderTransitions)

	switch c.PaymentProvider {
	case ProviderStripe:
		if c.StripeSecretKey == "" {
			return fmt.Errorf("config: STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=%s", ProviderStripe)
		}
	case ProviderTest:
		if c.IsProduction() && !c.AllowTestPayments {
			return fmt.Errorf("config: PAYMENT_PROVIDER=%s is refused in production unless ALLOW_TEST_PAYMENTS=true", ProviderTest)
		}
	default:
		return fmt.Errorf("config: unknown PAYMENT_PROVIDER %q", c.PaymentProvider)
	}

	switch c.OrderTransitions {
	case TransitionsStrict, TransitionsPermissive:
	default:
		return fmt.Errorf("config: unknown ORDER_TRANSITIONS %q", c.OrderTransitions)
	}

	if c.OrderTotalTolerance.IsNegative() {
		return fmt.Errorf("config: ORDER_TOTAL_TOLERANCE must not be negative")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	return nil
}

// TestPayments reports whether the synthetic payment provider is selected.
func (c *Config) TestPayments() bool {
	return c.PaymentProvider == ProviderTest
}
