// Package bootstrap builds the shared runtime pieces used by both binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/config"
	"github.com/aman7661/sumitTradingCompany/internal/database"
	"github.com/aman7661/sumitTradingCompany/internal/payment"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/aman7661/sumitTradingCompany/internal/repository/memory"
	"github.com/aman7661/sumitTradingCompany/internal/repository/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redisSequencePrefix = "stc:seq:"

// NewLogger returns a development logger for APP_ENV=development and a
// production JSON logger otherwise, at LOG_LEVEL.
func NewLogger(cfg config.StoreConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// OpenStore connects the configured backend. The returned cleanup closes
// every connection that was opened.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*repository.Store, func(), error) {
	var (
		store    *repository.Store
		closers  []func() error
		teardown = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				if err := closers[i](); err != nil {
					logger.Warn("failed to close connection", zap.Error(err))
				}
			}
		}
	)

	// 1. --- Primary store ---
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := database.OpenDB(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		if err := database.Migrate(ctx, db); err != nil {
			teardown()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		store = mysql.NewStore(db)
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	// 2. --- Optional Redis order-number sequence ---
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			teardown()
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		closers = append(closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			teardown()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store.Sequences = repository.NewRedisSequence(client, redisSequencePrefix)
		logger.Info("order numbers allocated from redis", zap.String("addr", opts.Addr))
	}

	return store, teardown, nil
}

// NewPaymentProvider builds the configured payment provider. Unknown
// provider names are an error; nothing falls back to the test provider.
func NewPaymentProvider(cfg *config.Config, logger *zap.Logger) (payment.Provider, error) {
	switch cfg.PaymentProvider {
	case config.ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("stripe provider needs STRIPE_SECRET_KEY")
		}
		return payment.NewStripeProvider(cfg.StripeSecretKey), nil
	case config.ProviderTest:
		logger.Warn("test payment provider enabled, card orders are marked paid without a gateway",
			zap.String("app_env", cfg.AppEnv),
			zap.Bool("allow_test_payments", cfg.AllowTestPayments))
		return payment.NewTestProvider(), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
	}
}
