package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aman7661/sumitTradingCompany/internal/config"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.StoreConfig{AppEnv: "development", LogLevel: "debug"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.StoreConfig{AppEnv: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger(config.StoreConfig{LogLevel: "chatty"})
	assert.Error(t, err)
}

func TestOpenMemoryStore(t *testing.T) {
	store, cleanup, err := OpenStore(context.Background(), config.StoreConfig{StoreDriver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &repository.MemorySequence{}, store.Sequences)
}

func TestOpenStoreWithRedisSequence(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.StoreConfig{StoreDriver: config.DriverMemory, RedisURL: "redis://" + mr.Addr() + "/0"}

	store, cleanup, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	n, err := store.Sequences.Next(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err := mr.Get(redisSequencePrefix + "orders")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestOpenStoreErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := OpenStore(ctx, config.StoreConfig{StoreDriver: "mongo"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")

	_, _, err = OpenStore(ctx, config.StoreConfig{StoreDriver: config.DriverMemory, RedisURL: "http://nope"}, zap.NewNop())
	assert.ErrorContains(t, err, "invalid REDIS_URL")

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()
	_, _, err = OpenStore(ctx, config.StoreConfig{StoreDriver: config.DriverMemory, RedisURL: "redis://" + addr}, zap.NewNop())
	assert.ErrorContains(t, err, "failed to connect to redis")
}

func TestNewPaymentProvider(t *testing.T) {
	logger := zap.NewNop()

	stripe, err := NewPaymentProvider(&config.Config{PaymentProvider: config.ProviderStripe, StripeSecretKey: "sk_test_123"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "stripe", stripe.Name())
	assert.False(t, stripe.IsTest())

	test, err := NewPaymentProvider(&config.Config{PaymentProvider: config.ProviderTest}, logger)
	require.NoError(t, err)
	assert.True(t, test.IsTest())

	for _, name := range []string{"", "paypal"} {
		_, err = NewPaymentProvider(&config.Config{PaymentProvider: name}, logger)
		assert.ErrorContains(t, err, "unknown payment provider")
	}

	_, err = NewPaymentProvider(&config.Config{PaymentProvider: config.ProviderStripe}, logger)
	assert.ErrorContains(t, err, "STRIPE_SECRET_KEY")
}
