package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubProvider answers GetIntent with a fixed intent.
type stubProvider struct {
	intent *payment.Intent
	err    error
}

func (p *stubProvider) Name() string { return "stub" }
func (p *stubProvider) IsTest() bool { return false }

func (p *stubProvider) CreateIntent(context.Context, int64, string, map[string]string) (*payment.Intent, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}

func (p *stubProvider) GetIntent(context.Context, string) (*payment.Intent, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}

// barrierProvider holds GetIntent until every expected caller is inside it,
// so all of them pass the replay lookup before any order is stored.
type barrierProvider struct {
	*payment.TestProvider
	arrived sync.WaitGroup
}

func (p *barrierProvider) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	p.arrived.Done()
	p.arrived.Wait()
	return p.TestProvider.GetIntent(ctx, id)
}

func TestCreateIntent(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()

	intent, err := env.payments.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.RequireFromString("160.50")})
	require.NoError(t, err)
	assert.Equal(t, int64(16050), intent.Amount)
	assert.Equal(t, "inr", intent.Currency)
	assert.NotEmpty(t, intent.ClientSecret)

	_, err = env.payments.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.Zero})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	upper, err := env.payments.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.NewFromInt(10), Currency: " INR "})
	require.NoError(t, err)
	assert.Equal(t, "inr", upper.Currency)

	_, err = env.payments.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.NewFromInt(160), Currency: "idr"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"currency must be inr"}, verr.Errors)

	failing := NewPaymentService(&stubProvider{err: errors.New("gateway timeout")}, env.orders, "inr", zap.NewNop())
	_, err = failing.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
}

func TestVerifyAndCreateOrder(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Ghee", "80"))

	intent, err := env.payments.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.NewFromInt(160)})
	require.NoError(t, err)

	order, err := env.payments.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
		PaymentIntentID: intent.ID,
		OrderData:       orderFor(p.ID, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStripe, order.PaymentMethod)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, intent.ID, order.PaymentIntentID)
	assert.Equal(t, models.StatusPending, order.Status)

	t.Run("replay returns the same order", func(t *testing.T) {
		again, err := env.payments.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
			PaymentIntentID: intent.ID,
			OrderData:       orderFor(p.ID, 2),
		})
		require.NoError(t, err)
		assert.Equal(t, order.ID, again.ID)

		count, err := env.store.Orders.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("intent of another user", func(t *testing.T) {
		_, err := env.payments.VerifyAndCreateOrder(ctx, otherCustomer, VerifyPaymentInput{
			PaymentIntentID: intent.ID,
			OrderData:       orderFor(p.ID, 2),
		})
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
	})
}

func TestVerifyRejectsUnpaidIntents(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Ghee", "80"))

	t.Run("amount mismatch", func(t *testing.T) {
		intent, err := env.payments.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.NewFromInt(100)})
		require.NoError(t, err)

		_, err = env.payments.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
			PaymentIntentID: intent.ID,
			OrderData:       orderFor(p.ID, 2),
		})
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
		assert.Contains(t, err.Error(), "paid amount 100.00 does not match order total 160.00")
	})

	t.Run("paid in another currency", func(t *testing.T) {
		// 16000 minor units matches the 160.00 total, but in rupiah.
		stub := &stubProvider{intent: &payment.Intent{
			ID: "pi_idr", Status: payment.StatusSucceeded, Amount: 16000, Currency: "idr",
		}}
		svc := NewPaymentService(stub, env.orders, "inr", zap.NewNop())

		_, err := svc.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
			PaymentIntentID: "pi_idr",
			OrderData:       orderFor(p.ID, 2),
		})
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
		assert.Contains(t, err.Error(), "paid in idr, orders are charged in inr")
	})

	t.Run("unknown intent", func(t *testing.T) {
		_, err := env.payments.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
			PaymentIntentID: "pi_missing",
			OrderData:       orderFor(p.ID, 1),
		})
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
	})

	t.Run("missing intent id", func(t *testing.T) {
		_, err := env.payments.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{OrderData: orderFor(p.ID, 1)})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("intent still processing", func(t *testing.T) {
		stub := &stubProvider{intent: &payment.Intent{ID: "pi_1", Status: payment.StatusPending, Amount: 8000}}
		svc := NewPaymentService(stub, env.orders, "inr", zap.NewNop())

		_, err := svc.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
			PaymentIntentID: "pi_1",
			OrderData:       orderFor(p.ID, 1),
		})
		assert.ErrorIs(t, err, ErrPaymentIncomplete)
	})

	t.Run("gateway down", func(t *testing.T) {
		svc := NewPaymentService(&stubProvider{err: payment.ErrGateway}, env.orders, "inr", zap.NewNop())
		_, err := svc.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
			PaymentIntentID: "pi_2",
			OrderData:       orderFor(p.ID, 1),
		})
		assert.ErrorIs(t, err, ErrPaymentUnavailable)
	})

	count, err := env.store.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "no order is created for an unverified payment")
}

func TestConcurrentVerifyCreatesOneOrder(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Ghee", "80"))

	const callers = 4
	provider := &barrierProvider{TestProvider: payment.NewTestProvider()}
	provider.arrived.Add(callers)
	svc := NewPaymentService(provider, env.orders, "inr", zap.NewNop())

	intent, err := svc.CreateIntent(ctx, customer, CreateIntentInput{Amount: decimal.NewFromInt(160)})
	require.NoError(t, err)

	ids := make([]int64, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := svc.VerifyAndCreateOrder(ctx, customer, VerifyPaymentInput{
				PaymentIntentID: intent.ID,
				OrderData:       orderFor(p.ID, 2),
			})
			errs[i] = err
			if err == nil {
				ids[i] = o.ID
			}
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "every caller gets the same order")
	}
	count, err := env.store.Orders.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, env.publisher.events, 1, "one order.created event")
}

func TestCreateTestOrder(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Ghee", "80"))

	require.True(t, env.payments.TestMode())
	order, err := env.payments.CreateTestOrder(ctx, customer, TestOrderInput{OrderData: orderFor(p.ID, 1)})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.PaymentStripe, order.PaymentMethod)
	assert.Contains(t, order.PaymentIntentID, "test_")

	live := NewPaymentService(&stubProvider{}, env.orders, "inr", zap.NewNop())
	assert.False(t, live.TestMode())
	_, err = live.CreateTestOrder(ctx, customer, TestOrderInput{OrderData: orderFor(p.ID, 1)})
	assert.ErrorIs(t, err, ErrTestPaymentsOff)
}
