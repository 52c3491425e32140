package service

import (
	"context"
	"sync"
	"testing"

	"github.com/aman7661/sumitTradingCompany/internal/events"
	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/payment"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/aman7661/sumitTradingCompany/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type fakeTokens struct{}

func (fakeTokens) Generate(userID int64, role string) (string, error) {
	return "token-" + role, nil
}

type testEnv struct {
	store     *repository.Store
	metrics   *metrics.Metrics
	publisher *recordingPublisher
	catalog   *CatalogService
	orders    *OrderService
	payments  *PaymentService
	users     *UserService
	provider  *payment.TestProvider
}

func newTestEnv(t *testing.T, opts OrderOptions) *testEnv {
	t.Helper()
	store := memory.NewStore()
	m := metrics.New()
	pub := &recordingPublisher{}
	logger := zap.NewNop()
	provider := payment.NewTestProvider()

	if opts.TotalTolerance.IsZero() {
		opts.TotalTolerance = decimal.RequireFromString("0.01")
	}
	orders := NewOrderService(store, pub, m, logger, opts)
	return &testEnv{
		store:     store,
		metrics:   m,
		publisher: pub,
		catalog:   NewCatalogService(store.Products, m, logger),
		orders:    orders,
		payments:  NewPaymentService(provider, orders, "inr", logger),
		users:     NewUserService(store.Users, fakeTokens{}, logger),
		provider:  provider,
	}
}

func ptr[T any](v T) *T { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// productInput is a complete valid create payload.
func productInput(name, price string) ProductInput {
	return ProductInput{
		Name:        ptr(name),
		Description: ptr("Premium quality"),
		Price:       dec(price),
		Category:    ptr("Grains & Pulses"),
		Subcategory: ptr("Rice"),
		Brand:       ptr("India Gate"),
		Unit:        ptr("kg"),
		Stock:       ptr(50),
	}
}

func (e *testEnv) createProduct(t *testing.T, in ProductInput) *models.Product {
	t.Helper()
	p, err := e.catalog.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func testAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "9876543210",
		Street:   "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  "560001",
	}
}

func orderFor(productID int64, qty int) CreateOrderInput {
	return CreateOrderInput{
		Items:           []models.CartLine{{ProductID: productID, Quantity: qty}},
		ShippingAddress: testAddress(),
		PaymentMethod:   models.PaymentCOD,
	}
}

var (
	customer      = Principal{UserID: 100, Role: models.RoleCustomer}
	otherCustomer = Principal{UserID: 200, Role: models.RoleCustomer}
	admin         = Principal{UserID: 1, Role: models.RoleAdmin}
)
