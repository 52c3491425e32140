package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/events"
	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutScenario(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()

	in := productInput("Product A", "100")
	in.DiscountPrice = dec("80")
	in.Stock = ptr(5)
	a := env.createProduct(t, in)

	order, err := env.orders.CreateOrder(ctx, customer, orderFor(a.ID, 2))
	require.NoError(t, err)

	assert.True(t, order.Total.Equal(decimal.NewFromInt(160)))
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "Product A", order.Items[0].Name)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "STC000001", order.OrderNumber)
	assert.Equal(t, "India", order.ShippingAddress.Country)
	assert.Equal(t, 1, order.Version)
	require.NotNil(t, order.Items[0].Product, "product details expanded")

	require.Len(t, env.publisher.events, 1)
	assert.Equal(t, events.TypeOrderCreated, env.publisher.events[0].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.OrdersCreated.WithLabelValues("cod")))

	// Order creation does not decrement stock.
	stored, err := env.catalog.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Stock)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()

	_, err := env.orders.CreateOrder(ctx, customer, CreateOrderInput{
		ShippingAddress: models.ShippingAddress{Email: "not-an-email", Pincode: "56A"},
		PaymentMethod:   "upi",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	joined := verr.Error()
	for _, want := range []string{
		"items must contain at least one item",
		"shippingAddress.fullName is required",
		"shippingAddress.email must be a valid email address",
		"shippingAddress.phone is required",
		"shippingAddress.street is required",
		"shippingAddress.pincode must contain only digits",
		"paymentMethod must be one of: cod, stripe",
	} {
		assert.Contains(t, joined, want)
	}
}

func TestCreateOrderRejectsUnavailableProducts(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()

	hiddenIn := productInput("Hidden", "10")
	hiddenIn.IsActive = ptr(false)
	hidden := env.createProduct(t, hiddenIn)

	for _, id := range []int64{hidden.ID, 999} {
		_, err := env.orders.CreateOrder(ctx, customer, orderFor(id, 1))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Errors[0], "is not available")
	}
}

func TestCreateOrderTotalReconciliation(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Rice", "100"))

	in := orderFor(p.ID, 2)
	in.Total = dec("150")
	_, err := env.orders.CreateOrder(ctx, customer, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors[0], "does not match the computed total 200.00")

	in.Total = dec("200.005")
	order, err := env.orders.CreateOrder(ctx, customer, in)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(200)), "stored total is always the computed one")
}

func TestSnapshotSurvivesProductEdits(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Sugar", "50"))

	order, err := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
	require.NoError(t, err)

	_, err = env.catalog.Update(ctx, p.ID, ProductInput{Name: ptr("Sugar Premium"), Price: dec("75")})
	require.NoError(t, err)

	reread, err := env.orders.GetOrder(ctx, customer.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sugar", reread.Items[0].Name)
	assert.True(t, reread.Items[0].Price.Equal(decimal.NewFromInt(50)))
	assert.True(t, reread.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "Sugar Premium", reread.Items[0].Product.Name, "expanded product is live")
}

func TestConcurrentOrdersGetUniqueNumbers(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	p := env.createProduct(t, productInput("Salt", "20"))

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o, err := env.orders.CreateOrder(context.Background(), customer, orderFor(p.ID, 1))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[o.OrderNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, numbers, n)
}

// collidingOrders rejects the first inserts as duplicates.
type collidingOrders struct {
	repository.OrderRepository
	collisions int
}

func (r *collidingOrders) Create(ctx context.Context, o *models.Order) error {
	if r.collisions > 0 {
		r.collisions--
		return repository.ErrDuplicate
	}
	return r.OrderRepository.Create(ctx, o)
}

func TestOrderNumberCollisionRetries(t *testing.T) {
	env := newTestEnv(t, OrderOptions{NumberPrefix: "TST"})
	p := env.createProduct(t, productInput("Salt", "20"))

	env.orders.orders = &collidingOrders{OrderRepository: env.store.Orders, collisions: 2}
	o, err := env.orders.CreateOrder(context.Background(), customer, orderFor(p.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, "TST000003", o.OrderNumber)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.OrderNumberRetries))

	env.orders.orders = &collidingOrders{OrderRepository: env.store.Orders, collisions: maxNumberAttempts}
	_, err = env.orders.CreateOrder(context.Background(), customer, orderFor(p.ID, 1))
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestShippedOrderCannotBeCancelled(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Oil", "150"))
	order, err := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
	require.NoError(t, err)

	shipped, err := env.orders.UpdateStatus(ctx, order.ID, "shipped", ptr("TRK1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, shipped.Status)
	assert.Equal(t, "TRK1", shipped.TrackingNumber)
	assert.Equal(t, 2, shipped.Version)

	_, err = env.orders.CancelOrder(ctx, customer, order.ID)
	assert.ErrorIs(t, err, ErrTransitionRejected)

	stored, _ := env.orders.GetOrder(ctx, customer.UserID, order.ID)
	assert.Equal(t, models.StatusShipped, stored.Status)
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Oil", "150"))
	staff, err := env.users.CreateUser(ctx, RegisterInput{Name: "Staff", Email: "staff@example.com", Password: "secret1"}, models.RoleAdmin)
	require.NoError(t, err)
	admin := Principal{UserID: staff.ID, Role: models.RoleAdmin}

	t.Run("owner cancels pending", func(t *testing.T) {
		order, err := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		require.NoError(t, err)

		cancelled, err := env.orders.CancelOrder(ctx, customer, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)

		_, err = env.orders.CancelOrder(ctx, customer, order.ID)
		assert.ErrorIs(t, err, ErrTransitionRejected, "repeat cancel is rejected")
	})

	t.Run("owner cancels processing", func(t *testing.T) {
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		_, err := env.orders.UpdateStatus(ctx, order.ID, "processing", nil)
		require.NoError(t, err)

		_, err = env.orders.CancelOrder(ctx, customer, order.ID)
		assert.NoError(t, err)
	})

	t.Run("delivered cannot be cancelled", func(t *testing.T) {
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		_, err := env.orders.UpdateStatus(ctx, order.ID, "shipped", nil)
		require.NoError(t, err)
		_, err = env.orders.UpdateStatus(ctx, order.ID, "delivered", nil)
		require.NoError(t, err)

		_, err = env.orders.CancelOrder(ctx, admin, order.ID)
		assert.ErrorIs(t, err, ErrTransitionRejected)
	})

	t.Run("other customer sees not found", func(t *testing.T) {
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))

		_, err := env.orders.CancelOrder(ctx, otherCustomer, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		_, err = env.orders.GetOrder(ctx, otherCustomer.UserID, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("admin cancels any order", func(t *testing.T) {
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		cancelled, err := env.orders.CancelOrder(ctx, admin, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
	})

	t.Run("demoted admin token", func(t *testing.T) {
		demoted, err := env.users.CreateUser(ctx, RegisterInput{Name: "Former", Email: "former@example.com", Password: "secret1"}, models.RoleCustomer)
		require.NoError(t, err)
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))

		// The token still claims admin, the store no longer does.
		_, err = env.orders.CancelOrder(ctx, Principal{UserID: demoted.ID, Role: models.RoleAdmin}, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)

		_, err = env.orders.CancelOrder(ctx, Principal{UserID: 9999, Role: models.RoleAdmin}, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound, "deleted user")

		stored, err := env.orders.GetOrder(ctx, customer.UserID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := env.orders.CancelOrder(ctx, customer, 9999)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("strict rejects reviving terminal orders", func(t *testing.T) {
		env := newTestEnv(t, OrderOptions{})
		p := env.createProduct(t, productInput("Oil", "150"))
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		_, err := env.orders.CancelOrder(ctx, customer, order.ID)
		require.NoError(t, err)

		_, err = env.orders.UpdateStatus(ctx, order.ID, "pending", nil)
		assert.ErrorIs(t, err, ErrTransitionRejected)
	})

	t.Run("strict rejects skipping to delivered", func(t *testing.T) {
		env := newTestEnv(t, OrderOptions{})
		p := env.createProduct(t, productInput("Oil", "150"))
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))

		_, err := env.orders.UpdateStatus(ctx, order.ID, "delivered", nil)
		assert.ErrorIs(t, err, ErrTransitionRejected)
	})

	t.Run("same status attaches tracking number", func(t *testing.T) {
		env := newTestEnv(t, OrderOptions{})
		p := env.createProduct(t, productInput("Oil", "150"))
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		_, err := env.orders.UpdateStatus(ctx, order.ID, "shipped", nil)
		require.NoError(t, err)

		updated, err := env.orders.UpdateStatus(ctx, order.ID, "shipped", ptr(" TRK9 "))
		require.NoError(t, err)
		assert.Equal(t, "TRK9", updated.TrackingNumber)
		// created + one real transition
		assert.Len(t, env.publisher.events, 2)
	})

	t.Run("permissive allows any move", func(t *testing.T) {
		env := newTestEnv(t, OrderOptions{PermissiveTransitions: true})
		p := env.createProduct(t, productInput("Oil", "150"))
		order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		_, err := env.orders.CancelOrder(ctx, customer, order.ID)
		require.NoError(t, err)

		revived, err := env.orders.UpdateStatus(ctx, order.ID, "pending", nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, revived.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		env := newTestEnv(t, OrderOptions{})
		_, err := env.orders.UpdateStatus(ctx, 1, "returned", nil)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Errors[0], "must be one of: pending, processing, shipped, delivered, cancelled")
	})

	t.Run("missing order", func(t *testing.T) {
		env := newTestEnv(t, OrderOptions{})
		_, err := env.orders.UpdateStatus(ctx, 42, "shipped", nil)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

// staleOrders simulates a concurrent writer bumping the version first.
type staleOrders struct {
	repository.OrderRepository
}

func (staleOrders) UpdateStatus(context.Context, *models.Order, int) error {
	return repository.ErrStale
}

func TestStaleWrites(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Oil", "150"))
	order, _ := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))

	env.orders.orders = staleOrders{env.store.Orders}

	_, err := env.orders.UpdateStatus(ctx, order.ID, "processing", nil)
	assert.ErrorIs(t, err, ErrConflict)

	result, err := env.orders.BulkUpdateStatus(ctx, []int64{order.ID}, "processing")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ModifiedCount)
	assert.Equal(t, []int64{order.ID}, result.Skipped)
}

func TestBulkUpdateStatus(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Oil", "150"))

	var ids []int64
	for i := 0; i < 4; i++ {
		o, err := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	// ids[2] already processing, ids[3] cancelled
	_, err := env.orders.UpdateStatus(ctx, ids[2], "processing", nil)
	require.NoError(t, err)
	_, err = env.orders.CancelOrder(ctx, customer, ids[3])
	require.NoError(t, err)

	request := append([]int64{}, ids...)
	request = append(request, 777, 888, ids[0])
	result, err := env.orders.BulkUpdateStatus(ctx, request, "processing")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ModifiedCount)
	assert.Equal(t, []int64{ids[3]}, result.Skipped)

	for i, want := range []models.OrderStatus{models.StatusProcessing, models.StatusProcessing, models.StatusProcessing, models.StatusCancelled} {
		o, err := env.orders.GetOrder(ctx, customer.UserID, ids[i])
		require.NoError(t, err)
		assert.Equal(t, want, o.Status)
	}
}

func TestBulkUpdateValidation(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})

	_, err := env.orders.BulkUpdateStatus(context.Background(), nil, "teleported")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
	assert.Equal(t, "orderIds must be a non-empty list", verr.Errors[0])
}

func TestListForAdmin(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Oil", "10"))

	u, err := env.users.CreateUser(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "secret1"}, models.RoleCustomer)
	require.NoError(t, err)
	buyer := Principal{UserID: u.ID, Role: models.RoleCustomer}

	var last *models.Order
	for i := 0; i < 5; i++ {
		last, err = env.orders.CreateOrder(ctx, buyer, orderFor(p.ID, 1))
		require.NoError(t, err)
	}
	_, err = env.orders.UpdateStatus(ctx, last.ID, "shipped", nil)
	require.NoError(t, err)

	page, err := env.orders.ListForAdmin(ctx, ListOrdersQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Orders, 2)
	require.NotNil(t, page.Orders[0].User)
	assert.Equal(t, "asha@example.com", page.Orders[0].User.Email)

	page, err = env.orders.ListForAdmin(ctx, ListOrdersQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageLimit, page.Limit)

	page, err = env.orders.ListForAdmin(ctx, ListOrdersQuery{Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)

	for _, q := range []ListOrdersQuery{{Status: "lost"}, {Page: -1}, {Limit: 101}} {
		_, err = env.orders.ListForAdmin(ctx, q)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", q)
	}
}

func TestOrderStatsScenario(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()

	products := map[string]*models.Product{}
	for _, price := range []string{"10", "20", "30", "100"} {
		products[price] = env.createProduct(t, productInput("Item "+price, price))
	}
	for _, price := range []string{"10", "20", "30"} {
		_, err := env.orders.CreateOrder(ctx, customer, orderFor(products[price].ID, 1))
		require.NoError(t, err)
	}
	big, err := env.orders.CreateOrder(ctx, customer, orderFor(products["100"].ID, 1))
	require.NoError(t, err)
	_, err = env.orders.CancelOrder(ctx, customer, big.ID)
	require.NoError(t, err)

	stats, err := env.orders.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(60)))
	require.Len(t, stats.StatusBreakdown, 2)
	assert.Equal(t, models.StatusPending, stats.StatusBreakdown[0].Status)
	assert.Equal(t, 3, stats.StatusBreakdown[0].Count)
	assert.True(t, stats.StatusBreakdown[0].TotalAmount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, models.StatusCancelled, stats.StatusBreakdown[1].Status)
	assert.Len(t, stats.RecentOrders, 4)
}

func TestGetUserOrdersNewestFirst(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	ctx := context.Background()
	p := env.createProduct(t, productInput("Oil", "10"))

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		env.orders.now = func() time.Time { return at }
		_, err := env.orders.CreateOrder(ctx, customer, orderFor(p.ID, 1))
		require.NoError(t, err)
	}
	_, err := env.orders.CreateOrder(ctx, otherCustomer, orderFor(p.ID, 1))
	require.NoError(t, err)

	orders, err := env.orders.GetUserOrders(ctx, customer.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "STC000003", orders[0].OrderNumber)
	assert.Equal(t, "STC000001", orders[2].OrderNumber)
}

func TestPublishFailureDoesNotFailOrder(t *testing.T) {
	env := newTestEnv(t, OrderOptions{})
	env.publisher.err = errors.New("broker down")
	p := env.createProduct(t, productInput("Oil", "10"))

	_, err := env.orders.CreateOrder(context.Background(), customer, orderFor(p.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.EventPublishErrors))
}
