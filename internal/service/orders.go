package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/events"
	"github.com/aman7661/sumitTradingCompany/internal/metrics"
	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	orderSequence      = "orders"
	maxNumberAttempts  = 3
	recentOrdersLimit  = 5
	defaultPageLimit   = 20
	maxPageLimit       = 100
	defaultCountry     = "India"
	maxOrderNotesChars = 500
)

// Principal is the authenticated caller as tagged by the access gate.
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == models.RoleAdmin }

type OrderOptions struct {
	NumberPrefix string
	// TotalTolerance bounds how far a caller-supplied total may drift from the computed one.
	TotalTolerance decimal.Decimal
	// PermissiveTransitions lets admins move an order between any two statuses.
	PermissiveTransitions bool
}

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	sequence  repository.Sequence
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	opts      OrderOptions
	now       func() time.Time
}

func NewOrderService(
	store *repository.Store,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts OrderOptions,
) *OrderService {
	if opts.NumberPrefix == "" {
		opts.NumberPrefix = "STC"
	}
	return &OrderService{
		orders:    store.Orders,
		products:  store.Products,
		users:     store.Users,
		sequence:  store.Sequences,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// CreateOrderInput is the checkout payload. Prices are never taken from the client.
type CreateOrderInput struct {
	Items           []models.CartLine      `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod"`
	OrderNotes      string                 `json:"orderNotes"`
	// Total is optional; when present it must agree with the computed total.
	Total *decimal.Decimal `json:"total"`
}

// CreateOrder places a cash-on-delivery or card order for the caller.
// Card orders created here stay payment-pending until the gateway confirms.
func (s *OrderService) CreateOrder(ctx context.Context, p Principal, in CreateOrderInput) (*models.Order, error) {
	o, err := s.prepareOrder(ctx, p.UserID, in)
	if err != nil {
		return nil, err
	}
	o.PaymentStatus = models.PaymentPending
	if err := s.persistOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// prepareOrder validates the checkout and builds the unsaved order with its
// item snapshot and computed total.
func (s *OrderService) prepareOrder(ctx context.Context, userID int64, in CreateOrderInput) (*models.Order, error) {
	// 1. --- Validate the request shape ---
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCOD
	}
	in.ShippingAddress = trimAddress(in.ShippingAddress)
	if in.ShippingAddress.Country == "" {
		in.ShippingAddress.Country = defaultCountry
	}

	var errs []string
	if len(in.Items) == 0 {
		errs = append(errs, "items must contain at least one item")
	}
	for i, line := range in.Items {
		errs = append(errs, fieldErrors(fmt.Sprintf("items[%d]", i), line)...)
	}
	errs = append(errs, fieldErrors("shippingAddress", in.ShippingAddress)...)
	if in.PaymentMethod != models.PaymentCOD && in.PaymentMethod != models.PaymentStripe {
		errs = append(errs, "paymentMethod must be one of: cod, stripe")
	}
	if len(in.OrderNotes) > maxOrderNotesChars {
		errs = append(errs, fmt.Sprintf("orderNotes must be at most %d characters", maxOrderNotesChars))
	}
	if len(errs) > 0 {
		return nil, newValidationError("invalid order", errs...)
	}

	// 2. --- Snapshot the items from the live catalog ---
	ids := make([]int64, len(in.Items))
	for i, line := range in.Items {
		ids[i] = line.ProductID
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load order products: %w", err)
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for i, line := range in.Items {
		p, ok := products[line.ProductID]
		if !ok || !p.IsActive {
			errs = append(errs, fmt.Sprintf("items[%d].productId product %d is not available", i, line.ProductID))
			continue
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.EffectivePrice(),
			Quantity:  line.Quantity,
		})
	}
	if len(errs) > 0 {
		return nil, newValidationError("invalid order", errs...)
	}

	// 3. --- Compute and reconcile the total ---
	now := s.now()
	o := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		OrderNotes:      strings.TrimSpace(in.OrderNotes),
		Status:          models.StatusPending,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.Total = o.ItemsTotal()

	if in.Total != nil && in.Total.Sub(o.Total).Abs().GreaterThan(s.opts.TotalTolerance) {
		return nil, newValidationError("invalid order",
			fmt.Sprintf("total %s does not match the computed total %s", in.Total.StringFixed(2), o.Total.StringFixed(2)))
	}
	return o, nil
}

// persistOrder numbers and stores o. A collision on the order number, which
// only happens when the sequence was reset under existing data, is retried
// with the next value.
func (s *OrderService) persistOrder(ctx context.Context, o *models.Order) error {
	var lastErr error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		n, err := s.sequence.Next(ctx, orderSequence)
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		o.OrderNumber = fmt.Sprintf("%s%06d", s.opts.NumberPrefix, n)

		lastErr = s.orders.Create(ctx, o)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, repository.ErrDuplicate) {
			return fmt.Errorf("create order: %w", lastErr)
		}
		s.metrics.OrderNumberRetries.Inc()
		s.logger.Warn("order number collision, retrying",
			zap.String("order_number", o.OrderNumber),
			zap.Int("attempt", attempt))
	}
	if lastErr != nil {
		return fmt.Errorf("create order: %w", lastErr)
	}

	s.metrics.OrdersCreated.WithLabelValues(string(o.PaymentMethod)).Inc()
	s.logger.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.Int64("user_id", o.UserID),
		zap.String("total", o.Total.StringFixed(2)),
		zap.String("payment_method", string(o.PaymentMethod)))

	s.publish(ctx, events.TypeOrderCreated, o, "")
	s.expandProducts(ctx, []*models.Order{o})
	return nil
}

// CancelOrder cancels an order on behalf of its owner, or any order for an
// admin. The admin role is confirmed against the user store, not the token.
func (s *OrderService) CancelOrder(ctx context.Context, p Principal, orderID int64) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != p.UserID {
		isAdmin, err := s.confirmAdmin(ctx, p)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, ErrOrderNotFound
		}
	}
	if !o.Status.CanCustomerCancel() {
		return nil, transitionRejected("order is %s and can no longer be cancelled", o.Status)
	}

	previous := o.Status
	o.Status = models.StatusCancelled
	if err := s.writeStatus(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_number", o.OrderNumber),
		zap.Int64("by_user", p.UserID))
	s.recordTransition(ctx, o, previous)
	s.expandProducts(ctx, []*models.Order{o})
	return o, nil
}

// UpdateStatus is the admin status write. trackingNumber is attached when non-nil.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string, trackingNumber *string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, invalidStatus(status)
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.allowed(o.Status, next) {
		return nil, transitionRejected("cannot move order from %s to %s", o.Status, next)
	}

	previous := o.Status
	o.Status = next
	if trackingNumber != nil {
		o.TrackingNumber = strings.TrimSpace(*trackingNumber)
	}
	if err := s.writeStatus(ctx, o); err != nil {
		return nil, err
	}

	if previous != next {
		s.recordTransition(ctx, o, previous)
	}
	s.expandProducts(ctx, []*models.Order{o})
	return o, nil
}

// BulkResult reports the outcome of a bulk status update.
type BulkResult struct {
	ModifiedCount int     `json:"modifiedCount"`
	Skipped       []int64 `json:"skipped"`
}

// BulkUpdateStatus moves every listed order to status. Missing ids are
// ignored, orders already in status are left untouched, and orders whose
// transition is illegal or that changed underneath us are reported as skipped.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, orderIDs []int64, status string) (*BulkResult, error) {
	var errs []string
	if len(orderIDs) == 0 {
		errs = append(errs, "orderIds must be a non-empty list")
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		errs = append(errs, invalidStatus(status).Errors...)
	}
	if len(errs) > 0 {
		return nil, newValidationError("invalid bulk update", errs...)
	}

	result := &BulkResult{Skipped: []int64{}}
	seen := make(map[int64]bool, len(orderIDs))
	for _, id := range orderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("bulk update load %d: %w", id, err)
		}
		if o.Status == next {
			continue
		}
		if !s.allowed(o.Status, next) {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		previous := o.Status
		o.Status = next
		if err := s.writeStatus(ctx, o); err != nil {
			if errors.Is(err, ErrConflict) || errors.Is(err, ErrOrderNotFound) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			return nil, err
		}
		s.recordTransition(ctx, o, previous)
		result.ModifiedCount++
	}

	s.logger.Info("bulk status update",
		zap.String("status", string(next)),
		zap.Int("requested", len(orderIDs)),
		zap.Int("modified", result.ModifiedCount),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// GetUserOrders returns the caller's orders, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	s.expandProducts(ctx, orders)
	return orders, nil
}

// GetOrder returns one of the caller's orders. Another customer's order reads
// as not found so existence is not leaked.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	s.expandProducts(ctx, []*models.Order{o})
	return o, nil
}

// GetOrderForAdmin returns any order with its customer expanded.
func (s *OrderService) GetOrderForAdmin(ctx context.Context, orderID int64) (*models.Order, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.expandProducts(ctx, []*models.Order{o})
	s.expandUsers(ctx, []*models.Order{o})
	return o, nil
}

type ListOrdersQuery struct {
	Status string
	Page   int
	Limit  int
}

type OrderPage struct {
	Orders     []*models.Order `json:"orders"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// ListForAdmin returns one page of all orders, optionally filtered by status.
// Status "all" or empty means no filter.
func (s *OrderService) ListForAdmin(ctx context.Context, q ListOrdersQuery) (*OrderPage, error) {
	var errs []string
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultPageLimit
	}
	if q.Page < 1 {
		errs = append(errs, "page must be at least 1")
	}
	if q.Limit < 1 || q.Limit > maxPageLimit {
		errs = append(errs, fmt.Sprintf("limit must be between 1 and %d", maxPageLimit))
	}

	var filter models.OrderStatus
	if q.Status != "" && q.Status != "all" {
		st, ok := models.ParseOrderStatus(q.Status)
		if !ok {
			errs = append(errs, invalidStatus(q.Status).Errors...)
		}
		filter = st
	}
	if len(errs) > 0 {
		return nil, newValidationError("invalid query", errs...)
	}

	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		Status: filter,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	s.expandUsers(ctx, orders)

	return &OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
	}, nil
}

// Stats aggregates orders for the admin dashboard. Revenue excludes cancelled orders.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	breakdown, err := s.orders.StatusBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	count, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	revenue, err := s.orders.Revenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	recent, err := s.orders.Recent(ctx, recentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	s.expandUsers(ctx, recent)

	return &models.OrderStats{
		StatusBreakdown: breakdown,
		TotalOrders:     count,
		TotalRevenue:    revenue,
		RecentOrders:    recent,
	}, nil
}

func (s *OrderService) allowed(from, to models.OrderStatus) bool {
	return s.opts.PermissiveTransitions || from.CanTransitionTo(to)
}

// confirmAdmin reports whether p still holds the admin role in the user store.
func (s *OrderService) confirmAdmin(ctx context.Context, p Principal) (bool, error) {
	if !p.IsAdmin() {
		return false, nil
	}
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("look up user role: %w", err)
	}
	if !u.IsAdmin() {
		s.logger.Warn("admin claim no longer held, cancel refused", zap.Int64("user_id", p.UserID))
	}
	return u.IsAdmin(), nil
}

func (s *OrderService) getOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// writeStatus persists o's status against the version it was read at.
func (s *OrderService) writeStatus(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = s.now()
	err := s.orders.UpdateStatus(ctx, o, o.Version)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStale):
		return ErrConflict
	case errors.Is(err, repository.ErrNotFound):
		return ErrOrderNotFound
	default:
		return fmt.Errorf("update order status: %w", err)
	}
}

func (s *OrderService) recordTransition(ctx context.Context, o *models.Order, previous models.OrderStatus) {
	s.metrics.OrderTransitions.WithLabelValues(string(previous), string(o.Status)).Inc()
	s.publish(ctx, events.TypeOrderStatusChanged, o, previous)
}

// publish never fails the caller; the order is already persisted.
func (s *OrderService) publish(ctx context.Context, eventType string, o *models.Order, previous models.OrderStatus) {
	event := events.OrderEvent{
		EventID:        uuid.NewString(),
		Type:           eventType,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         o.Status,
		PreviousStatus: previous,
		Total:          o.Total,
		PaymentMethod:  string(o.PaymentMethod),
		Timestamp:      s.now(),
		RequestID:      RequestIDFromContext(ctx),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.EventPublishErrors.Inc()
		s.logger.Error("failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
	}
}

// expandProducts attaches the live product to each item for display. It is
// best effort: a lookup failure is logged and the snapshot is returned as is.
func (s *OrderService) expandProducts(ctx context.Context, orders []*models.Order) {
	var ids []int64
	for _, o := range orders {
		ids = append(ids, o.ProductIDs()...)
	}
	if len(ids) == 0 {
		return
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to expand order products", zap.Error(err))
		return
	}
	for _, o := range orders {
		for i := range o.Items {
			o.Items[i].Product = products[o.Items[i].ProductID]
		}
	}
}

// expandUsers attaches the customer identity. Best effort like expandProducts.
func (s *OrderService) expandUsers(ctx context.Context, orders []*models.Order) {
	if len(orders) == 0 {
		return
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.UserID)
	}
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to expand order users", zap.Error(err))
		return
	}
	for _, o := range orders {
		if u, ok := users[o.UserID]; ok {
			o.User = u.Summary()
		}
	}
}

func invalidStatus(status string) *ValidationError {
	names := make([]string, len(models.OrderStatuses))
	for i, st := range models.OrderStatuses {
		names[i] = string(st)
	}
	return newValidationError("invalid status",
		fmt.Sprintf("status %q must be one of: %s", status, strings.Join(names, ", ")))
}

func trimAddress(a models.ShippingAddress) models.ShippingAddress {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)
	a.Country = strings.TrimSpace(a.Country)
	return a
}
