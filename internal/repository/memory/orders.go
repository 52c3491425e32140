package memory

import (
	"context"
	"sync"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	mu       sync.RWMutex
	nextID   int64
	orders   map[int64]*models.Order
	byNumber map[string]int64
	byIntent map[string]int64
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:   make(map[int64]*models.Order),
		byNumber: make(map[string]int64),
		byIntent: make(map[string]int64),
	}
}

func (r *OrderRepository) Create(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byIntent[o.PaymentIntentID]; taken && o.PaymentIntentID != "" {
		return repository.ErrIntentTaken
	}
	if _, taken := r.byNumber[o.OrderNumber]; taken {
		return repository.ErrDuplicate
	}
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = cloneOrder(o)
	r.byNumber[o.OrderNumber] = o.ID
	if o.PaymentIntentID != "" {
		r.byIntent[o.PaymentIntentID] = o.ID
	}
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id int64) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) GetByPaymentIntentID(_ context.Context, intentID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIntent[intentID]
	if !ok || intentID == "" {
		return nil, repository.ErrNotFound
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID int64) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sortOrders(out)
	return out, nil
}

func (r *OrderRepository) List(_ context.Context, f repository.OrderFilter) ([]*models.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matched = append(matched, o)
	}
	sortOrders(matched)

	total := len(matched)
	if f.Offset >= total {
		return []*models.Order{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}

	page := make([]*models.Order, 0, end-f.Offset)
	for _, o := range matched[f.Offset:end] {
		page = append(page, cloneOrder(o))
	}
	return page, total, nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, o *models.Order, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[o.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrStale
	}

	stored.Status = o.Status
	stored.TrackingNumber = o.TrackingNumber
	stored.UpdatedAt = o.UpdatedAt
	stored.Version = expectedVersion + 1
	o.Version = stored.Version
	return nil
}

func (r *OrderRepository) StatusBreakdown(_ context.Context) ([]models.StatusStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byStatus := make(map[models.OrderStatus]*models.StatusStat)
	for _, o := range r.orders {
		s, ok := byStatus[o.Status]
		if !ok {
			s = &models.StatusStat{Status: o.Status, TotalAmount: decimal.Zero}
			byStatus[o.Status] = s
		}
		s.Count++
		s.TotalAmount = s.TotalAmount.Add(o.Total)
	}

	// Lifecycle order keeps the output deterministic.
	out := make([]models.StatusStat, 0, len(byStatus))
	for _, st := range models.OrderStatuses {
		if s, ok := byStatus[st]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *OrderRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders), nil
}

func (r *OrderRepository) Revenue(_ context.Context) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, o := range r.orders {
		if o.Status != models.StatusCancelled {
			total = total.Add(o.Total)
		}
	}
	return total, nil
}

func (r *OrderRepository) Recent(_ context.Context, n int) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		all = append(all, o)
	}
	sortOrders(all)
	if n < len(all) {
		all = all[:n]
	}

	out := make([]*models.Order, len(all))
	for i, o := range all {
		out[i] = cloneOrder(o)
	}
	return out, nil
}

func sortOrders(orders []*models.Order) {
	sortNewestFirst(orders, func(o *models.Order) (int64, int64) { return o.CreatedAt.UnixNano(), o.ID })
}
