package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
)

type ProductRepository struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]*models.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[int64]*models.Product)}
}

func (r *ProductRepository) List(_ context.Context, f repository.ProductFilter) ([]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Product, 0, len(r.products))
	for _, p := range r.products {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		if f.FeaturedOnly && !p.Featured {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		out = append(out, cloneProduct(p))
	}

	sortNewestFirst(out, func(p *models.Product) (int64, int64) { return p.CreatedAt.UnixNano(), p.ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ProductRepository) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) GetMany(_ context.Context, ids []int64) (map[int64]*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[int64]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r *ProductRepository) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepository) Update(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	r.products[p.ID] = cloneProduct(p)
	return nil
}

func (r *ProductRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// sortNewestFirst orders by creation time descending, breaking ties by id so
// records created within the same clock tick keep insertion order reversed.
func sortNewestFirst[T any](items []T, key func(T) (int64, int64)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti > tj
		}
		return idi > idj
	})
}
