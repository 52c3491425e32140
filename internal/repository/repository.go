package repository

import (
	"context"
	"errors"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale means the row changed since it was read.
	ErrStale = errors.New("stale record version")
	// ErrIntentTaken means another order already holds the payment intent.
	ErrIntentTaken = errors.New("payment intent already has an order")
)

// ProductFilter narrows a product listing. Zero value lists everything.
type ProductFilter struct {
	ActiveOnly   bool
	FeaturedOnly bool
	LowStockOnly bool
	Limit        int
}

type ProductRepository interface {
	// List returns matching products, newest first.
	List(ctx context.Context, f ProductFilter) ([]*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// GetMany returns the products that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []int64) (map[int64]*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
}

// OrderFilter selects a page of orders for the admin listing.
type OrderFilter struct {
	Status models.OrderStatus // empty means any
	Offset int
	Limit  int
}

type OrderRepository interface {
	// Create persists o and its items. Returns ErrDuplicate when the order number
	// is taken and ErrIntentTaken when a non-empty payment intent id is.
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	// GetByPaymentIntentID finds the order paid by a gateway intent.
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int64) ([]*models.Order, error)
	// List returns one page of orders, newest first, and the total matching count.
	List(ctx context.Context, f OrderFilter) ([]*models.Order, int, error)
	// UpdateStatus writes status and tracking number if the stored version still
	// equals expectedVersion, then bumps o.Version.
	UpdateStatus(ctx context.Context, o *models.Order, expectedVersion int) error
	StatusBreakdown(ctx context.Context) ([]models.StatusStat, error)
	Count(ctx context.Context) (int, error)
	// Revenue sums totals of every order that is not cancelled.
	Revenue(ctx context.Context) (decimal.Decimal, error)
	Recent(ctx context.Context, n int) ([]*models.Order, error)
}

type UserRepository interface {
	// Create returns ErrDuplicate when the email is already registered.
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]*models.User, error)
}

// Sequence hands out strictly increasing values per name, starting at 1.
// Next must be atomic across concurrent callers.
type Sequence interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Store bundles the repositories a running service needs.
type Store struct {
	Products  ProductRepository
	Orders    OrderRepository
	Users     UserRepository
	Sequences Sequence
}
