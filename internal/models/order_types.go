package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentStripe PaymentMethod = "stripe"
)

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// ShippingAddress is stored with the order as JSON.
type ShippingAddress struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Street   string `json:"street" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required,numeric,len=6"`
	Country  string `json:"country"`
}

// Order is the model for the 'orders' table.
type Order struct {
	ID          int64  `json:"id" db:"id"`
	OrderNumber string `json:"orderNumber" db:"order_number"`
	UserID      int64  `json:"userId" db:"user_id"`

	Items []OrderItem     `json:"items"`
	Total decimal.Decimal `json:"total" db:"total"`

	ShippingAddress ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty" db:"payment_intent_id"`
	OrderNotes      string          `json:"orderNotes" db:"order_notes"`

	Status         OrderStatus `json:"status" db:"status"`
	TrackingNumber string      `json:"trackingNumber,omitempty" db:"tracking_number"`

	// Version is bumped on every status write; writes carry the version they read.
	Version int `json:"version" db:"version"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joins (populated by the service for display)
	User *UserSummary `json:"user,omitempty" db:"-"`
}

// OrderItem is a snapshot of a purchased product. Name and price are copied at
// purchase time and never follow later catalog edits.
type OrderItem struct {
	ProductID int64           `json:"productId" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`

	Product *Product `json:"product,omitempty" db:"-"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the line totals of the snapshot.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ProductIDs returns the distinct product ids referenced by the items.
func (o *Order) ProductIDs() []int64 {
	seen := make(map[int64]bool, len(o.Items))
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}

// StatusStat is one row of the admin status breakdown.
type StatusStat struct {
	Status      OrderStatus     `json:"status"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// OrderStats is the admin dashboard aggregate.
type OrderStats struct {
	StatusBreakdown []StatusStat    `json:"statusBreakdown"`
	TotalOrders     int             `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	RecentOrders    []*Order        `json:"recentOrders"`
}
