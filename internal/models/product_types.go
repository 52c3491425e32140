package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The storefront UI reads prices as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Categories is the fixed set of product categories sold by the store.
var Categories = []string{
	"Pooja Needs",
	"Cooking Essentials",
	"Snacks & Namkeens",
	"Home Cleaning",
	"Disposables",
	"Dairy & Beverages",
	"Grains & Pulses",
	"Spices & Seasonings",
	"Oil & Ghee",
	"Baking Essentials",
	"Health & Wellness",
	"Baby Care",
	"Personal Care",
	"Kitchen Utensils",
}

// Units lists the selling units a product can be measured in.
var Units = []string{"kg", "g", "l", "ml", "piece", "pack", "dozen"}

// DefaultLowStockThreshold is applied when a product is created without one.
const DefaultLowStockThreshold = 10

// Product is the model for the 'products' table.
type Product struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`

	// --- Pricing & Stock ---
	Price             decimal.Decimal  `json:"price" db:"price"`
	DiscountPrice     *decimal.Decimal `json:"discountPrice,omitempty" db:"discount_price"`
	Stock             int              `json:"stock" db:"stock"`
	LowStockThreshold int              `json:"lowStockThreshold" db:"low_stock_threshold"`

	// --- Classification ---
	Category    string   `json:"category" db:"category"`
	Subcategory string   `json:"subcategory" db:"subcategory"`
	Brand       string   `json:"brand" db:"brand"`
	Unit        string   `json:"unit" db:"unit"`
	Tags        []string `json:"tags"`

	// --- Visibility ---
	IsActive bool `json:"isActive" db:"is_active"`
	Featured bool `json:"featured" db:"featured"`

	Images  []ProductImage `json:"images"`
	Ratings Ratings        `json:"ratings"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductImage is one entry of the ordered image list (stored as JSON).
type ProductImage struct {
	PublicID string `json:"public_id" yaml:"public_id"`
	URL      string `json:"url" yaml:"url"`
}

// Ratings holds the aggregated customer rating.
type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// EffectivePrice is the discount price when one is set, otherwise the regular price.
// A zero discount counts as "not set".
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// IsLowStock reports whether stock has fallen to the product's threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// IsValidCategory reports whether name is one of Categories.
func IsValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// IsValidUnit reports whether unit is one of Units.
func IsValidUnit(unit string) bool {
	for _, u := range Units {
		if u == unit {
			return true
		}
	}
	return false
}
