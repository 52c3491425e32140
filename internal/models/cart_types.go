package models

import "github.com/shopspring/decimal"

// CartLine is one entry of the client-local cart as sent at checkout.
// The cart itself lives in the browser; the server only ever sees snapshots of it.
type CartLine struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=999"`
}

// CartQuoteLine is a cart line priced against the live catalog.
type CartQuoteLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"` // effective price
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Stock     int             `json:"stock"`
}

// CartQuote is the priced cart returned by POST /cart/quote.
type CartQuote struct {
	Items       []CartQuoteLine `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TotalItems  int             `json:"totalItems"`
	Unavailable []int64         `json:"unavailable"`
}
