// Package payment is the boundary to the card payment gateway. The order
// flow only ever creates an intent and later reads its outcome back.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrGateway wraps any failure talking to the gateway.
	ErrGateway = errors.New("payment gateway error")
)

// Status is the normalized outcome of an intent.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Status       Status `json:"status"`
	Amount       int64  `json:"amount"` // minor units
	Currency     string `json:"currency"`
}

type Provider interface {
	Name() string
	// IsTest reports whether intents are synthetic and never reach a gateway.
	IsTest() bool
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount (rupees) to minor units (paise).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
