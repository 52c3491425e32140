package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/payment"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService struct {
	provider payment.Provider
	orders   *OrderService
	currency string
	logger   *zap.Logger
}

func NewPaymentService(provider payment.Provider, orders *OrderService, currency string, logger *zap.Logger) *PaymentService {
	if currency == "" {
		currency = "inr"
	}
	return &PaymentService{provider: provider, orders: orders, currency: strings.ToLower(currency), logger: logger}
}

// TestMode reports whether the synthetic provider is active.
func (s *PaymentService) TestMode() bool {
	return s.provider.IsTest()
}

type CreateIntentInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// CreateIntent opens a gateway intent for amount (major units) in the store
// currency. A client currency is accepted only when it names that currency.
func (s *PaymentService) CreateIntent(ctx context.Context, p Principal, in CreateIntentInput) (*payment.Intent, error) {
	var errs []string
	if !in.Amount.IsPositive() {
		errs = append(errs, "amount must be greater than 0")
	}
	if c := strings.ToLower(strings.TrimSpace(in.Currency)); c != "" && c != s.currency {
		errs = append(errs, "currency must be "+s.currency)
	}
	if len(errs) > 0 {
		return nil, newValidationError("invalid payment", errs...)
	}

	intent, err := s.provider.CreateIntent(ctx, payment.ToMinorUnits(in.Amount), s.currency, map[string]string{
		"userId": strconv.FormatInt(p.UserID, 10),
	})
	if err != nil {
		s.logger.Error("failed to create payment intent", zap.Int64("user_id", p.UserID), zap.Error(err))
		return nil, ErrPaymentUnavailable
	}
	return intent, nil
}

type VerifyPaymentInput struct {
	PaymentIntentID string           `json:"paymentIntentId"`
	OrderData       CreateOrderInput `json:"orderData"`
}

// VerifyAndCreateOrder creates a paid card order once the gateway confirms
// the intent succeeded for exactly the order total in the store currency.
// Replaying a verified intent, concurrently or later, returns the one order
// it paid for.
func (s *PaymentService) VerifyAndCreateOrder(ctx context.Context, p Principal, in VerifyPaymentInput) (*models.Order, error) {
	intentID := strings.TrimSpace(in.PaymentIntentID)
	if intentID == "" {
		return nil, newValidationError("invalid payment", "paymentIntentId is required")
	}

	if existing, err := s.intentOrder(ctx, p, intentID); !errors.Is(err, repository.ErrNotFound) {
		return existing, err
	}

	intent, err := s.provider.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, payment.ErrIntentNotFound) {
			return nil, fmt.Errorf("%w: unknown payment intent", ErrPaymentIncomplete)
		}
		s.logger.Error("failed to verify payment intent", zap.String("intent_id", intentID), zap.Error(err))
		return nil, ErrPaymentUnavailable
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentIncomplete, intent.Status)
	}
	if !strings.EqualFold(intent.Currency, s.currency) {
		s.logger.Warn("payment currency mismatch",
			zap.String("intent_id", intentID),
			zap.String("intent_currency", intent.Currency))
		return nil, fmt.Errorf("%w: paid in %s, orders are charged in %s",
			ErrPaymentIncomplete, strings.ToLower(intent.Currency), s.currency)
	}

	in.OrderData.PaymentMethod = models.PaymentStripe
	o, err := s.orders.prepareOrder(ctx, p.UserID, in.OrderData)
	if err != nil {
		return nil, err
	}
	if intent.Amount != payment.ToMinorUnits(o.Total) {
		s.logger.Warn("payment amount mismatch",
			zap.String("intent_id", intentID),
			zap.Int64("intent_amount", intent.Amount),
			zap.String("order_total", o.Total.StringFixed(2)))
		return nil, fmt.Errorf("%w: paid amount %s does not match order total %s",
			ErrPaymentIncomplete, payment.FromMinorUnits(intent.Amount).StringFixed(2), o.Total.StringFixed(2))
	}

	o.PaymentStatus = models.PaymentPaid
	o.PaymentIntentID = intent.ID
	if err := s.orders.persistOrder(ctx, o); err != nil {
		if errors.Is(err, repository.ErrIntentTaken) {
			// A concurrent verify stored the order first.
			return s.intentOrder(ctx, p, intent.ID)
		}
		return nil, err
	}
	return o, nil
}

// intentOrder returns the order already paid by intentID. The error wraps
// repository.ErrNotFound when there is none.
func (s *PaymentService) intentOrder(ctx context.Context, p Principal, intentID string) (*models.Order, error) {
	o, err := s.orders.orders.GetByPaymentIntentID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("lookup intent order: %w", err)
	}
	if o.UserID != p.UserID {
		return nil, fmt.Errorf("%w: intent already used", ErrPaymentIncomplete)
	}
	s.orders.expandProducts(ctx, []*models.Order{o})
	return o, nil
}

type TestOrderInput struct {
	OrderData CreateOrderInput `json:"orderData"`
}

// CreateTestOrder marks a card order paid without a gateway. Only available
// when the test provider is configured.
func (s *PaymentService) CreateTestOrder(ctx context.Context, p Principal, in TestOrderInput) (*models.Order, error) {
	if !s.provider.IsTest() {
		return nil, ErrTestPaymentsOff
	}

	in.OrderData.PaymentMethod = models.PaymentStripe
	o, err := s.orders.prepareOrder(ctx, p.UserID, in.OrderData)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, payment.ToMinorUnits(o.Total), s.currency, nil)
	if err != nil {
		return nil, ErrPaymentUnavailable
	}

	o.PaymentStatus = models.PaymentPaid
	o.PaymentIntentID = intent.ID
	if err := s.orders.persistOrder(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("test payment order created", zap.String("order_number", o.OrderNumber))
	return o, nil
}
