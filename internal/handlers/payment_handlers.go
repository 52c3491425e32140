package handlers

import (
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Payment Handlers ---
//

// CreateStripeIntent is POST /payments/create-stripe-intent.
func (h *Handlers) CreateStripeIntent(c *gin.Context) {
	var input service.CreateIntentInput
	if !bindJSON(c, &input) {
		return
	}

	intent, err := h.Payments.CreateIntent(c.Request.Context(), principal(c), input)
	if err != nil {
		h.respondError(c, err, "Failed to create payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

// VerifyStripePayment is POST /payments/verify-stripe. The order is created
// only once the gateway reports the intent succeeded for the order total.
func (h *Handlers) VerifyStripePayment(c *gin.Context) {
	var input service.VerifyPaymentInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := h.Payments.VerifyAndCreateOrder(c.Request.Context(), principal(c), input)
	if err != nil {
		h.respondError(c, err, "Failed to verify payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Payment successful and order created!",
		"order":   order,
	})
}

// CreateTestStripeOrder is POST /payments/create-test-stripe-order. It is
// only routed when the test payment provider is configured.
func (h *Handlers) CreateTestStripeOrder(c *gin.Context) {
	var input service.TestOrderInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := h.Payments.CreateTestOrder(c.Request.Context(), principal(c), input)
	if err != nil {
		h.respondError(c, err, "Failed to create test order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Test Stripe payment successful and order created!",
		"order":   order,
	})
}
