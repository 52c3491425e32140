package handlers

import (
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers (Customer) ---
//

// CreateOrder is POST /orders. Prices and the stored total come from the
// catalog; the optional client total is only cross-checked.
func (h *Handlers) CreateOrder(c *gin.Context) {
	// 1. --- Parse the checkout ---
	var input service.CreateOrderInput
	if !bindJSON(c, &input) {
		return
	}

	// 2. --- Place the order ---
	order, err := h.Orders.CreateOrder(c.Request.Context(), principal(c), input)
	if err != nil {
		h.respondError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Order created successfully",
		"order":   order,
	})
}

// GetMyOrders is GET /orders, newest first.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.GetUserOrders(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// GetOrderDetails is GET /orders/:id. Another customer's order is a 404.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), principal(c).UserID, id)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// CancelOrder is PUT /orders/:id/cancel.
func (h *Handlers) CancelOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.Orders.CancelOrder(c.Request.Context(), principal(c), id)
	if err != nil {
		h.respondError(c, err, "Failed to cancel order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order cancelled successfully",
		"order":   order,
	})
}
