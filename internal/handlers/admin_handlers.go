package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers (Admin-Only) ---
//

// GetAllOrdersAdmin is GET /orders/admin/all?status=&page=&limit=.
func (h *Handlers) GetAllOrdersAdmin(c *gin.Context) {
	// 1. --- Parse paging ---
	var errs []string
	page, err := queryInt(c, "page")
	if err != nil {
		errs = append(errs, err.Error())
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid query", "errors": errs})
		return
	}

	// 2. --- Fetch the page ---
	result, err := h.Orders.ListForAdmin(c.Request.Context(), service.ListOrdersQuery{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.respondError(c, err, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  result.Orders,
		"pagination": gin.H{
			"currentPage": result.Page,
			"limit":       result.Limit,
			"totalPages":  result.TotalPages,
			"totalOrders": result.Total,
		},
	})
}

// GetOrderAdmin is GET /orders/admin/:id with the customer expanded.
func (h *Handlers) GetOrderAdmin(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.Orders.GetOrderForAdmin(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

type UpdateStatusInput struct {
	Status         string  `json:"status"`
	TrackingNumber *string `json:"trackingNumber"`
}

// UpdateOrderStatus is PUT /orders/admin/:id/status.
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input UpdateStatusInput
	if !bindJSON(c, &input) {
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, input.Status, input.TrackingNumber)
	if err != nil {
		h.respondError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Order status updated to %s", order.Status),
		"order":   order,
	})
}

type BulkUpdateInput struct {
	OrderIDs []int64 `json:"orderIds"`
	Status   string  `json:"status"`
}

// BulkUpdateOrderStatus is PUT /orders/admin/bulk-update.
func (h *Handlers) BulkUpdateOrderStatus(c *gin.Context) {
	var input BulkUpdateInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.Orders.BulkUpdateStatus(c.Request.Context(), input.OrderIDs, input.Status)
	if err != nil {
		h.respondError(c, err, "Failed to update orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("%d orders updated to %s", result.ModifiedCount, input.Status),
		"modifiedCount": result.ModifiedCount,
		"skipped":       result.Skipped,
	})
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
