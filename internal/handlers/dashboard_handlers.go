package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetOrderStats is GET /orders/admin/stats: status breakdown, order count,
// revenue without cancelled orders and the five most recent orders.
func (h *Handlers) GetOrderStats(c *gin.Context) {
	stats, err := h.Orders.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch order statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
