package handlers

import (
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/gin-gonic/gin"
)

// QuoteCartInput is the client-local cart.
type QuoteCartInput struct {
	Items []models.CartLine `json:"items"`
}

// QuoteCart is POST /cart/quote. The cart lives in the browser; this only
// prices it against the live catalog and persists nothing.
func (h *Handlers) QuoteCart(c *gin.Context) {
	var input QuoteCartInput
	if !bindJSON(c, &input) {
		return
	}

	quote, err := h.Catalog.QuoteCart(c.Request.Context(), input.Items)
	if err != nil {
		h.respondError(c, err, "Failed to price cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": quote})
}
