package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAllCategories (Public) returns the fixed category list with slugs.
func (h *Handlers) GetAllCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": h.Catalog.Categories()})
}
