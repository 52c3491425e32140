package handlers

import (
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
)

//
// --- Public Product Handlers ---
//

// GetProducts is GET /products. Hidden products are never listed here.
func (h *Handlers) GetProducts(c *gin.Context) {
	products, err := h.Catalog.ListForCustomers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *Handlers) GetFeaturedProducts(c *gin.Context) {
	products, err := h.Catalog.ListFeatured(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch featured products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.Catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
}

//
// --- Admin Product Handlers ---
//

// GetAllProductsAdmin is GET /products/admin/all, hidden products included.
func (h *Handlers) GetAllProductsAdmin(c *gin.Context) {
	products, err := h.Catalog.ListForAdmin(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *Handlers) GetLowStockProducts(c *gin.Context) {
	products, err := h.Catalog.LowStock(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch low stock products")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products, "count": len(products)})
}

func (h *Handlers) CreateProduct(c *gin.Context) {
	var input service.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.Catalog.Create(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct is a partial update: absent fields keep their value.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input service.ProductInput
	if !bindJSON(c, &input) {
		return
	}

	product, err := h.Catalog.Update(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}

func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

func (h *Handlers) ToggleProductVisibility(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.Catalog.ToggleVisibility(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to toggle product visibility")
		return
	}

	state := "hidden"
	if product.IsActive {
		state = "shown"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product " + state + " successfully",
		"product": product,
	})
}
