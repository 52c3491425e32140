package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aman7661/sumitTradingCompany/internal/middleware"
	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Catalog  *service.CatalogService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Users    *service.UserService
	Logger   *zap.Logger

	UploadDir string // where product images are written
	BaseURL   string // public origin used to build upload URLs
}

// Health is the unauthenticated liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Sumit Trading Company API is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// principal is the caller tagged by the auth middleware.
func principal(c *gin.Context) service.Principal {
	return service.Principal{
		UserID: c.GetInt64(middleware.UserIDKey),
		Role:   c.GetString(middleware.UserRoleKey),
	}
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Validation failed",
			"errors":  []string{"id must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into dst and writes a 400 when it is malformed.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"errors":  []string{err.Error()},
		})
		return false
	}
	return true
}

// respondError maps the service error taxonomy onto the response envelope.
// Unexpected errors are logged and answered with fallback only.
func (h *Handlers) respondError(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Message, "errors": verr.Errors})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrTransitionRejected),
		errors.Is(err, service.ErrPaymentIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrPaymentUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": err.Error()})
	default:
		_ = c.Error(err)
		h.Logger.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}
