package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/models"
	"github.com/aman7661/sumitTradingCompany/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//
// --- Role-Based Middleware ---
//
// AdminMiddleware must run AFTER AuthMiddleware. It reads the role from the
// user store, not from the token claim.
//

// UserLookup is the part of the user store the admin gate needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// queryUserRole is a helper to get the user's current role.
func queryUserRole(ctx context.Context, users UserLookup, userID int64) (string, error) {
	u, err := users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func AdminMiddleware(users UserLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID, ok := c.Get(UserIDKey)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		// 2. Look up the user's role
		role, err := queryUserRole(c.Request.Context(), users, userID.(int64))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				abort(c, http.StatusUnauthorized, "Invalid user")
				return
			}
			logger.Error("failed to check user role", zap.Int64("user_id", userID.(int64)), zap.Error(err))
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		// 3. Check permission
		if role != models.RoleAdmin {
			abort(c, http.StatusForbidden, "Access denied: admin role required")
			return
		}

		// 4. Success! Add role to context and proceed.
		c.Set(UserRoleKey, role)
		c.Next()
	}
}
