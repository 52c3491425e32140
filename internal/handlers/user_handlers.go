package handlers

import (
	"net/http"

	"github.com/aman7661/sumitTradingCompany/internal/service"
	"github.com/gin-gonic/gin"
)

// --- User Registration ---

// Register creates a customer account. Admin accounts only come from seeding.
func (h *Handlers) Register(c *gin.Context) {
	// 1. --- Bind JSON ---
	var input service.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	// 2. --- Create the account and sign in ---
	session, err := h.Users.Register(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err, "Failed to register user")
		return
	}

	// 3. --- Send Success Response ---
	// The password hash is tagged json:"-" and never leaves the server.
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"token":   session.Token,
		"user":    session.User,
	})
}

// --- User Login ---

func (h *Handlers) Login(c *gin.Context) {
	var input service.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	session, err := h.Users.Login(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User,
	})
}

// GetProfile returns the authenticated user.
func (h *Handlers) GetProfile(c *gin.Context) {
	user, err := h.Users.Profile(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.respondError(c, err, "Failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
