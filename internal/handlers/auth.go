// internal/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"keratoscan-back/internal/auth"
	"keratoscan-back/internal/middleware"
	"keratoscan-back/internal/models"
	"keratoscan-back/internal/repository"
	"keratoscan-back/pkg/metrics"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Login authenticates a (username, password, role) triple. Every role signs
// in with a hashed password; a role the account does not hold is rejected the
// same way as a bad password so usernames cannot be probed across roles.
func Login(users UserStore, tokens *auth.TokenService, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}

		role := models.Role(req.Role)
		if !role.Valid() {
			c.JSON(http.StatusForbidden, gin.H{"message": "Login not allowed for this role"})
			return
		}

		user, err := users.FindByUsernameAndRole(c.Request.Context(), req.Username, role)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				m.Logins.WithLabelValues(req.Role, "rejected").Inc()
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials or role mismatch"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to look up user"})
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			m.Logins.WithLabelValues(req.Role, "rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
			return
		}

		token, err := tokens.GenerateToken(user)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate token"})
			return
		}

		m.Logins.WithLabelValues(req.Role, "success").Inc()
		c.SetCookie("auth_token", token, 3600, "/", "", false, true)
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// Logout clears the auth cookie.
func Logout(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.Status(http.StatusOK)
}

// GetProfile returns the authenticated account.
func GetProfile(users UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetString(middleware.ContextUserID))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
