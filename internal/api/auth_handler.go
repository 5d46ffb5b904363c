package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkotelnikov/quizbot/internal/models"
	"github.com/mkotelnikov/quizbot/internal/security"
	"github.com/mkotelnikov/quizbot/pkg/logger"
)

// AdminStore looks up admin accounts for authentication.
type AdminStore interface {
	GetByEmail(email string) (*models.Admin, error)
}

type AuthHandler struct {
	admins    AdminStore
	jwtSecret string
}

func NewAuthHandler(admins AdminStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{admins: admins, jwtSecret: jwtSecret}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	admin, err := h.admins.GetByEmail(security.SanitizeString(req.Email))
	if err != nil || admin == nil || !security.PasswordMatches(admin.Password, req.Password) {
		// Identical response for unknown email and wrong password.
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := security.GenerateJWT(admin.ID, admin.Email, h.jwtSecret)
	if err != nil {
		logger.Error("Failed to issue admin token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{"id": admin.ID, "email": admin.Email},
	})
}

// Current returns the authenticated admin identity.
func (h *AuthHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetUint(ctxAdminID),
		"email": c.GetString(ctxAdminEmail),
	})
}
