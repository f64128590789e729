package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

type AuthHandler struct {
	redisService *services.RedisService
	jwtService   *services.JWTService
}

func NewAuthHandler(redisService *services.RedisService, jwtService *services.JWTService) *AuthHandler {
	return &AuthHandler{
		redisService: redisService,
		jwtService:   jwtService,
	}
}

// Login is a deliberately thin username/password passthrough: first login
// creates the account, later logins must present the same password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	passwordHash := hashPassword(req.Password)

	user, err := h.redisService.GetUser(req.Username)
	switch {
	case err == redis.Nil:
		user = &models.User{
			PlayerID:     req.Username,
			Username:     req.Username,
			PasswordHash: passwordHash,
			CreatedAt:    time.Now(),
		}
		if err := h.redisService.StoreUser(user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	case user.PasswordHash != passwordHash:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	sessionID := uuid.New().String()
	session := &models.UserSession{
		PlayerID:     user.PlayerID,
		SessionID:    sessionID,
		Username:     user.Username,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}
	if err := h.redisService.StoreUserSession(session, services.TTLUserSession); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := h.jwtService.GenerateToken(user.PlayerID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	wallet, err := h.redisService.GetWallet(user.PlayerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"player_id": user.PlayerID,
		"wallet": gin.H{
			"balances": wallet.Balances,
		},
	})
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
