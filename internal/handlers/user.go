package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-crash-backend/internal/services"
)

type UserHandler struct {
	redisService *services.RedisService
}

func NewUserHandler(redisService *services.RedisService) *UserHandler {
	return &UserHandler{
		redisService: redisService,
	}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	playerID := c.GetString("player_id")
	sessionID := c.GetString("session_id")

	session, err := h.redisService.GetUserSession(playerID, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
		return
	}

	wallet, err := h.redisService.GetWallet(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id": playerID,
		"username":  session.Username,
		"session": gin.H{
			"session_id":    session.SessionID,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessed,
		},
		"wallet": gin.H{
			"balances":      wallet.Balances,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
		},
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	playerID := c.GetString("player_id")
	sessionID := c.GetString("session_id")

	if err := h.redisService.DeleteUserSession(playerID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *UserHandler) GetTransactions(c *gin.Context) {
	playerID := c.GetString("player_id")

	transactions, err := h.redisService.GetUserTransactions(playerID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": transactions,
		"count":        len(transactions),
	})
}
