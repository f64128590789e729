package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

type GameHandler struct {
	gameManager *services.RoundManager
	archive     services.RoundArchive
}

func NewGameHandler(gameManager *services.RoundManager, archive services.RoundArchive) *GameHandler {
	return &GameHandler{
		gameManager: gameManager,
		archive:     archive,
	}
}

// statusForKind maps the stable error kinds onto HTTP statuses; the kind
// itself travels in the body so clients never parse messages.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrValidation, models.ErrState, models.ErrInsufficientFunds:
		return http.StatusBadRequest
	case models.ErrConflict:
		return http.StatusConflict
	case models.ErrExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	c.JSON(statusForKind(kind), gin.H{
		"success": false,
		"error":   err.Error(),
		"kind":    kind,
	})
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	playerID := c.GetString("player_id")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.ValidationError("invalid request: %v", err))
		return
	}

	bet, err := h.gameManager.PlaceBet(playerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bet": gin.H{
			"round_id":      bet.RoundID,
			"usd_amount":    bet.USDAmount,
			"crypto_amount": bet.CryptoAmount,
			"crypto_type":   bet.CryptoType,
			"price_at_time": bet.PriceAtTime,
		},
	})
}

func (h *GameHandler) Cashout(c *gin.Context) {
	playerID := c.GetString("player_id")

	cashout, err := h.gameManager.Cashout(playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"multiplier":  cashout.Multiplier,
			"payout":      cashout.Payout,
			"usd_payout":  cashout.USDPayout,
			"crypto_type": cashout.CryptoType,
		},
	})
}

func (h *GameHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   h.gameManager.GetGameState(),
	})
}

func (h *GameHandler) GetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"prices":  h.gameManager.GetPrices(),
	})
}

func (h *GameHandler) GetBalance(c *gin.Context) {
	playerID := c.GetString("player_id")

	wallet, err := h.gameManager.GetOrCreateWallet(playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"balance": models.BalanceResponse{
			PlayerID:     wallet.PlayerID,
			Balances:     wallet.Balances,
			TotalWagered: wallet.TotalWagered,
			TotalWon:     wallet.TotalWon,
		},
	})
}

func (h *GameHandler) GetHistory(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	if h.archive == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"rounds":  []*models.RoundSummary{},
			"count":   0,
		})
		return
	}

	rounds, err := h.archive.RecentRounds(limit)
	if err != nil {
		respondError(c, models.PersistenceError("failed to load round history: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rounds":  rounds,
		"count":   len(rounds),
	})
}

func (h *GameHandler) GetVerificationData(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.gameManager.GetVerificationData(),
	})
}

// VerifyRound recomputes a crash point from a revealed seed so players can
// check any finished round against its pre-round commitment.
func (h *GameHandler) VerifyRound(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, models.ValidationError("invalid request: %v", err))
		return
	}

	crashPoint, seedHash, err := services.VerifyCrashPoint(req.Seed, req.SeedHash)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"verification": gin.H{
			"valid":       true,
			"crash_point": crashPoint,
			"seed_hash":   seedHash,
			"formula":     services.CrashFormula,
		},
	})
}
