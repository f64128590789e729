package services

import (
	"time"

	"crypto-crash-backend/internal/models"
)

// Broadcaster is the fan-out surface for round events. Implementations must
// not block the caller; the round tick runs on a fixed cadence.
type Broadcaster interface {
	BroadcastBettingOpen(roundID string, duration time.Duration)
	BroadcastRoundStart(roundID, seedHash string)
	BroadcastMultiplier(roundID string, multiplier float64)
	BroadcastCrash(roundID string, crashPoint float64, seed string)
	BroadcastPlayerBet(bet *models.Bet)
	BroadcastPlayerCashout(cashout *models.Cashout)

	// NotifyCashoutSuccess goes to the requesting player only.
	NotifyCashoutSuccess(playerID string, cashout *models.Cashout)
}
