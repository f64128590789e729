package models

import "time"

type Wallet struct {
	PlayerID     string                 `json:"player_id" redis:"player_id"`
	Balances     map[CryptoType]float64 `json:"balances" redis:"balances"`
	TotalWagered float64                `json:"total_wagered" redis:"total_wagered"`
	TotalWon     float64                `json:"total_won" redis:"total_won"`
	CreatedAt    time.Time              `json:"created_at" redis:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at" redis:"updated_at"`
}

// DefaultBalances is the free starting stack handed to a new player.
func DefaultBalances() map[CryptoType]float64 {
	return map[CryptoType]float64{
		CryptoBTC:  0.01,
		CryptoETH:  0.5,
		CryptoSOL:  10,
		CryptoDOGE: 10000,
	}
}

func NewWallet(playerID string) *Wallet {
	now := time.Now()
	return &Wallet{
		PlayerID:  playerID,
		Balances:  DefaultBalances(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type BalanceResponse struct {
	PlayerID     string                 `json:"player_id"`
	Balances     map[CryptoType]float64 `json:"balances"`
	TotalWagered float64                `json:"total_wagered"`
	TotalWon     float64                `json:"total_won"`
}
