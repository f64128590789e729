package models

import "time"

type TransactionType string

const (
	TransactionTypeBet TransactionType = "bet"
	TransactionTypeWin TransactionType = "win"
)

type Transaction struct {
	ID          string          `json:"id" redis:"id"`
	PlayerID    string          `json:"player_id" redis:"player_id"`
	Type        TransactionType `json:"type" redis:"type"`
	CryptoType  CryptoType      `json:"crypto_type" redis:"crypto_type"`
	Amount      float64         `json:"amount" redis:"amount"`
	RoundID     string          `json:"round_id,omitempty" redis:"round_id"`
	Description string          `json:"description" redis:"description"`
	CreatedAt   time.Time       `json:"created_at" redis:"created_at"`
}
