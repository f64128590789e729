package models

import "time"

type RoundPhase string

const (
	PhaseBettingOpen RoundPhase = "betting_open"
	PhaseActive      RoundPhase = "active"
	PhaseCrashed     RoundPhase = "crashed"
)

type CryptoType string

const (
	CryptoBTC  CryptoType = "BTC"
	CryptoETH  CryptoType = "ETH"
	CryptoSOL  CryptoType = "SOL"
	CryptoDOGE CryptoType = "DOGE"
)

var SupportedCryptos = []CryptoType{CryptoBTC, CryptoETH, CryptoSOL, CryptoDOGE}

func (c CryptoType) Valid() bool {
	switch c {
	case CryptoBTC, CryptoETH, CryptoSOL, CryptoDOGE:
		return true
	}
	return false
}

// Bet is created on a successful placeBet and never mutated afterwards.
// PriceAtTime is the spot price snapshot taken when the bet was placed.
type Bet struct {
	PlayerID     string     `json:"player_id"`
	RoundID      string     `json:"round_id"`
	USDAmount    float64    `json:"usd_amount"`
	CryptoType   CryptoType `json:"crypto_type"`
	CryptoAmount float64    `json:"crypto_amount"`
	PriceAtTime  float64    `json:"price_at_time"`
	PlacedAt     time.Time  `json:"placed_at"`
}

// Cashout locks in the multiplier read at the instant the request was
// processed. USDPayout is priced at cashout-time spot.
type Cashout struct {
	PlayerID   string     `json:"player_id"`
	RoundID    string     `json:"round_id"`
	Multiplier float64    `json:"multiplier"`
	Payout     float64    `json:"payout"`
	USDPayout  float64    `json:"usd_payout"`
	CryptoType CryptoType `json:"crypto_type"`
	CashedAt   time.Time  `json:"cashed_at"`
}

// GameState is the public snapshot returned to clients. CrashPoint is nil
// until the round has crashed; the seed hash commitment is always visible.
type GameState struct {
	Phase          RoundPhase `json:"phase"`
	RoundID        string     `json:"round_id"`
	Multiplier     float64    `json:"multiplier"`
	CrashPoint     *float64   `json:"crash_point"`
	SeedHash       string     `json:"seed_hash"`
	PlayerCount    int        `json:"player_count"`
	CashedOutCount int        `json:"cashed_out_count"`
}

type RoundOutcome struct {
	PlayerID     string     `json:"player_id"`
	CryptoType   CryptoType `json:"crypto_type"`
	USDAmount    float64    `json:"usd_amount"`
	CryptoAmount float64    `json:"crypto_amount"`
	Won          bool       `json:"won"`
	Multiplier   float64    `json:"multiplier"`
	Payout       float64    `json:"payout"`
	USDPayout    float64    `json:"usd_payout"`
}

// RoundSummary is the append-only archive record written after each crash.
// Seed is revealed here so past rounds stay independently verifiable.
type RoundSummary struct {
	RoundID    string         `json:"round_id"`
	Seed       string         `json:"seed"`
	SeedHash   string         `json:"seed_hash"`
	CrashPoint float64        `json:"crash_point"`
	StartedAt  time.Time      `json:"started_at"`
	CrashedAt  time.Time      `json:"crashed_at"`
	BetCount   int            `json:"bet_count"`
	Cashouts   int            `json:"cashouts"`
	Outcomes   []RoundOutcome `json:"outcomes,omitempty"`
}
