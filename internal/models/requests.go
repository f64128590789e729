package models

const (
	MinBetUSD = 1.0
	MaxBetUSD = 1000.0
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type BetRequest struct {
	USDAmount  float64    `json:"usd_amount" binding:"required"`
	CryptoType CryptoType `json:"crypto_type" binding:"required"`
}

func (br *BetRequest) Validate() error {
	if br.USDAmount < MinBetUSD {
		return ValidationError("minimum bet is $%.0f", MinBetUSD)
	}
	if br.USDAmount > MaxBetUSD {
		return ValidationError("maximum bet is $%.0f", MaxBetUSD)
	}
	if !br.CryptoType.Valid() {
		return ValidationError("unsupported crypto type: %s", br.CryptoType)
	}
	return nil
}

type VerifyRequest struct {
	Seed     string `json:"seed" binding:"required"`
	SeedHash string `json:"seed_hash"`
}

type VerificationData struct {
	RoundID  string `json:"round_id"`
	SeedHash string `json:"seed_hash"`
	Formula  string `json:"formula"`
}
