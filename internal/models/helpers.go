package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

func GenerateRoundID() string {
	return fmt.Sprintf("round_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// RoundCrypto rounds crypto amounts to 8 decimal places (satoshi precision).
func RoundCrypto(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// RoundUSD rounds dollar amounts to cents.
func RoundUSD(v float64) float64 {
	return math.Round(v*100) / 100
}

func CalculatePayout(cryptoAmount, multiplier float64) float64 {
	return RoundCrypto(cryptoAmount * multiplier)
}
