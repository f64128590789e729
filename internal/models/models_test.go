package models_test

import (
	"math"
	"testing"

	"crypto-crash-backend/internal/models"
)

func TestBetRequestValidate(t *testing.T) {
	valid := &models.BetRequest{USDAmount: 10, CryptoType: models.CryptoBTC}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid bet failed validation: %v", err)
	}

	tooSmall := &models.BetRequest{USDAmount: 0.5, CryptoType: models.CryptoBTC}
	if err := tooSmall.Validate(); err == nil {
		t.Error("bet below $1 should fail validation")
	} else if models.KindOf(err) != models.ErrValidation {
		t.Errorf("expected validation kind, got %s", models.KindOf(err))
	}

	tooBig := &models.BetRequest{USDAmount: 1001, CryptoType: models.CryptoETH}
	if err := tooBig.Validate(); err == nil {
		t.Error("bet above $1000 should fail validation")
	}

	badAsset := &models.BetRequest{USDAmount: 10, CryptoType: "SHIB"}
	if err := badAsset.Validate(); err == nil {
		t.Error("unsupported crypto type should fail validation")
	}

	// Boundary values are inclusive.
	for _, amount := range []float64{1, 1000} {
		req := &models.BetRequest{USDAmount: amount, CryptoType: models.CryptoSOL}
		if err := req.Validate(); err != nil {
			t.Errorf("bet of $%.0f should be accepted: %v", amount, err)
		}
	}
}

func TestNewWallet(t *testing.T) {
	wallet := models.NewWallet("alice")

	if wallet.PlayerID != "alice" {
		t.Errorf("expected player alice, got %s", wallet.PlayerID)
	}

	for _, asset := range models.SupportedCryptos {
		if wallet.Balances[asset] <= 0 {
			t.Errorf("starting balance for %s should be positive, got %f",
				asset, wallet.Balances[asset])
		}
	}
}

func TestRounding(t *testing.T) {
	// $10 at $65,000/BTC comes out at satoshi precision.
	got := models.RoundCrypto(10.0 / 65000.0)
	if got != 0.00015385 {
		t.Errorf("expected 0.00015385, got %.8f", got)
	}

	payout := models.CalculatePayout(0.00015385, 2.45)
	if payout != 0.00037693 {
		t.Errorf("expected payout 0.00037693, got %.8f", payout)
	}

	usd := models.RoundUSD(payout * 65000)
	if math.Abs(usd-24.50) > 1e-9 {
		t.Errorf("expected usd payout 24.50, got %.2f", usd)
	}
}

func TestErrorKinds(t *testing.T) {
	err := models.ConflictError("duplicate bet")
	if models.KindOf(err) != models.ErrConflict {
		t.Errorf("expected conflict kind, got %s", models.KindOf(err))
	}
	if err.Error() != "duplicate bet" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
