package services_test

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

func TestCrashPointRange(t *testing.T) {
	gen := services.NewCrashPointGenerator()

	for i := 0; i < 1000; i++ {
		result, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		if result.CrashPoint < 1.01 || result.CrashPoint > 100.0 {
			t.Fatalf("crash point out of range: %f", result.CrashPoint)
		}
		if len(result.Seed) != 32 {
			t.Fatalf("expected 256-bit seed, got %d bytes", len(result.Seed))
		}
		if len(result.SeedHash) != 64 {
			t.Fatalf("expected sha256 hex hash, got %q", result.SeedHash)
		}
	}
}

func TestCrashPointDeterminism(t *testing.T) {
	gen := services.NewCrashPointGenerator()

	result, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	recomputed := services.CrashPointFromSeed(result.Seed)
	if recomputed != result.CrashPoint {
		t.Errorf("recomputed crash point %v != generated %v", recomputed, result.CrashPoint)
	}

	// The reveal: anyone holding the seed hex and the published hash can
	// reproduce the crash point exactly.
	verified, seedHash, err := services.VerifyCrashPoint(
		hex.EncodeToString(result.Seed), result.SeedHash)
	if err != nil {
		t.Fatalf("verification failed: %v", err)
	}
	if verified != result.CrashPoint {
		t.Errorf("verified crash point %v != generated %v", verified, result.CrashPoint)
	}
	if seedHash != result.SeedHash {
		t.Errorf("verified hash %s != published %s", seedHash, result.SeedHash)
	}
}

func TestVerifyRejectsBadInput(t *testing.T) {
	if _, _, err := services.VerifyCrashPoint("not-hex", ""); err == nil {
		t.Error("non-hex seed should fail verification")
	} else if models.KindOf(err) != models.ErrValidation {
		t.Errorf("expected validation kind, got %s", models.KindOf(err))
	}

	seed := make([]byte, 32)
	wrongHash := "0000000000000000000000000000000000000000000000000000000000000000"
	if _, _, err := services.VerifyCrashPoint(hex.EncodeToString(seed), wrongHash); err == nil {
		t.Error("seed not matching the commitment should fail verification")
	}
}

func TestCrashPointFloor(t *testing.T) {
	// Scan a fixed seed sequence until one lands on the 1.01 floor; roughly
	// 2% of the seed space does.
	found := false
	for i := uint64(0); i < 2000; i++ {
		seed := make([]byte, 32)
		binary.BigEndian.PutUint64(seed, i)

		point := services.CrashPointFromSeed(seed)
		if point < 1.01 {
			t.Fatalf("crash point below floor: %v", point)
		}
		if point == 1.01 {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one seed on the 1.01 floor")
	}
}
