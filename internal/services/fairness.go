package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"crypto-crash-backend/internal/models"
)

// CrashFormula is published to clients so any revealed seed can be checked
// independently.
const CrashFormula = "r = uint32(sha256(seed)[0:4]) / 0xFFFFFFFF; point = min(100, max(1.01, 0.99 / (1 - r)))"

// CrashResult is the commit half of the commit-reveal scheme: SeedHash goes
// out before the round starts, Seed stays secret until the crash.
type CrashResult struct {
	CrashPoint float64
	Seed       []byte
	SeedHash   string
}

type CrashPointGenerator struct{}

func NewCrashPointGenerator() *CrashPointGenerator {
	return &CrashPointGenerator{}
}

// Generate draws a fresh 256-bit seed and derives the round's crash point
// from it. The same seed always yields the same crash point.
func (g *CrashPointGenerator) Generate() (*CrashResult, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("failed to draw seed: %v", err)
	}

	hash := sha256.Sum256(seed)

	return &CrashResult{
		CrashPoint: CrashPointFromSeed(seed),
		Seed:       seed,
		SeedHash:   hex.EncodeToString(hash[:]),
	}, nil
}

// CrashPointFromSeed is the fairness contract: a pure function of the seed,
// bit-for-bit reproducible by anyone holding the revealed seed.
func CrashPointFromSeed(seed []byte) float64 {
	hash := sha256.Sum256(seed)
	randomValue := float64(binary.BigEndian.Uint32(hash[:4])) / float64(0xFFFFFFFF)

	point := (1 / (1 - randomValue)) * 0.99

	// Floor first, then cap: randomValue near 1 drives the raw value toward
	// infinity and must land exactly on the cap.
	if point < 1.01 {
		point = 1.01
	}
	if point > 100.0 || math.IsInf(point, 1) {
		point = 100.0
	}

	return point
}

// VerifyCrashPoint recomputes the crash point from a revealed seed and, when
// the caller supplies the pre-round commitment, checks the seed against it.
func VerifyCrashPoint(seedHex, expectedSeedHash string) (float64, string, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return 0, "", models.ValidationError("seed is not valid hex")
	}

	hash := sha256.Sum256(seed)
	seedHash := hex.EncodeToString(hash[:])

	if expectedSeedHash != "" && seedHash != expectedSeedHash {
		return 0, seedHash, models.ValidationError("seed does not match published hash")
	}

	return CrashPointFromSeed(seed), seedHash, nil
}
