package services

import (
	"context"
	"encoding/hex"
	"log"
	"math"
	"sync"
	"time"

	"crypto-crash-backend/internal/config"
	"crypto-crash-backend/internal/models"
)

// roundState is the arena for one shared round: its maps are created fresh
// each cycle and discarded wholesale, never mutated from outside the manager.
// An entry in bets or cashouts is pending until its wallet write lands; a
// pending entry reserves the slot but pays nothing and settles nothing.
type roundState struct {
	id         string
	phase      models.RoundPhase
	seed       []byte
	seedHash   string
	crashPoint float64
	startTime  time.Time
	bets       map[string]*models.Bet
	cashouts   map[string]*models.Cashout

	pendingBets     map[string]struct{}
	pendingCashouts map[string]struct{}
}

// RoundManager owns the single shared round and drives it through
// betting_open -> active -> crashed forever. All round state lives behind
// one mutex; wallet balances are mutated only through the store's atomic
// increments, so different players never serialize on anything beyond the
// phase check.
type RoundManager struct {
	mu sync.Mutex

	wallets     WalletStore
	prices      PriceOracle
	archive     RoundArchive
	broadcaster Broadcaster
	gen         *CrashPointGenerator

	bettingDuration time.Duration
	displayDuration time.Duration
	tickInterval    time.Duration
	growthRate      float64

	now func() time.Time

	round *roundState
}

func NewRoundManager(cfg *config.Config, wallets WalletStore, prices PriceOracle,
	archive RoundArchive, broadcaster Broadcaster) *RoundManager {
	return &RoundManager{
		wallets:         wallets,
		prices:          prices,
		archive:         archive,
		broadcaster:     broadcaster,
		gen:             NewCrashPointGenerator(),
		bettingDuration: cfg.BettingDuration,
		displayDuration: cfg.CrashDisplayDuration,
		tickInterval:    cfg.TickInterval,
		growthRate:      cfg.GrowthRate,
		now:             time.Now,
	}
}

// Run cycles rounds until ctx is cancelled. Pending phase timers die with
// the context instead of firing into torn-down state.
func (rm *RoundManager) Run(ctx context.Context) {
	for {
		if err := rm.openBetting(); err != nil {
			log.Printf("failed to open betting: %v", err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		if !sleepCtx(ctx, rm.bettingDuration) {
			return
		}

		rm.startRound()

		if !rm.runActive(ctx) {
			return
		}

		if !sleepCtx(ctx, rm.displayDuration) {
			return
		}
	}
}

// openBetting commits to a crash point for the upcoming round and resets the
// per-round maps. The seed hash is visible to clients from this moment on.
func (rm *RoundManager) openBetting() error {
	result, err := rm.gen.Generate()
	if err != nil {
		return err
	}

	rm.mu.Lock()
	rm.round = &roundState{
		id:         models.GenerateRoundID(),
		phase:      models.PhaseBettingOpen,
		seed:       result.Seed,
		seedHash:   result.SeedHash,
		crashPoint: result.CrashPoint,
		bets:       make(map[string]*models.Bet),
		cashouts:   make(map[string]*models.Cashout),

		pendingBets:     make(map[string]struct{}),
		pendingCashouts: make(map[string]struct{}),
	}
	roundID := rm.round.id
	rm.mu.Unlock()

	log.Printf("round %s: betting open for %s", roundID, rm.bettingDuration)
	rm.broadcaster.BroadcastBettingOpen(roundID, rm.bettingDuration)

	return nil
}

func (rm *RoundManager) startRound() {
	rm.mu.Lock()
	r := rm.round
	r.phase = models.PhaseActive
	r.startTime = rm.now()
	roundID, seedHash := r.id, r.seedHash
	rm.mu.Unlock()

	log.Printf("round %s: active", roundID)
	rm.broadcaster.BroadcastRoundStart(roundID, seedHash)
}

// runActive ticks the multiplier until the round crashes or ctx dies. The
// ticker never outlives the active phase.
func (rm *RoundManager) runActive(ctx context.Context) bool {
	ticker := time.NewTicker(rm.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if rm.tick() {
				return true
			}
		}
	}
}

// tick recomputes the multiplier from elapsed wall-clock time; missed ticks
// under load never desynchronize the value from real time. Returns true once
// the round has crashed.
func (rm *RoundManager) tick() bool {
	rm.mu.Lock()
	r := rm.round
	if r.phase != models.PhaseActive {
		// A cashout observed the crash first and committed the transition.
		rm.mu.Unlock()
		return true
	}

	m := rm.multiplierAt(r, rm.now())
	if m >= r.crashPoint {
		summary := rm.crashLocked(r)
		rm.mu.Unlock()
		rm.finishCrash(r, summary)
		return true
	}

	roundID := r.id
	rm.mu.Unlock()

	rm.broadcaster.BroadcastMultiplier(roundID, m)
	return false
}

// multiplierAt is the single multiplier source shared by ticks, cashouts and
// state snapshots. Displayed and paid at two decimal places.
func (rm *RoundManager) multiplierAt(r *roundState, t time.Time) float64 {
	elapsed := t.Sub(r.startTime).Seconds()
	if elapsed < 0 {
		return 1.0
	}
	return math.Round((1+elapsed*rm.growthRate)*100) / 100
}

// crashLocked commits the transition to crashed and snapshots the round for
// the archive. Caller holds the lock.
func (rm *RoundManager) crashLocked(r *roundState) *models.RoundSummary {
	r.phase = models.PhaseCrashed

	summary := &models.RoundSummary{
		RoundID:    r.id,
		Seed:       hex.EncodeToString(r.seed),
		SeedHash:   r.seedHash,
		CrashPoint: r.crashPoint,
		StartedAt:  r.startTime,
		CrashedAt:  rm.now(),
	}

	// Only settled entries reach the archive: a pending wallet write can
	// still fail and roll its entry back.
	for playerID, bet := range r.bets {
		if _, pending := r.pendingBets[playerID]; pending {
			continue
		}
		outcome := models.RoundOutcome{
			PlayerID:     playerID,
			CryptoType:   bet.CryptoType,
			USDAmount:    bet.USDAmount,
			CryptoAmount: bet.CryptoAmount,
		}
		if cashout, ok := r.cashouts[playerID]; ok {
			if _, pending := r.pendingCashouts[playerID]; !pending {
				outcome.Won = true
				outcome.Multiplier = cashout.Multiplier
				outcome.Payout = cashout.Payout
				outcome.USDPayout = cashout.USDPayout
			}
		}
		if outcome.Won {
			summary.Cashouts++
		}
		summary.BetCount++
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	return summary
}

func (rm *RoundManager) finishCrash(r *roundState, summary *models.RoundSummary) {
	log.Printf("round %s: crashed at %.2fx with %d bets, %d cashouts",
		summary.RoundID, summary.CrashPoint, summary.BetCount, summary.Cashouts)

	rm.broadcaster.BroadcastCrash(summary.RoundID, summary.CrashPoint, summary.Seed)

	if rm.archive != nil {
		go func() {
			if err := rm.archive.ArchiveRound(summary); err != nil {
				log.Printf("failed to archive round %s: %v", summary.RoundID, err)
			}
		}()
	}
}

// PlaceBet validates, snapshots the current price, atomically debits the
// wallet and records the bet. The debit and the map insertion are one
// logical unit: a failed debit leaves no bet behind.
func (rm *RoundManager) PlaceBet(playerID string, req *models.BetRequest) (*models.Bet, error) {
	if playerID == "" {
		return nil, models.ValidationError("player id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// First touch creates the wallet with default balances.
	if _, err := rm.wallets.GetWallet(playerID); err != nil {
		return nil, err
	}

	price, err := rm.prices.GetPrice(req.CryptoType)
	if err != nil {
		return nil, err
	}
	cryptoAmount := models.RoundCrypto(req.USDAmount / price)

	rm.mu.Lock()
	r := rm.round
	if r == nil || r.phase != models.PhaseBettingOpen {
		rm.mu.Unlock()
		return nil, models.StateError("betting is closed")
	}
	if _, exists := r.bets[playerID]; exists {
		rm.mu.Unlock()
		return nil, models.ConflictError("duplicate bet: player already bet this round")
	}

	bet := &models.Bet{
		PlayerID:     playerID,
		RoundID:      r.id,
		USDAmount:    req.USDAmount,
		CryptoType:   req.CryptoType,
		CryptoAmount: cryptoAmount,
		PriceAtTime:  price,
		PlacedAt:     rm.now(),
	}
	// Reserve the slot before the debit so a concurrent duplicate fails fast
	// and the debit itself runs outside the round lock. The reservation stays
	// pending until the debit lands; Cashout rejects pending bets.
	r.bets[playerID] = bet
	r.pendingBets[playerID] = struct{}{}
	rm.mu.Unlock()

	if err := rm.wallets.DebitBalance(playerID, req.CryptoType, cryptoAmount, req.USDAmount); err != nil {
		rm.mu.Lock()
		if rm.round == r {
			delete(r.bets, playerID)
			delete(r.pendingBets, playerID)
		}
		rm.mu.Unlock()
		return nil, err
	}

	rm.mu.Lock()
	stale := rm.round != r
	if !stale {
		delete(r.pendingBets, playerID)
	}
	rm.mu.Unlock()
	if stale {
		// The debit landed after this round was torn down; refund rather
		// than keep a bet no round can pay out.
		if err := rm.wallets.CreditBalance(playerID, req.CryptoType, cryptoAmount, 0); err != nil {
			log.Printf("failed to refund stale bet for %s: %v", playerID, err)
		}
		return nil, models.StateError("betting is closed")
	}

	rm.recordTransaction(playerID, models.TransactionTypeBet, req.CryptoType,
		-cryptoAmount, bet.RoundID, "crash bet placed")
	rm.broadcaster.BroadcastPlayerBet(bet)

	return bet, nil
}

// Cashout locks in the multiplier read at the instant of processing. The
// read is linearized against the crash transition under the round lock: a
// cashout that observes the crash point as already reached commits the crash
// itself and fails, so no payout can exceed the crash point between ticks.
func (rm *RoundManager) Cashout(playerID string) (*models.Cashout, error) {
	if playerID == "" {
		return nil, models.ValidationError("player id is required")
	}

	rm.mu.Lock()
	r := rm.round
	if r == nil {
		rm.mu.Unlock()
		return nil, models.StateError("no bet placed this round")
	}
	bet, ok := r.bets[playerID]
	if !ok {
		rm.mu.Unlock()
		return nil, models.StateError("no bet placed this round")
	}
	if _, pending := r.pendingBets[playerID]; pending {
		rm.mu.Unlock()
		return nil, models.StateError("bet is still settling")
	}
	if r.phase != models.PhaseActive {
		rm.mu.Unlock()
		return nil, models.StateError("round is not active")
	}
	if _, exists := r.cashouts[playerID]; exists {
		rm.mu.Unlock()
		return nil, models.ConflictError("already cashed out this round")
	}
	rm.mu.Unlock()

	// Spot price for the USD figure; the oracle degrades internally and the
	// bet's own snapshot is the last resort.
	price, err := rm.prices.GetPrice(bet.CryptoType)
	if err != nil || price <= 0 {
		price = bet.PriceAtTime
	}

	rm.mu.Lock()
	if rm.round != r || r.phase != models.PhaseActive {
		rm.mu.Unlock()
		return nil, models.StateError("round is not active")
	}
	// The bet may have been rolled back by a failed debit in the meantime.
	if current, ok := r.bets[playerID]; !ok || current != bet {
		rm.mu.Unlock()
		return nil, models.StateError("no bet placed this round")
	}
	if _, pending := r.pendingBets[playerID]; pending {
		rm.mu.Unlock()
		return nil, models.StateError("bet is still settling")
	}
	if _, exists := r.cashouts[playerID]; exists {
		rm.mu.Unlock()
		return nil, models.ConflictError("already cashed out this round")
	}

	m := rm.multiplierAt(r, rm.now())
	if m >= r.crashPoint {
		summary := rm.crashLocked(r)
		rm.mu.Unlock()
		rm.finishCrash(r, summary)
		return nil, models.StateError("round has crashed")
	}

	payout := models.CalculatePayout(bet.CryptoAmount, m)
	cashout := &models.Cashout{
		PlayerID:   playerID,
		RoundID:    r.id,
		Multiplier: m,
		Payout:     payout,
		USDPayout:  models.RoundUSD(payout * price),
		CryptoType: bet.CryptoType,
		CashedAt:   rm.now(),
	}
	// Reserve: the second of two racing cashouts must see this entry. It
	// stays pending until the credit lands.
	r.cashouts[playerID] = cashout
	r.pendingCashouts[playerID] = struct{}{}
	rm.mu.Unlock()

	if err := rm.wallets.CreditBalance(playerID, bet.CryptoType, payout, cashout.USDPayout); err != nil {
		rm.mu.Lock()
		if rm.round == r {
			delete(r.cashouts, playerID)
			delete(r.pendingCashouts, playerID)
		}
		rm.mu.Unlock()
		return nil, err
	}

	rm.mu.Lock()
	if rm.round == r {
		delete(r.pendingCashouts, playerID)
	}
	rm.mu.Unlock()

	rm.recordTransaction(playerID, models.TransactionTypeWin, bet.CryptoType,
		payout, cashout.RoundID, "crash cashout")
	rm.broadcaster.BroadcastPlayerCashout(cashout)
	rm.broadcaster.NotifyCashoutSuccess(playerID, cashout)

	return cashout, nil
}

// GetGameState snapshots the round for clients. The crash point stays hidden
// until the round has crashed; the seed hash commitment is always visible.
func (rm *RoundManager) GetGameState() *models.GameState {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	r := rm.round
	if r == nil {
		return &models.GameState{Phase: models.PhaseBettingOpen, Multiplier: 1.0}
	}

	state := &models.GameState{
		Phase:          r.phase,
		RoundID:        r.id,
		SeedHash:       r.seedHash,
		PlayerCount:    len(r.bets),
		CashedOutCount: len(r.cashouts),
	}

	switch r.phase {
	case models.PhaseBettingOpen:
		state.Multiplier = 1.0
	case models.PhaseActive:
		m := rm.multiplierAt(r, rm.now())
		if m > r.crashPoint {
			m = r.crashPoint
		}
		state.Multiplier = m
	case models.PhaseCrashed:
		state.Multiplier = r.crashPoint
		crashPoint := r.crashPoint
		state.CrashPoint = &crashPoint
	}

	return state
}

// GetVerificationData exposes the commit half of the current round.
func (rm *RoundManager) GetVerificationData() *models.VerificationData {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	data := &models.VerificationData{Formula: CrashFormula}
	if rm.round != nil {
		data.RoundID = rm.round.id
		data.SeedHash = rm.round.seedHash
	}
	return data
}

func (rm *RoundManager) GetPrices() map[models.CryptoType]float64 {
	return rm.prices.GetPrices()
}

func (rm *RoundManager) GetOrCreateWallet(playerID string) (*models.Wallet, error) {
	return rm.wallets.GetWallet(playerID)
}

func (rm *RoundManager) recordTransaction(playerID string, txType models.TransactionType,
	asset models.CryptoType, amount float64, roundID, description string) {
	tx := &models.Transaction{
		ID:          models.GenerateTransactionID(),
		PlayerID:    playerID,
		Type:        txType,
		CryptoType:  asset,
		Amount:      amount,
		RoundID:     roundID,
		Description: description,
		CreatedAt:   rm.now(),
	}
	if err := rm.wallets.SaveTransaction(tx); err != nil {
		log.Printf("failed to record transaction for %s: %v", playerID, err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
