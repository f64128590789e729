package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crypto-crash-backend/internal/config"
	"crypto-crash-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// WalletStore is the durable balance ledger consumed by the round engine.
// Debit and credit are atomic per player-and-asset.
type WalletStore interface {
	GetWallet(playerID string) (*models.Wallet, error)
	DebitBalance(playerID string, asset models.CryptoType, amount, usdAmount float64) error
	CreditBalance(playerID string, asset models.CryptoType, amount, usdAmount float64) error
	SaveTransaction(tx *models.Transaction) error
}

type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client: client,
		ctx:    ctx,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// GetWallet returns the player's wallet, creating one with the default
// starting balances if none exists.
func (s *RedisService) GetWallet(playerID string) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, playerID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		wallet := models.NewWallet(playerID)
		if err := s.SaveWallet(wallet); err != nil {
			return nil, models.PersistenceError("failed to create wallet: %v", err)
		}
		return wallet, nil
	}
	if err != nil {
		return nil, models.PersistenceError("failed to get wallet: %v", err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, models.PersistenceError("failed to unmarshal wallet: %v", err)
	}

	return &wallet, nil
}

func (s *RedisService) SaveWallet(wallet *models.Wallet) error {
	key := fmt.Sprintf(KeyWallet, wallet.PlayerID)

	wallet.UpdatedAt = time.Now()
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

// debitBalanceScript decrements one asset balance only when it covers the
// requested amount. Runs server-side so concurrent debits cannot interleave.
var debitBalanceScript = redis.NewScript(`
	local key = KEYS[1]
	local asset = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	local balance = wallet.balances[asset] or 0

	if balance < amount then
		return redis.error_reply("insufficient balance")
	end

	wallet.balances[asset] = balance - amount
	wallet.total_wagered = (wallet.total_wagered or 0) + tonumber(ARGV[3])

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) DebitBalance(playerID string, asset models.CryptoType, amount, usdAmount float64) error {
	key := fmt.Sprintf(KeyWallet, playerID)

	err := debitBalanceScript.Run(s.ctx, s.client, []string{key},
		string(asset), amount, usdAmount).Err()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient balance") {
			return models.InsufficientFundsError(
				"insufficient %s balance for debit of %.8f", asset, amount)
		}
		return models.PersistenceError("failed to debit wallet: %v", err)
	}

	return nil
}

var creditBalanceScript = redis.NewScript(`
	local key = KEYS[1]
	local asset = ARGV[1]
	local amount = tonumber(ARGV[2])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	wallet.balances[asset] = (wallet.balances[asset] or 0) + amount
	wallet.total_won = (wallet.total_won or 0) + tonumber(ARGV[3])

	redis.call("SET", key, cjson.encode(wallet))

	return "OK"
`)

func (s *RedisService) CreditBalance(playerID string, asset models.CryptoType, amount, usdAmount float64) error {
	key := fmt.Sprintf(KeyWallet, playerID)

	err := creditBalanceScript.Run(s.ctx, s.client, []string{key},
		string(asset), amount, usdAmount).Err()
	if err != nil {
		return models.PersistenceError("failed to credit wallet: %v", err)
	}

	return nil
}

func (s *RedisService) SaveTransaction(tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(s.ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, tx.PlayerID)
	score := float64(tx.CreatedAt.Unix())

	if err := s.client.ZAdd(s.ctx, userTxKey, redis.Z{
		Score:  score,
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to user transactions: %v", err)
	}

	// Keep only last 100 transactions
	s.client.ZRemRangeByRank(s.ctx, userTxKey, 0, -101)

	return nil
}

func (s *RedisService) GetUserTransactions(playerID string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, playerID)

	txIDs, err := s.client.ZRevRange(s.ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		txKey := fmt.Sprintf(KeyTransaction, txID)

		data, err := s.client.Get(s.ctx, txKey).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

func (s *RedisService) StoreUser(user *models.User) error {
	key := fmt.Sprintf(KeyUserInfo, user.PlayerID)

	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, TTLUserInfo).Err()
}

func (s *RedisService) GetUser(playerID string) (*models.User, error) {
	key := fmt.Sprintf(KeyUserInfo, playerID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = json.Unmarshal([]byte(data), &user)
	return &user, err
}

func (s *RedisService) StoreUserSession(session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.PlayerID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, expiry).Err()
}

func (s *RedisService) GetUserSession(playerID, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, playerID, sessionID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now()
	updatedData, _ := json.Marshal(session)
	s.client.Set(s.ctx, key, updatedData, TTLUserSession)

	return &session, nil
}

func (s *RedisService) DeleteUserSession(playerID, sessionID string) error {
	key := fmt.Sprintf(KeyUserSession, playerID, sessionID)
	return s.client.Del(s.ctx, key).Err()
}

func (s *RedisService) DeleteWallet(playerID string) error {
	key := fmt.Sprintf(KeyWallet, playerID)
	return s.client.Del(s.ctx, key).Err()
}
