package services

import "time"

const (
	KeyUserSession      = "user:%s:session:%s"
	KeyUserInfo         = "user:%s:info"
	KeyWallet           = "wallet:%s"
	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%s:transactions"

	TTLUserSession = 24 * time.Hour
	TTLUserInfo    = 30 * 24 * time.Hour // 30 days
	TTLTransaction = 30 * 24 * time.Hour // 30 days
)
