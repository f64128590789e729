package models

import "time"

type User struct {
	PlayerID     string    `json:"player_id" redis:"player_id"`
	Username     string    `json:"username" redis:"username"`
	PasswordHash string    `json:"-" redis:"password_hash"`
	CreatedAt    time.Time `json:"created_at" redis:"created_at"`
}

type UserSession struct {
	PlayerID     string    `json:"player_id"`
	SessionID    string    `json:"session_id"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
