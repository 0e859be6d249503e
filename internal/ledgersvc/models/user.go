package models

import "time"

// User represents the users table in the database.
type User struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar,omitempty"`
	CurrentGameID *string   `json:"current_game_id"`
	IsAnonymous   bool      `json:"is_anonymous"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
