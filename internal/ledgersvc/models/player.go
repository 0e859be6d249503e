package models

import "time"

// Player is one entry of a game's jsonb roster, not a table of its own.
type Player struct {
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Balance           int        `json:"balance"` // may go negative
	Color             string     `json:"color"`   // palette entry by join order
	BankruptTimestamp *time.Time `json:"bankrupt_timestamp"`
	IsGameCreator     bool       `json:"is_game_creator"`
}

// Bankrupt reports whether the one-way bankruptcy flag has been set. The flag
// stays set even if a later transfer pushes the balance positive again.
func (p *Player) Bankrupt() bool {
	return p.BankruptTimestamp != nil
}
