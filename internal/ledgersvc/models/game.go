package models

import "time"

// Transaction types recognized by the ledger.
const (
	TxFromBank        = "fromBank"
	TxToBank          = "toBank"
	TxToPlayer        = "toPlayer"
	TxToFreeParking   = "toFreeParking"
	TxFromFreeParking = "fromFreeParking"
	TxFromSalary      = "fromSalary"
)

// Game is one row of the games table. Players and TransactionHistory are
// stored as jsonb and always written back whole.
type Game struct {
	ID                 string        `json:"id"` // 4-char join code, uppercase
	StartingCapital    int           `json:"starting_capital"`
	Salary             int           `json:"salary"`
	EnableFreeParking  bool          `json:"enable_free_parking"`
	FreeParkingMoney   int           `json:"free_parking_money"`
	Players            []Player      `json:"players"`             // join order
	TransactionHistory []Transaction `json:"transaction_history"` // most recent first
	StartingTimestamp  *time.Time    `json:"starting_timestamp"`
	EndingTimestamp    *time.Time    `json:"ending_timestamp"`
	WinnerID           *string       `json:"winner_id"`
	Version            int64         `json:"version"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type Transaction struct {
	FromUserID *string   `json:"from_user_id"`
	ToUserID   *string   `json:"to_user_id"`
	Amount     int       `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
	Type       string    `json:"type"`
}

// PlayerIndex returns the position of userID in the roster, or -1.
func (g *Game) PlayerIndex(userID string) int {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Started reports whether the creator has started the game.
func (g *Game) Started() bool {
	return g.StartingTimestamp != nil
}

// Concluded reports whether a winner has been determined.
func (g *Game) Concluded() bool {
	return g.WinnerID != nil && g.EndingTimestamp != nil
}
