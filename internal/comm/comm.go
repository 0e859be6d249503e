package comm

import (
	"encoding/json"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"
)

// WSMessage is the envelope every message between web client, socket service
// and ledger service travels in.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "join-game", "make-transaction"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// LedgerResult is the {success, error} shaped reply for a ledger operation,
// sent back to the requesting socket only.
type LedgerResult struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	GameID  string       `json:"game_id,omitempty"`
	Game    *models.Game `json:"game,omitempty"`
}

// GameSnapshot is the level-triggered full-row event fanned out to every
// socket watching a game. Deleted means the row is gone and clients should
// clear their local state.
type GameSnapshot struct {
	GameID  string       `json:"game_id"`
	Deleted bool         `json:"deleted"`
	Game    *models.Game `json:"game,omitempty"`
}

// PlayerData identifies the connected user after an init exchange.
type PlayerData struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type RecentGamesData struct {
	Games []*models.Game `json:"games"`
}

type UserStatsData struct {
	TotalGames      int   `json:"total_games"`
	WonGames        int   `json:"won_games"`
	TotalPlayTimeMs int64 `json:"total_play_time_ms"`
}
