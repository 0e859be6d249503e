package service

import (
	"context"
	"time"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"
)

const defaultRecentGamesLimit = 10

// UserStats aggregates a user's concluded games.
type UserStats struct {
	TotalGames    int           `json:"total_games"`
	WonGames      int           `json:"won_games"`
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// RecentGames returns the most recently concluded games, newest first.
func (s *LedgerService) RecentGames(ctx context.Context, limit int) ([]*models.Game, error) {
	if limit <= 0 {
		limit = defaultRecentGamesLimit
	}
	return s.games.ListConcludedGames(ctx, limit)
}

// UserStats scans all concluded games the user played in. Games missing
// either timestamp contribute nothing to the play time.
func (s *LedgerService) UserStats(ctx context.Context, userID string) (UserStats, error) {
	games, err := s.games.ListConcludedGames(ctx, 0)
	if err != nil {
		return UserStats{}, err
	}

	var stats UserStats
	for _, g := range games {
		if g.PlayerIndex(userID) < 0 {
			continue
		}
		stats.TotalGames++
		if g.WinnerID != nil && *g.WinnerID == userID {
			stats.WonGames++
		}
		if g.StartingTimestamp != nil && g.EndingTimestamp != nil {
			stats.TotalPlayTime += g.EndingTimestamp.Sub(*g.StartingTimestamp)
		}
	}

	return stats, nil
}
