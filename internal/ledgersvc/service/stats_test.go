package service

import (
	"context"
	"testing"
	"time"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"
)

func concludedGame(id, winner string, players []string, startedAt time.Time, length time.Duration) *models.Game {
	endedAt := startedAt.Add(length)
	g := &models.Game{
		ID:                 id,
		StartingCapital:    1500,
		Salary:             200,
		StartingTimestamp:  &startedAt,
		EndingTimestamp:    &endedAt,
		WinnerID:           &winner,
		Players:            []models.Player{},
		TransactionHistory: []models.Transaction{},
		Version:            1,
	}
	for i, p := range players {
		g.Players = append(g.Players, models.Player{
			UserID: p, Name: p, Balance: 1500, Color: playerColors[i],
		})
	}
	return g
}

func TestRecentGames(t *testing.T) {
	fake := newFakeStore()
	s := NewLedgerService(fake, fake, quartz.NewMock(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fake.games["AAAA"] = concludedGame("AAAA", "alice", []string{"alice", "bob"}, base, time.Hour)
	fake.games["BBBB"] = concludedGame("BBBB", "bob", []string{"alice", "bob"}, base.Add(2*time.Hour), time.Hour)
	fake.games["CCCC"] = concludedGame("CCCC", "carol", []string{"bob", "carol"}, base.Add(4*time.Hour), time.Hour)

	// a running game never shows up
	fake.games["DDDD"] = &models.Game{ID: "DDDD", Players: []models.Player{{UserID: "alice"}}, Version: 1}

	games, err := s.RecentGames(ctx, 2)
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.Equal(t, "CCCC", games[0].ID)
	require.Equal(t, "BBBB", games[1].ID)

	// zero limit falls back to the default
	games, err = s.RecentGames(ctx, 0)
	require.NoError(t, err)
	require.Len(t, games, 3)
}

func TestUserStats(t *testing.T) {
	fake := newFakeStore()
	s := NewLedgerService(fake, fake, quartz.NewMock(t))
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	fake.games["AAAA"] = concludedGame("AAAA", "alice", []string{"alice", "bob"}, base, time.Hour)
	fake.games["BBBB"] = concludedGame("BBBB", "bob", []string{"alice", "bob"}, base.Add(2*time.Hour), 30*time.Minute)
	fake.games["CCCC"] = concludedGame("CCCC", "carol", []string{"bob", "carol"}, base.Add(4*time.Hour), time.Hour)

	// concluded game missing its start contributes a win but no play time
	odd := concludedGame("EEEE", "alice", []string{"alice", "carol"}, base, time.Hour)
	odd.StartingTimestamp = nil
	fake.games["EEEE"] = odd

	stats, err := s.UserStats(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalGames)
	require.Equal(t, 2, stats.WonGames)
	require.Equal(t, time.Hour+30*time.Minute, stats.TotalPlayTime)

	stats, err = s.UserStats(ctx, "nobody")
	require.NoError(t, err)
	require.Zero(t, stats.TotalGames)
	require.Zero(t, stats.WonGames)
	require.Zero(t, stats.TotalPlayTime)
}
