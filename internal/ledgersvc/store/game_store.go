package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateGame is returned when an insert collides with an existing game
// code, so the caller can redraw.
var ErrDuplicateGame = errors.New("game code already taken")

type GameStore struct {
	db *pgxpool.Pool
}

func NewGameStore(db *pgxpool.Pool) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, starting_capital, salary, enable_free_parking, free_parking_money,
		players, transaction_history, starting_timestamp, ending_timestamp, winner_id,
		version, created_at, updated_at`

func scanGame(row pgx.Row) (*models.Game, error) {
	game := &models.Game{}
	err := row.Scan(
		&game.ID,
		&game.StartingCapital,
		&game.Salary,
		&game.EnableFreeParking,
		&game.FreeParkingMoney,
		&game.Players,
		&game.TransactionHistory,
		&game.StartingTimestamp,
		&game.EndingTimestamp,
		&game.WinnerID,
		&game.Version,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

// GetGameByID loads the full game row. Returns nil, nil when no such game
// exists.
func (s *GameStore) GetGameByID(ctx context.Context, gameID string) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE id = $1
	`

	game, err := scanGame(s.db.QueryRow(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}

	return game, nil
}

// InsertGame creates a fresh game row at version 1. A unique violation on the
// game code surfaces as ErrDuplicateGame.
func (s *GameStore) InsertGame(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (id, starting_capital, salary, enable_free_parking, free_parking_money,
			players, transaction_history, starting_timestamp, ending_timestamp, winner_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
	`

	_, err := s.db.Exec(ctx, query,
		game.ID,
		game.StartingCapital,
		game.Salary,
		game.EnableFreeParking,
		game.FreeParkingMoney,
		game.Players,
		game.TransactionHistory,
		game.StartingTimestamp,
		game.EndingTimestamp,
		game.WinnerID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateGame
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}

	return nil
}

// UpdateGameIfVersion writes the full row back, guarded by the version counter
// the caller read. Returns false when the row changed underneath the caller
// (or was deleted) so the read-modify-write can be retried.
func (s *GameStore) UpdateGameIfVersion(ctx context.Context, game *models.Game, version int64) (bool, error) {
	query := `
		UPDATE games
		SET starting_capital = $2, salary = $3, enable_free_parking = $4, free_parking_money = $5,
			players = $6, transaction_history = $7, starting_timestamp = $8, ending_timestamp = $9,
			winner_id = $10, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $11
	`

	tag, err := s.db.Exec(ctx, query,
		game.ID,
		game.StartingCapital,
		game.Salary,
		game.EnableFreeParking,
		game.FreeParkingMoney,
		game.Players,
		game.TransactionHistory,
		game.StartingTimestamp,
		game.EndingTimestamp,
		game.WinnerID,
		version,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update game: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// DeleteGame removes the row outright; the realtime feed turns this into a
// delete event for every watcher.
func (s *GameStore) DeleteGame(ctx context.Context, gameID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

// ListConcludedGames returns games that have both a winner and an ending
// timestamp, newest first. limit <= 0 means no limit (full scan for stats).
func (s *GameStore) ListConcludedGames(ctx context.Context, limit int) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE winner_id IS NOT NULL AND ending_timestamp IS NOT NULL
		ORDER BY ending_timestamp DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list concluded games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	return games, rows.Err()
}
