package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

func (r *UserStore) CreateUser(ctx context.Context, user models.User) (string, error) {
	var userID string

	query := `
        INSERT INTO users (user_id, name, avatar, current_game_id, is_anonymous)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING user_id;
    `

	err := r.db.QueryRow(ctx, query,
		user.UserID, user.Name, user.Avatar, user.CurrentGameID, user.IsAnonymous,
	).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("could not create user: %w", err)
	}

	return userID, nil
}

// GetByID returns nil, nil when the user does not exist.
func (r *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `
        SELECT user_id, name, avatar, current_game_id, is_anonymous, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `, id)

	u := &models.User{}
	err := row.Scan(
		&u.UserID,
		&u.Name,
		&u.Avatar,
		&u.CurrentGameID,
		&u.IsAnonymous,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// SetCurrentGame points the user at a game, or clears the pointer when gameID
// is nil.
func (r *UserStore) SetCurrentGame(ctx context.Context, userID string, gameID *string) error {
	_, err := r.db.Exec(ctx, `
        UPDATE users SET current_game_id = $2, updated_at = now() WHERE user_id = $1
    `, userID, gameID)
	if err != nil {
		return fmt.Errorf("failed to set current game: %w", err)
	}
	return nil
}

func (r *UserStore) UpdateName(ctx context.Context, userID, name string) error {
	_, err := r.db.Exec(ctx, `
        UPDATE users SET name = $2, updated_at = now() WHERE user_id = $1
    `, userID, name)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}
	return nil
}
