package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"
	"github.com/banknote-app/banknote-services/internal/ledgersvc/store"

	"github.com/coder/quartz"
)

const (
	MaxPlayers = 6

	gameCodeLength   = 4
	gameCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// attempts per read-modify-write before giving up on a version conflict
	writeAttempts = 3
)

// Palette assigned by join order, so each seat has a distinct color.
var playerColors = [MaxPlayers]string{
	"#2196F3", // blue
	"#009688", // teal
	"#4CAF50", // green
	"#FFEB3B", // yellow
	"#FF9800", // orange
	"#F44336", // red
}

type GameRepository interface {
	GetGameByID(ctx context.Context, gameID string) (*models.Game, error)
	InsertGame(ctx context.Context, game *models.Game) error
	UpdateGameIfVersion(ctx context.Context, game *models.Game, version int64) (bool, error)
	DeleteGame(ctx context.Context, gameID string) error
	ListConcludedGames(ctx context.Context, limit int) ([]*models.Game, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user models.User) (string, error)
	SetCurrentGame(ctx context.Context, userID string, gameID *string) error
	UpdateName(ctx context.Context, userID, name string) error
}

// LedgerService owns every state transition of a game row. Each mutation is a
// read-modify-write of the whole row guarded by the games.version counter.
type LedgerService struct {
	games GameRepository
	users UserRepository
	clock quartz.Clock
}

func NewLedgerService(games GameRepository, users UserRepository, clock quartz.Clock) *LedgerService {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &LedgerService{games: games, users: users, clock: clock}
}

// GameByID returns the current full row, or nil when the game is gone.
func (s *LedgerService) GameByID(ctx context.Context, gameID string) (*models.Game, error) {
	return s.games.GetGameByID(ctx, strings.ToUpper(gameID))
}

type GameSettings struct {
	StartingCapital   int  `json:"starting_capital"`
	Salary            int  `json:"salary"`
	EnableFreeParking bool `json:"enable_free_parking"`
}

func (s *LedgerService) newGameCode() string {
	b := make([]byte, gameCodeLength)
	for i := range b {
		b[i] = gameCodeAlphabet[rand.IntN(len(gameCodeAlphabet))]
	}
	return string(b)
}

// CreateGame inserts an empty game under a fresh 4-char code and auto-joins
// the creator as the first player.
func (s *LedgerService) CreateGame(ctx context.Context, settings GameSettings, creatorID string) (*models.Game, error) {
	var gameID string
	for {
		gameID = s.newGameCode()

		existing, err := s.games.GetGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue // code taken, redraw
		}

		game := &models.Game{
			ID:                 gameID,
			StartingCapital:    settings.StartingCapital,
			Salary:             settings.Salary,
			EnableFreeParking:  settings.EnableFreeParking,
			FreeParkingMoney:   0,
			Players:            []models.Player{},
			TransactionHistory: []models.Transaction{},
		}

		err = s.games.InsertGame(ctx, game)
		if errors.Is(err, store.ErrDuplicateGame) {
			// lost the race between the existence check and the insert
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	return s.JoinGame(ctx, gameID, creatorID, true)
}

// JoinGame appends the user to the roster. Re-joining an already-joined game
// is a no-op used for reconnects; either way the user's current-game pointer
// is repointed here.
func (s *LedgerService) JoinGame(ctx context.Context, gameID, userID string, isCreator bool) (*models.Game, error) {
	gameID = strings.ToUpper(gameID)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var game *models.Game
	for attempt := 0; ; attempt++ {
		game, err = s.games.GetGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, ErrGameNotFound
		}

		if game.PlayerIndex(userID) >= 0 {
			break // already seated
		}
		if game.Started() {
			return nil, ErrGameStarted
		}
		if len(game.Players) >= MaxPlayers {
			return nil, ErrGameFull
		}

		game.Players = append(game.Players, models.Player{
			UserID:        userID,
			Name:          user.Name,
			Balance:       game.StartingCapital,
			Color:         playerColors[len(game.Players)],
			IsGameCreator: isCreator,
		})

		ok, err := s.games.UpdateGameIfVersion(ctx, game, game.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			game.Version++
			break
		}
		if attempt+1 >= writeAttempts {
			return nil, ErrWriteConflict
		}
	}

	if err := s.users.SetCurrentGame(ctx, userID, &gameID); err != nil {
		return nil, err
	}

	return game, nil
}

// StartGame stamps the starting timestamp. Player-count gating is left to the
// view layer, same as the original app.
func (s *LedgerService) StartGame(ctx context.Context, gameID string) (*models.Game, error) {
	gameID = strings.ToUpper(gameID)

	for attempt := 0; ; attempt++ {
		game, err := s.games.GetGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, ErrGameNotFound
		}

		now := s.clock.Now().UTC()
		game.StartingTimestamp = &now

		ok, err := s.games.UpdateGameIfVersion(ctx, game, game.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			game.Version++
			return game, nil
		}
		if attempt+1 >= writeAttempts {
			return nil, ErrWriteConflict
		}
	}
}

// LeaveGame removes the user from their current game. The sole remaining
// player deletes the row outright; otherwise a non-bankrupt balance is settled
// to the bank before the roster entry is pruned. Returns deleted=true when the
// whole game row went away.
func (s *LedgerService) LeaveGame(ctx context.Context, userID string) (*models.Game, bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, ErrUserNotFound
	}
	if user.CurrentGameID == nil {
		return nil, false, nil
	}

	game, err := s.games.GetGameByID(ctx, *user.CurrentGameID)
	if err != nil {
		return nil, false, err
	}
	if game == nil {
		return nil, false, s.users.SetCurrentGame(ctx, userID, nil)
	}

	idx := game.PlayerIndex(userID)
	if idx < 0 {
		return game, false, s.users.SetCurrentGame(ctx, userID, nil)
	}

	if len(game.Players) == 1 {
		if err := s.games.DeleteGame(ctx, game.ID); err != nil {
			return nil, false, err
		}
		// game is the last pre-delete snapshot so callers still see the id
		return game, true, s.users.SetCurrentGame(ctx, userID, nil)
	}

	player := game.Players[idx]
	if game.WinnerID == nil && !player.Bankrupt() && player.Balance > 0 {
		// settle the departing balance into the bank
		if _, err := s.MakeTransaction(ctx, TransactionRequest{
			GameID:     game.ID,
			Type:       models.TxToBank,
			Amount:     player.Balance,
			FromUserID: userID,
		}); err != nil {
			return nil, false, err
		}
	}

	for attempt := 0; ; attempt++ {
		reread, err := s.games.GetGameByID(ctx, game.ID)
		if err != nil {
			return nil, false, err
		}
		if reread == nil {
			return game, true, s.users.SetCurrentGame(ctx, userID, nil)
		}
		game = reread

		idx = game.PlayerIndex(userID)
		if idx < 0 {
			break
		}
		game.Players = append(game.Players[:idx], game.Players[idx+1:]...)

		ok, err := s.games.UpdateGameIfVersion(ctx, game, game.Version)
		if err != nil {
			return nil, false, err
		}
		if ok {
			game.Version++
			break
		}
		if attempt+1 >= writeAttempts {
			return nil, false, ErrWriteConflict
		}
	}

	return game, false, s.users.SetCurrentGame(ctx, userID, nil)
}

// KickPlayer removes the target's roster entry. Only the game creator may
// kick; the check lives here rather than in the view.
func (s *LedgerService) KickPlayer(ctx context.Context, gameID, callerID, targetID string) (*models.Game, error) {
	gameID = strings.ToUpper(gameID)

	var game *models.Game
	for attempt := 0; ; attempt++ {
		var err error
		game, err = s.games.GetGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, ErrGameNotFound
		}

		ci := game.PlayerIndex(callerID)
		if ci < 0 || !game.Players[ci].IsGameCreator {
			return nil, ErrNotCreator
		}

		ti := game.PlayerIndex(targetID)
		if ti < 0 {
			return game, nil // already gone
		}
		game.Players = append(game.Players[:ti], game.Players[ti+1:]...)

		ok, err := s.games.UpdateGameIfVersion(ctx, game, game.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			game.Version++
			break
		}
		if attempt+1 >= writeAttempts {
			return nil, ErrWriteConflict
		}
	}

	if err := s.users.SetCurrentGame(ctx, targetID, nil); err != nil {
		return nil, err
	}

	return game, nil
}

// DisbandGame deletes the game row, ejecting everyone. Creator only.
func (s *LedgerService) DisbandGame(ctx context.Context, gameID, callerID string) error {
	gameID = strings.ToUpper(gameID)

	game, err := s.games.GetGameByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}

	ci := game.PlayerIndex(callerID)
	if ci < 0 || !game.Players[ci].IsGameCreator {
		return ErrNotCreator
	}

	if err := s.games.DeleteGame(ctx, gameID); err != nil {
		return err
	}

	for _, p := range game.Players {
		if err := s.users.SetCurrentGame(ctx, p.UserID, nil); err != nil {
			return err
		}
	}

	return nil
}

type TransactionRequest struct {
	GameID     string `json:"game_id"`
	Type       string `json:"type"`
	Amount     int    `json:"amount"`
	FromUserID string `json:"from_user_id,omitempty"`
	ToUserID   string `json:"to_user_id,omitempty"`
}

// MakeTransaction applies one of the six transaction verbs against the
// freshly-read game row and writes the whole row back. On a version conflict
// the read-apply-write cycle is retried so no concurrent balance change is
// silently overwritten.
func (s *LedgerService) MakeTransaction(ctx context.Context, req TransactionRequest) (*models.Game, error) {
	if err := validateTransaction(req); err != nil {
		return nil, err
	}
	gameID := strings.ToUpper(req.GameID)

	for attempt := 0; ; attempt++ {
		game, err := s.games.GetGameByID(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, ErrGameNotFound
		}

		applyTransaction(game, req, s.clock.Now().UTC())

		ok, err := s.games.UpdateGameIfVersion(ctx, game, game.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			game.Version++
			return game, nil
		}
		if attempt+1 >= writeAttempts {
			return nil, ErrWriteConflict
		}
	}
}

func validateTransaction(req TransactionRequest) error {
	switch req.Type {
	case models.TxFromBank, models.TxFromSalary, models.TxFromFreeParking:
		if req.ToUserID == "" {
			return ErrReceiverMissing
		}
	case models.TxToBank, models.TxToFreeParking:
		if req.FromUserID == "" {
			return ErrSenderMissing
		}
	case models.TxToPlayer:
		if req.FromUserID == "" {
			return ErrSenderMissing
		}
		if req.ToUserID == "" {
			return ErrReceiverMissing
		}
	default:
		return ErrInvalidTransaction
	}

	// fromFreeParking drains the pot and fromSalary pays the configured
	// salary; both ignore the amount argument entirely
	switch req.Type {
	case models.TxFromBank, models.TxToBank, models.TxToPlayer, models.TxToFreeParking:
		if req.Amount <= 0 {
			return ErrInvalidAmount
		}
	}

	return nil
}

// applyTransaction mutates the row per the transaction table, stamps new
// bankruptcies and runs winner detection.
func applyTransaction(game *models.Game, req TransactionRequest, now time.Time) {
	recorded := req.Amount

	switch req.Type {
	case models.TxFromBank:
		credit(game, req.ToUserID, req.Amount)
	case models.TxToBank:
		debit(game, req.FromUserID, req.Amount)
	case models.TxToPlayer:
		debit(game, req.FromUserID, req.Amount)
		credit(game, req.ToUserID, req.Amount)
	case models.TxToFreeParking:
		debit(game, req.FromUserID, req.Amount)
		game.FreeParkingMoney += req.Amount
	case models.TxFromFreeParking:
		recorded = game.FreeParkingMoney
		credit(game, req.ToUserID, game.FreeParkingMoney)
		game.FreeParkingMoney = 0
	case models.TxFromSalary:
		recorded = game.Salary
		credit(game, req.ToUserID, game.Salary)
	}

	// bankruptcy is a one-way flag: stamped the first time a balance reaches
	// zero or below, never cleared
	for i := range game.Players {
		p := &game.Players[i]
		if p.Balance <= 0 && p.BankruptTimestamp == nil {
			t := now
			p.BankruptTimestamp = &t
		}
	}

	tx := models.Transaction{
		FromUserID: optionalID(req.FromUserID),
		ToUserID:   optionalID(req.ToUserID),
		Amount:     recorded,
		Timestamp:  now,
		Type:       req.Type,
	}
	game.TransactionHistory = append([]models.Transaction{tx}, game.TransactionHistory...)

	// survivors are players never flagged bankrupt; a revived balance does
	// not count
	if game.WinnerID == nil && len(game.Players) > 1 {
		survivor := -1
		count := 0
		for i := range game.Players {
			if game.Players[i].BankruptTimestamp == nil {
				survivor = i
				count++
			}
		}
		if count == 1 {
			id := game.Players[survivor].UserID
			t := now
			game.WinnerID = &id
			game.EndingTimestamp = &t
		}
	}
}

func credit(game *models.Game, userID string, amount int) {
	if i := game.PlayerIndex(userID); i >= 0 {
		game.Players[i].Balance += amount
	}
}

func debit(game *models.Game, userID string, amount int) {
	if i := game.PlayerIndex(userID); i >= 0 {
		game.Players[i].Balance -= amount
	}
}

func optionalID(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
