package service

import "errors"

// Ledger errors, surfaced verbatim in {success:false, error:...} replies.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrGameStarted        = errors.New("game already started")
	ErrGameFull           = errors.New("game is full (maximum 6 players)")
	ErrInvalidTransaction = errors.New("invalid transaction type")
	ErrSenderMissing      = errors.New("sender not specified")
	ErrReceiverMissing    = errors.New("receiver not specified")
	ErrInvalidAmount      = errors.New("amount must be a positive integer")
	ErrNotCreator         = errors.New("only the game creator can do that")
	ErrWriteConflict      = errors.New("game changed concurrently, retry")
)
