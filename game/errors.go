package game

import "errors"

// Rule violations. Every one of them is detected before the game is mutated.
var (
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrWrongTurn             = errors.New("it's not your turn")
	ErrGameOver              = errors.New("game is already over")
	ErrCardNotFound          = errors.New("card not found")
	ErrNotEnoughHints        = errors.New("no hints left")
	ErrTooManyHintsToDiscard = errors.New("can't discard while all hints are available")
	ErrInvalidPlayerCount    = errors.New("a game needs 2 to 5 players")
	ErrDuplicatePlayer       = errors.New("player is seated twice")
)
