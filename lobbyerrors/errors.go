package lobbyerrors

import "errors"

// Lobby and admission sentinel errors. Used by the lobby, ws and api packages
// to avoid circular imports.
var (
	ErrLobbyNotFound         = errors.New("lobby not found")
	ErrLobbyFull             = errors.New("lobby is full")
	ErrGameAlreadyInProgress = errors.New("game already in progress")
	ErrGameNotStarted        = errors.New("game has not started")
	ErrNotLeader             = errors.New("only the lobby leader can start the game")
	ErrNotEnoughPlayers      = errors.New("not enough players to start")
	ErrNotSeated             = errors.New("spectators can't take game actions")
	ErrLobbyClosed           = errors.New("lobby is closed")
	ErrNoIdentity            = errors.New("no player identity")
)
