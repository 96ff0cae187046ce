package lobby

import (
	"errors"

	"hanabi-server/game"
	"hanabi-server/lobbyerrors"
)

// PlayerName is how a lobby participant is shown to everyone.
type PlayerName struct {
	Name string `json:"name"`
}

// View is the full lobby snapshot.
type View struct {
	ID         string       `json:"id"`
	Players    []PlayerName `json:"players"`
	Leader     PlayerName   `json:"leader"`
	Spectators int          `json:"spectators"`
	Game       *game.View   `json:"game,omitempty"`
}

// StateMsg pushes the lobby snapshot. Every connected party receives the same bytes.
type StateMsg struct {
	Type  string `json:"type"`
	Lobby View   `json:"lobby"`
}

// JoinedMsg tells a new connection how it was admitted.
type JoinedMsg struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Name string `json:"name"`
}

// ErrorMsg is sent to the acting connection when an action is rejected.
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrUnknownPlayer, "unknown_player"},
	{game.ErrWrongTurn, "wrong_turn"},
	{game.ErrGameOver, "game_over"},
	{game.ErrCardNotFound, "card_not_found"},
	{game.ErrNotEnoughHints, "not_enough_hints"},
	{game.ErrTooManyHintsToDiscard, "too_many_hints_to_discard"},
	{lobbyerrors.ErrLobbyFull, "lobby_full"},
	{lobbyerrors.ErrGameAlreadyInProgress, "game_already_in_progress"},
	{lobbyerrors.ErrGameNotStarted, "game_not_started"},
	{lobbyerrors.ErrNotSeated, "not_seated"},
	{lobbyerrors.ErrNotLeader, "not_leader"},
	{lobbyerrors.ErrNotEnoughPlayers, "not_enough_players"},
	{lobbyerrors.ErrLobbyNotFound, "lobby_not_found"},
	{lobbyerrors.ErrLobbyClosed, "lobby_closed"},
	{lobbyerrors.ErrNoIdentity, "no_identity"},
}

// ErrorCode returns the stable wire code for err.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

// NewErrorMsg builds the error message for err.
func NewErrorMsg(err error) ErrorMsg {
	return ErrorMsg{Type: "error", Code: ErrorCode(err), Message: err.Error()}
}
