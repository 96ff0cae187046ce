package ws

import (
	"encoding/json"
	"errors"

	"hanabi-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// Inbound message types.
const (
	TypeStart    = "start"
	TypePlay     = "play"
	TypeDiscard  = "discard"
	TypeHint     = "hint"
	TypeMoveCard = "move-card"
)

// CardMsg is sent by a seated player to play or discard a card:
// {"type":"play","color":"red","value":1}.
type CardMsg struct {
	Type string `json:"type"`
	game.Card
}

// MoveCardMsg is sent by a seated player to reorder their hand. Either
// Direction ("left"/"right") or the older boolean Left form is accepted.
type MoveCardMsg struct {
	Type      string          `json:"type"`
	Index     int             `json:"index"`
	Direction *game.Direction `json:"direction,omitempty"`
	Left      *bool           `json:"left,omitempty"`
}

var errNoDirection = errors.New("move-card needs a direction")

// Move converts the message into a game.CardMove.
func (m MoveCardMsg) Move() (game.CardMove, error) {
	mv := game.CardMove{Index: m.Index}
	switch {
	case m.Direction != nil:
		mv.Direction = *m.Direction
	case m.Left != nil:
		mv.Direction = game.Right
		if *m.Left {
			mv.Direction = game.Left
		}
	default:
		return mv, errNoDirection
	}
	return mv, nil
}

// Close reasons sent with a policy-violation close frame.
const (
	CloseReasonLobbyFull = "lobby_full"
)

// codeInvalidMessage is the error code for payloads the server cannot parse.
const codeInvalidMessage = "invalid_message"
