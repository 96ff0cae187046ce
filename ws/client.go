package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hanabi-server/identity"
	"hanabi-server/lobby"
	"hanabi-server/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and its lobby.
type Client struct {
	ID     string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	Lobby  *lobby.Lobby
	Member *lobby.Member
	Role   lobby.Role

	log       *slog.Logger
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn, l *lobby.Lobby, id identity.Identity) *Client {
	size := h.Config.SendBufferSize
	if size <= 0 {
		size = 256
	}
	send := make(chan []byte, size)
	connID := uuid.NewString()
	return &Client{
		ID:     connID,
		Hub:    h,
		Conn:   conn,
		Send:   send,
		Lobby:  l,
		Member: lobby.NewMember(id, send),
		log:    slog.With("lobby", l.ID, "conn", connID[:8], "name", id.DisplayName()),
	}
}

// ReadPump pumps messages from the websocket connection to the lobby.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("read pump panicked", "tag", "ws", "panic", p, "stack", string(debug.Stack()))
		}
		cancel()
		// Leave returns once the lobby has processed it or stopped.
		c.Lobby.Leave(context.Background(), c.Member)
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read error", "tag", "ws", "err", err)
			}
			break
		}

		c.handleMessage(ctx, message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, data []byte) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	// Spectators only watch.
	if c.Role != lobby.RoleSeat {
		c.log.Debug("ignoring spectator message", "tag", "ws", "type", envelope.Type)
		return
	}

	switch envelope.Type {
	case TypeStart:
		// A rejected start is not surfaced to the client.
		if err := c.Lobby.Start(ctx, c.Member); err != nil {
			c.log.Debug("start rejected", "tag", "ws", "err", err)
		}
	case TypePlay, TypeDiscard:
		c.handleCard(ctx, envelope.Type, envelope.Raw)
	case TypeHint:
		c.logRejection(envelope.Type, c.Lobby.Hint(ctx, c.Member))
	case TypeMoveCard:
		c.handleMoveCard(ctx, envelope.Raw)
	default:
		c.sendError("Unknown message type: " + envelope.Type)
	}
}

func (c *Client) handleCard(ctx context.Context, typ string, raw json.RawMessage) {
	var msg CardMsg
	if err := json.Unmarshal(raw, &msg); err != nil || !msg.Card.Valid() {
		c.sendError("Invalid " + typ + " message.")
		return
	}
	if typ == TypePlay {
		c.logRejection(typ, c.Lobby.Play(ctx, c.Member, msg.Card))
		return
	}
	c.logRejection(typ, c.Lobby.Discard(ctx, c.Member, msg.Card))
}

func (c *Client) handleMoveCard(ctx context.Context, raw json.RawMessage) {
	var msg MoveCardMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid move-card message.")
		return
	}
	move, err := msg.Move()
	if err != nil {
		c.sendError("Invalid move-card message: " + err.Error())
		return
	}
	c.logRejection(TypeMoveCard, c.Lobby.MoveCard(ctx, c.Member, move))
}

// logRejection records a failed action. The lobby has already sent the error
// to this connection.
func (c *Client) logRejection(typ string, err error) {
	if err != nil {
		c.log.Debug("action rejected", "tag", "ws", "type", typ, "err", err)
	}
}

func (c *Client) sendError(message string) {
	data, _ := json.Marshal(lobby.ErrorMsg{Type: "error", Code: codeInvalidMessage, Message: message})
	wsutil.SafeSend(c.Send, data)
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// closeWith sends a close frame with code and reason, then closes the connection.
func (c *Client) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.Conn.Close()
}
