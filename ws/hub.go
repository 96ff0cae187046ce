package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"hanabi-server/auth"
	"hanabi-server/config"
	"hanabi-server/identity"
	"hanabi-server/lobby"
	"hanabi-server/lobbyerrors"
)

// IdentityResolver resolves who is opening a connection.
type IdentityResolver interface {
	FromRequest(r *http.Request) (identity.Identity, error)
}

var _ IdentityResolver = (*auth.Verifier)(nil)

// LobbyFinder looks up running lobbies by id.
type LobbyFinder interface {
	Get(id string) (*lobby.Lobby, error)
}

// Hub maintains the set of active clients. It owns closing each client's
// send channel and, on shutdown, tells every connection the server is going away.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Lobbies    LobbyFinder
	Identities IdentityResolver
	Config     *config.Config

	upgrader websocket.Upgrader
	done     chan struct{}
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, lobbies LobbyFinder, identities IdentityResolver) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Lobbies:    lobbies,
		Identities: identities,
		Config:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
		done: make(chan struct{}),
	}
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled, Run closes every remaining connection and returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received, closing connections", "tag", "ws", "clients", len(h.Clients))
			for client := range h.Clients {
				client.closeWith(websocket.CloseGoingAway, "server shutting down")
			}
			return
		case client := <-h.Register:
			h.Clients[client] = true
			client.log.Info("client connected", "tag", "ws", "clients", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.closeSend()
				client.log.Info("client disconnected", "tag", "ws", "clients", len(h.Clients))
			}
		}
	}
}

func (h *Hub) register(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
		c.closeSend()
	}
}

// ServeWS handles GET /ws/{id}. The identity and the lobby are resolved before
// the upgrade; a full lobby is reported with a policy-violation close frame.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ident, err := h.Identities.FromRequest(r)
	if err != nil {
		slog.Debug("connection refused", "tag", "ws", "lobby", id, "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	l, err := h.Lobbies.Get(id)
	if err != nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "lobby", id, "err", err)
		return
	}

	client := newClient(h, conn, l, ident)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	role, err := l.Join(ctx, client.Member)
	cancel()
	if err != nil {
		reason := err.Error()
		if errors.Is(err, lobbyerrors.ErrLobbyFull) {
			reason = CloseReasonLobbyFull
		}
		client.log.Info("join rejected", "tag", "ws", "err", err)
		client.closeWith(websocket.ClosePolicyViolation, reason)
		return
	}
	client.Role = role

	if !h.register(client) {
		l.Leave(context.Background(), client.Member)
		client.closeWith(websocket.CloseGoingAway, "server shutting down")
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
