package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"hanabi-server/config"
	"hanabi-server/identity"
	"hanabi-server/lobby"
	"hanabi-server/storage"
)

// IdentityResolver resolves the identity carried by a request.
type IdentityResolver interface {
	FromRequest(r *http.Request) (identity.Identity, error)
}

// Lobbies creates and counts lobbies.
type Lobbies interface {
	Create(leader identity.Identity) *lobby.Lobby
	Len() int
}

// Handler holds dependencies for API handlers.
type Handler struct {
	Config     *config.Config
	Lobbies    Lobbies
	Identities IdentityResolver
	Results    storage.ResultStore // nil when history is disabled
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, lobbies Lobbies, identities IdentityResolver, results storage.ResultStore) *Handler {
	return &Handler{
		Config:     cfg,
		Lobbies:    lobbies,
		Identities: identities,
		Results:    results,
	}
}

// CORS sets CORS headers on the response and answers preflight requests.
// It reports whether the request was fully handled.
func (h *Handler) CORS(w http.ResponseWriter, r *http.Request) bool {
	if origin := r.Header.Get("Origin"); origin != "" && h.Config.OriginAllowed(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Add("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// CreateLobbyResponse is the JSON structure for POST /api/lobby.
type CreateLobbyResponse struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// CreateLobby creates a lobby led by the caller.
func (h *Handler) CreateLobby(w http.ResponseWriter, r *http.Request) {
	if h.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	leader, err := h.Identities.FromRequest(r)
	if err != nil {
		slog.Debug("lobby creation refused", "tag", "api", "err", err)
		http.Error(w, "identity required", http.StatusUnauthorized)
		return
	}

	l := h.Lobbies.Create(leader)
	writeJSON(w, http.StatusCreated, CreateLobbyResponse{ID: l.ID, Address: lobby.Address(l.ID)})
}

// ListResults lists the most recently finished games.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	if h.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = h.Config.HistoryLimit
	}

	list := []storage.GameResult{}
	if h.Results != nil {
		got, err := h.Results.ListRecent(r.Context(), limit)
		if err != nil {
			slog.Error("listing results", "tag", "api", "err", err)
			http.Error(w, "failed to load results", http.StatusInternalServerError)
			return
		}
		if got != nil {
			list = got
		}
	}
	writeJSON(w, http.StatusOK, list)
}

// HealthResponse is the JSON structure for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Lobbies int    `json:"lobbies"`
	History bool   `json:"history"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Lobbies: h.Lobbies.Len(),
		History: h.Results != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "tag", "api", "err", err)
	}
}
