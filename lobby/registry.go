package lobby

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"log/slog"
	"math/rand"
	"sync"

	"hanabi-server/identity"
	"hanabi-server/lobbyerrors"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Registry creates lobbies and looks them up by id. Each lobby runs its own
// loop; the registry lock only guards the id map.
type Registry struct {
	mu      sync.RWMutex
	lobbies map[string]*Lobby
	wg      sync.WaitGroup

	ctx   context.Context
	idLen int

	// OnGameOver is installed on every lobby created after it is set.
	OnGameOver func(Result)
}

// NewRegistry returns a registry whose lobbies stop when ctx is cancelled.
func NewRegistry(ctx context.Context, idLen int) *Registry {
	if idLen <= 0 {
		idLen = 4
	}
	return &Registry{
		lobbies: make(map[string]*Lobby),
		ctx:     ctx,
		idLen:   idLen,
	}
}

// Create starts a new lobby led by leader.
func (r *Registry) Create(leader identity.Identity) *Lobby {
	id := newLobbyID(r.idLen)
	l := New(id, leader, rand.New(rand.NewSource(newSeed())))
	l.OnGameOver = r.OnGameOver

	r.mu.Lock()
	// TODO: ids are not checked for uniqueness; a collision makes the older
	// lobby unreachable for new connections. Retry on collision once stale
	// lobbies are cleaned up.
	r.lobbies[id] = l
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		l.Run(r.ctx)
	}()
	slog.Info("lobby created", "tag", "lobby", "lobby", id, "leader", leader.DisplayName())
	return l
}

// Get returns the lobby with the given id.
func (r *Registry) Get(id string) (*Lobby, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[id]
	if !ok {
		return nil, lobbyerrors.ErrLobbyNotFound
	}
	return l, nil
}

// Len returns the number of lobbies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}

// Wait blocks until every lobby loop has stopped.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Address is the path of a lobby's channel endpoint.
func Address(id string) string {
	return "/ws/" + id
}

func newLobbyID(n int) string {
	b := make([]byte, n)
	if _, err := crand.Read(b); err != nil {
		for i := range b {
			b[i] = byte(rand.Intn(256))
		}
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b)
}

// newSeed seeds a lobby's shuffles from crypto/rand.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Int63()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
