package lobby

import (
	"context"
	"errors"
	"testing"

	"hanabi-server/identity"
	"hanabi-server/lobbyerrors"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRegistry(ctx, 4)

	l := r.Create(identity.Identity{ID: "leader", Name: "Lea"})

	if len(l.ID) != 4 {
		t.Errorf("expected 4-letter id, got %q", l.ID)
	}
	for _, ch := range l.ID {
		if ch < 'A' || ch > 'Z' {
			t.Errorf("unexpected character %q in id %q", ch, l.ID)
		}
	}
	got, err := r.Get(l.ID)
	if err != nil || got != l {
		t.Fatalf("Get(%q) = %v, %v", l.ID, got, err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 lobby, got %d", r.Len())
	}
	if Address(l.ID) != "/ws/"+l.ID {
		t.Errorf("unexpected address %q", Address(l.ID))
	}

	// The lobby loop is running.
	if _, err := l.Join(ctx, member("leader")); err != nil {
		t.Errorf("Join: %v", err)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(context.Background(), 4)
	if _, err := r.Get("NOPE"); !errors.Is(err, lobbyerrors.ErrLobbyNotFound) {
		t.Errorf("expected ErrLobbyNotFound, got %v", err)
	}
}

func TestRegistry_LobbiesAreIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewRegistry(ctx, 6)

	a := r.Create(identity.Identity{ID: "leader"})
	b := r.Create(identity.Identity{ID: "leader"})
	for _, id := range []string{"leader", "x", "y", "z", "w"} {
		if _, err := a.Join(ctx, member(id)); err != nil {
			t.Fatalf("Join a: %v", err)
		}
	}
	if _, err := a.Join(ctx, member("v")); !errors.Is(err, lobbyerrors.ErrLobbyFull) {
		t.Fatalf("expected a to be full, got %v", err)
	}
	if _, err := b.Join(ctx, member("v")); err != nil {
		t.Errorf("b must be unaffected by a: %v", err)
	}
}

func TestRegistry_WaitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRegistry(ctx, 4)
	var results []Result
	r.OnGameOver = func(res Result) { results = append(results, res) }
	l := r.Create(identity.Identity{ID: "leader"})
	if l.OnGameOver == nil {
		t.Error("expected registry OnGameOver installed on the lobby")
	}

	cancel()
	r.Wait()

	select {
	case <-l.Done():
	default:
		t.Error("expected lobby loop stopped")
	}
}
