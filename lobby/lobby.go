package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime/debug"
	"time"

	"hanabi-server/game"
	"hanabi-server/identity"
	"hanabi-server/lobbyerrors"
	"hanabi-server/wsutil"
)

// Role is how a connection takes part in a lobby.
type Role int

const (
	roleNone Role = iota
	RoleSeat
	RoleSpectator
)

// String returns the protocol string for a Role.
func (r Role) String() string {
	switch r {
	case RoleSeat:
		return "seat"
	case RoleSpectator:
		return "spectator"
	default:
		return "none"
	}
}

// Member is one connection attached to a lobby.
type Member struct {
	Identity identity.Identity
	Send     chan []byte

	role Role
}

// NewMember creates a Member that receives pushes on send.
func NewMember(id identity.Identity, send chan []byte) *Member {
	return &Member{Identity: id, Send: send}
}

// ActionType enumerates the kinds of actions a lobby can process.
type ActionType int

const (
	ActionJoin ActionType = iota
	ActionLeave
	ActionStart
	ActionPlay
	ActionDiscard
	ActionHint
	ActionMoveCard
	ActionSnapshot
)

// String returns a name for logs.
func (t ActionType) String() string {
	switch t {
	case ActionJoin:
		return "join"
	case ActionLeave:
		return "leave"
	case ActionStart:
		return "start"
	case ActionPlay:
		return "play"
	case ActionDiscard:
		return "discard"
	case ActionHint:
		return "hint"
	case ActionMoveCard:
		return "move-card"
	case ActionSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Action is a request sent into the lobby's action channel.
type Action struct {
	Type   ActionType
	Member *Member
	Card   game.Card
	Move   game.CardMove

	reply chan result
}

type result struct {
	role Role
	view View
	err  error
}

// Result summarizes a finished game.
type Result struct {
	LobbyID    string
	Players    []string // display names in seat order
	PlayerIDs  []string
	Score      int
	Reason     string
	Turns      int
	LivesLeft  int
	FinishedAt time.Time
}

// Lobby is one session: its roster, its leader, and at most one game.
// All state is owned by the Run goroutine; every other goroutine talks to it
// through the exported methods, which are processed one at a time.
type Lobby struct {
	ID     string
	Leader identity.Identity

	seats      []identity.Identity // admission order; frozen once the game starts
	spectators map[string]int      // identity key -> live connections
	members    map[*Member]struct{}
	game       *game.Game
	reported   bool

	rng     *rand.Rand
	actions chan Action
	done    chan struct{}
	log     *slog.Logger

	// OnGameOver is called once, from the lobby goroutine, when the game ends.
	// It must not block.
	OnGameOver func(Result)
}

// New creates a lobby led by leader. Call Run to start processing actions.
// A nil rng uses the package-level source.
func New(id string, leader identity.Identity, rng *rand.Rand) *Lobby {
	return &Lobby{
		ID:         id,
		Leader:     leader,
		spectators: make(map[string]int),
		members:    make(map[*Member]struct{}),
		rng:        rng,
		actions:    make(chan Action, 16),
		done:       make(chan struct{}),
		log:        slog.With("lobby", id),
	}
}

// Run is the lobby loop. It processes actions sequentially until ctx is cancelled.
func (l *Lobby) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-l.actions:
			a.reply <- l.safeHandle(a)
		}
	}
}

// Done is closed when Run returns.
func (l *Lobby) Done() <-chan struct{} {
	return l.done
}

// safeHandle keeps a panicking handler from taking down the lobby loop.
func (l *Lobby) safeHandle(a Action) (r result) {
	defer func() {
		if p := recover(); p != nil {
			l.log.Error("action panicked", "tag", "lobby", "action", a.Type, "panic", p, "stack", string(debug.Stack()))
			r = result{err: fmt.Errorf("internal error handling %s", a.Type)}
		}
	}()
	return l.handle(a)
}

func (l *Lobby) handle(a Action) result {
	switch a.Type {
	case ActionJoin:
		role, err := l.join(a.Member)
		return result{role: role, err: err}
	case ActionLeave:
		l.leave(a.Member)
		return result{}
	case ActionStart:
		return result{err: l.start(a.Member)}
	case ActionPlay, ActionDiscard, ActionHint, ActionMoveCard:
		return result{err: l.gameAction(a)}
	case ActionSnapshot:
		return result{view: l.view()}
	default:
		return result{err: fmt.Errorf("unknown action %d", a.Type)}
	}
}

func (l *Lobby) submit(ctx context.Context, a Action) result {
	a.reply = make(chan result, 1)
	select {
	case l.actions <- a:
	case <-l.done:
		return result{err: lobbyerrors.ErrLobbyClosed}
	case <-ctx.Done():
		return result{err: ctx.Err()}
	}
	select {
	case r := <-a.reply:
		return r
	case <-l.done:
		select {
		case r := <-a.reply:
			return r
		default:
			return result{err: lobbyerrors.ErrLobbyClosed}
		}
	}
}

// Join admits a connection as a seat or a spectator. It fails with
// lobbyerrors.ErrLobbyFull when no seat is left before the game starts.
func (l *Lobby) Join(ctx context.Context, m *Member) (Role, error) {
	r := l.submit(ctx, Action{Type: ActionJoin, Member: m})
	return r.role, r.err
}

// Leave detaches a connection that went away.
func (l *Lobby) Leave(ctx context.Context, m *Member) {
	l.submit(ctx, Action{Type: ActionLeave, Member: m})
}

// Start creates the game. Only the leader may start, once, with at least two seats.
func (l *Lobby) Start(ctx context.Context, m *Member) error {
	return l.submit(ctx, Action{Type: ActionStart, Member: m}).err
}

// Play plays card from m's hand.
func (l *Lobby) Play(ctx context.Context, m *Member, card game.Card) error {
	return l.submit(ctx, Action{Type: ActionPlay, Member: m, Card: card}).err
}

// Discard discards card from m's hand.
func (l *Lobby) Discard(ctx context.Context, m *Member, card game.Card) error {
	return l.submit(ctx, Action{Type: ActionDiscard, Member: m, Card: card}).err
}

// Hint spends a hint token on m's turn.
func (l *Lobby) Hint(ctx context.Context, m *Member) error {
	return l.submit(ctx, Action{Type: ActionHint, Member: m}).err
}

// MoveCard reorders m's hand.
func (l *Lobby) MoveCard(ctx context.Context, m *Member, move game.CardMove) error {
	return l.submit(ctx, Action{Type: ActionMoveCard, Member: m, Move: move}).err
}

// Snapshot returns the current lobby view.
func (l *Lobby) Snapshot(ctx context.Context) (View, error) {
	r := l.submit(ctx, Action{Type: ActionSnapshot})
	return r.view, r.err
}

func (l *Lobby) attached(m *Member) bool {
	_, ok := l.members[m]
	return ok
}

func (l *Lobby) seated(key string) bool {
	for _, id := range l.seats {
		if id.Key() == key {
			return true
		}
	}
	return false
}

// connected reports whether any attached connection carries key as role.
func (l *Lobby) connected(key string, role Role) bool {
	for m := range l.members {
		if m.role == role && m.Identity.Key() == key {
			return true
		}
	}
	return false
}

func (l *Lobby) join(m *Member) (Role, error) {
	key := m.Identity.Key()
	switch {
	case l.seated(key):
		m.role = RoleSeat
		l.log.Info("player reconnected", "tag", "lobby", "name", m.Identity.DisplayName())
	case l.game != nil:
		m.role = RoleSpectator
		l.spectators[key]++
		l.log.Info("spectator joined", "tag", "lobby", "name", m.Identity.DisplayName())
	case len(l.seats) < game.MaxPlayers:
		m.role = RoleSeat
		l.seats = append(l.seats, m.Identity)
		l.log.Info("player joined", "tag", "lobby", "name", m.Identity.DisplayName(), "seats", len(l.seats))
	default:
		l.log.Info("lobby full, connection rejected", "tag", "lobby", "name", m.Identity.DisplayName())
		return roleNone, lobbyerrors.ErrLobbyFull
	}

	l.members[m] = struct{}{}
	l.sendTo(m, JoinedMsg{Type: "joined", Role: m.role.String(), Name: m.Identity.DisplayName()})
	l.broadcast()
	return m.role, nil
}

func (l *Lobby) leave(m *Member) {
	if !l.attached(m) {
		return
	}
	delete(l.members, m)
	key := m.Identity.Key()

	switch m.role {
	case RoleSpectator:
		if l.spectators[key]--; l.spectators[key] <= 0 {
			delete(l.spectators, key)
		}
		l.log.Info("spectator left", "tag", "lobby", "name", m.Identity.DisplayName())
	case RoleSeat:
		// Once the game starts a seat is kept so its owner can come back.
		if l.game != nil || l.connected(key, RoleSeat) {
			l.log.Info("player disconnected", "tag", "lobby", "name", m.Identity.DisplayName())
			break
		}
		for i, id := range l.seats {
			if id.Key() == key {
				l.seats = append(l.seats[:i], l.seats[i+1:]...)
				break
			}
		}
		l.log.Info("player left", "tag", "lobby", "name", m.Identity.DisplayName(), "seats", len(l.seats))
	}
	l.broadcast()
}

func (l *Lobby) start(m *Member) error {
	switch {
	case !l.attached(m):
		return lobbyerrors.ErrNotSeated
	case m.Identity.Key() != l.Leader.Key():
		return lobbyerrors.ErrNotLeader
	case l.game != nil:
		return lobbyerrors.ErrGameAlreadyInProgress
	case len(l.seats) < game.MinPlayers:
		return lobbyerrors.ErrNotEnoughPlayers
	}
	g, err := game.New(l.seats, l.rng)
	if err != nil {
		return err
	}
	l.game = g
	l.log.Info("game started", "tag", "lobby", "players", len(l.seats))
	l.broadcast()
	return nil
}

func (l *Lobby) gameAction(a Action) error {
	err := l.applyGameAction(a)
	if err != nil {
		l.log.Debug("action rejected", "tag", "lobby", "action", a.Type, "name", a.Member.Identity.DisplayName(), "err", err)
		l.sendTo(a.Member, NewErrorMsg(err))
		return err
	}
	l.broadcast()
	l.reportGameOver()
	return nil
}

func (l *Lobby) applyGameAction(a Action) error {
	if !l.attached(a.Member) || a.Member.role != RoleSeat {
		return lobbyerrors.ErrNotSeated
	}
	if l.game == nil {
		return lobbyerrors.ErrGameNotStarted
	}
	key := a.Member.Identity.Key()
	switch a.Type {
	case ActionPlay:
		_, err := l.game.Play(key, a.Card)
		return err
	case ActionDiscard:
		return l.game.Discard(key, a.Card)
	case ActionHint:
		return l.game.Hint(key)
	case ActionMoveCard:
		return l.game.MoveCard(key, a.Move)
	}
	return errors.New("not a game action")
}

func (l *Lobby) reportGameOver() {
	if l.game == nil || l.reported {
		return
	}
	reason, over := l.game.OverReason()
	if !over {
		return
	}
	l.reported = true

	seats := l.game.Seats()
	res := Result{
		LobbyID:    l.ID,
		Players:    make([]string, len(seats)),
		PlayerIDs:  make([]string, len(seats)),
		Score:      l.game.Score(),
		Reason:     reason.String(),
		Turns:      l.game.Turns(),
		LivesLeft:  l.game.Lives(),
		FinishedAt: time.Now().UTC(),
	}
	for i, s := range seats {
		res.Players[i] = s.Identity.DisplayName()
		res.PlayerIDs[i] = s.Identity.Key()
	}
	l.log.Info("game over", "tag", "lobby", "reason", res.Reason, "score", res.Score, "turns", res.Turns)
	if l.OnGameOver != nil {
		l.OnGameOver(res)
	}
}

func (l *Lobby) view() View {
	v := View{
		ID:         l.ID,
		Players:    make([]PlayerName, len(l.seats)),
		Leader:     PlayerName{Name: l.Leader.DisplayName()},
		Spectators: len(l.spectators),
	}
	for i, id := range l.seats {
		v.Players[i] = PlayerName{Name: id.DisplayName()}
	}
	if l.game != nil {
		gv := game.BuildView(l.game)
		v.Game = &gv
	}
	return v
}

// broadcast pushes the same snapshot to every attached connection.
func (l *Lobby) broadcast() {
	data, err := json.Marshal(StateMsg{Type: "state", Lobby: l.view()})
	if err != nil {
		l.log.Error("marshaling lobby state", "tag", "lobby", "err", err)
		return
	}
	for m := range l.members {
		wsutil.SafeSend(m.Send, data)
	}
}

func (l *Lobby) sendTo(m *Member, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		l.log.Error("marshaling message", "tag", "lobby", "err", err)
		return
	}
	wsutil.SafeSend(m.Send, data)
}
