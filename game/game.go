package game

import (
	"fmt"
	"math/rand"

	"hanabi-server/identity"
)

const (
	MaxHints   = 8
	MaxLives   = 3
	MinPlayers = 2
	MaxPlayers = 5
)

// OverReason is why a game ended.
type OverReason int

const (
	ZeroLives OverReason = iota
	DeckExhausted
	FireworksComplete
)

// String returns the protocol string for an OverReason.
func (r OverReason) String() string {
	switch r {
	case ZeroLives:
		return "zero_lives"
	case DeckExhausted:
		return "deck_exhausted"
	case FireworksComplete:
		return "fireworks_complete"
	default:
		return "unknown"
	}
}

// State is either InProgress or Over. It is always derived from the game's
// counters by Game.State and never stored.
type State interface {
	isState()
}

// InProgress is the state of a game that still accepts turns.
// LastRoundRemaining is nil until the deck runs out.
type InProgress struct {
	Turn               int
	LastRoundRemaining *int
}

// Over is the state of a finished game.
type Over struct {
	Reason OverReason
}

func (InProgress) isState() {}
func (Over) isState()       {}

// Game is one Hanabi game. It is not safe for concurrent use; the owning
// lobby serializes every call.
type Game struct {
	seats   []*Seat
	byID    map[string]*Seat
	current int

	lastRound          bool
	lastRoundRemaining int

	hints int
	lives int
	turns int

	deck      []Card
	fireworks *Fireworks
	discard   *DiscardPile
}

// New seats players in a uniformly random order and deals their hands.
// Seat 0 plays first. A nil rng uses the package-level source.
func New(players []identity.Identity, rng *rand.Rand) (*Game, error) {
	n := len(players)
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPlayerCount, n)
	}

	order := append([]identity.Identity(nil), players...)
	shuffle(rng, n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	g := &Game{
		seats:              make([]*Seat, 0, n),
		byID:               make(map[string]*Seat, n),
		hints:              MaxHints,
		lives:              MaxLives,
		lastRoundRemaining: n,
		deck:               NewDeck(rng),
		fireworks:          NewFireworks(),
		discard:            NewDiscardPile(),
	}

	size := handSize(n)
	for i, id := range order {
		if _, dup := g.byID[id.Key()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePlayer, id.Key())
		}
		cards := make([]Card, 0, size)
		for j := 0; j < size; j++ {
			card, _ := g.draw()
			cards = append(cards, card)
		}
		seat := newSeat(i, id, cards)
		g.seats = append(g.seats, seat)
		g.byID[id.Key()] = seat
	}
	return g, nil
}

// draw pops the top card of the deck.
func (g *Game) draw() (Card, bool) {
	if len(g.deck) == 0 {
		return Card{}, false
	}
	card := g.deck[len(g.deck)-1]
	g.deck = g.deck[:len(g.deck)-1]
	return card, true
}

// State derives the current state from the counters.
func (g *Game) State() State {
	if reason, over := g.OverReason(); over {
		return Over{Reason: reason}
	}
	st := InProgress{Turn: g.current}
	if g.lastRound {
		remaining := g.lastRoundRemaining
		st.LastRoundRemaining = &remaining
	}
	return st
}

// OverReason returns why the game ended, and false while it is in progress.
func (g *Game) OverReason() (OverReason, bool) {
	switch {
	case g.lives == 0:
		return ZeroLives, true
	case g.fireworks.IsComplete():
		return FireworksComplete, true
	case g.lastRoundRemaining == 0:
		return DeckExhausted, true
	}
	return 0, false
}

// IsOver reports whether the game has ended.
func (g *Game) IsOver() bool {
	_, over := g.OverReason()
	return over
}

// Seat returns the seat held by the identity with key id.
func (g *Game) Seat(id string) (*Seat, bool) {
	s, ok := g.byID[id]
	return s, ok
}

// Seats returns the seats in turn order.
func (g *Game) Seats() []*Seat {
	return append([]*Seat(nil), g.seats...)
}

// CurrentTurn returns the index of the seat to act.
func (g *Game) CurrentTurn() int { return g.current }

// Hints returns the hint tokens left.
func (g *Game) Hints() int { return g.hints }

// Lives returns the lives left.
func (g *Game) Lives() int { return g.lives }

// Turns returns the number of completed turns.
func (g *Game) Turns() int { return g.turns }

// DeckSize returns the number of cards left to draw.
func (g *Game) DeckSize() int { return len(g.deck) }

// IsLastRound reports whether the deck has run out.
func (g *Game) IsLastRound() bool { return g.lastRound }

// Score is the fireworks score.
func (g *Game) Score() int { return g.fireworks.Score() }

// Fireworks returns the played fireworks.
func (g *Game) Fireworks() *Fireworks { return g.fireworks }

// Discards returns the discard pile.
func (g *Game) Discards() *DiscardPile { return g.discard }

// validateTurn resolves id to the seat whose turn it is.
func (g *Game) validateTurn(id string) (*Seat, error) {
	seat, ok := g.byID[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if seat.Index != g.current {
		return nil, ErrWrongTurn
	}
	if g.IsOver() {
		return nil, ErrGameOver
	}
	return seat, nil
}

// removeAndDraw takes card out of the seat's hand and refills it from the
// deck. An empty deck starts the last round instead.
func (g *Game) removeAndDraw(seat *Seat, card Card) error {
	if err := seat.Hand.RemoveCard(card); err != nil {
		return err
	}
	if next, ok := g.draw(); ok {
		seat.Hand.AddCard(next)
	} else {
		g.lastRound = true
	}
	return nil
}

func (g *Game) bumpHints() {
	g.hints = min(g.hints+1, MaxHints)
}

func (g *Game) advanceTurn() {
	if g.lastRound {
		g.lastRoundRemaining--
	}
	g.current = (g.current + 1) % len(g.seats)
	g.turns++
}

// Play puts card from the caller's hand onto the fireworks. A rejected card
// goes to the discard pile and costs a life; completing a color earns a hint.
func (g *Game) Play(id string, card Card) (PlayResult, error) {
	seat, err := g.validateTurn(id)
	if err != nil {
		return Rejected, err
	}
	if err := g.removeAndDraw(seat, card); err != nil {
		return Rejected, err
	}

	result := g.fireworks.TryPlay(card)
	switch result {
	case Rejected:
		g.discard.Discard(card)
		g.lives--
	case AcceptedColorComplete:
		g.bumpHints()
	}

	g.advanceTurn()
	return result, nil
}

// Discard moves card from the caller's hand to the discard pile and recovers
// a hint.
func (g *Game) Discard(id string, card Card) error {
	seat, err := g.validateTurn(id)
	if err != nil {
		return err
	}
	if g.hints == MaxHints {
		return ErrTooManyHintsToDiscard
	}
	if err := g.removeAndDraw(seat, card); err != nil {
		return err
	}
	g.discard.Discard(card)
	g.bumpHints()
	g.advanceTurn()
	return nil
}

// Hint spends a hint token. The hint's content is exchanged between players
// outside the server.
func (g *Game) Hint(id string) error {
	if _, err := g.validateTurn(id); err != nil {
		return err
	}
	if g.hints == 0 {
		return ErrNotEnoughHints
	}
	g.hints--
	g.advanceTurn()
	return nil
}

// MoveCard reorders the caller's own hand. It is allowed at any time,
// including out of turn and after the game is over.
func (g *Game) MoveCard(id string, move CardMove) error {
	seat, ok := g.byID[id]
	if !ok {
		return ErrUnknownPlayer
	}
	return seat.Hand.MoveCard(move.Index, move.Direction)
}

// CardsAccounted returns the number of cards in the deck, all hands, the
// discard pile and the fireworks. It is always DeckSize.
func (g *Game) CardsAccounted() int {
	n := len(g.deck) + g.discard.Total() + g.fireworks.Score()
	for _, s := range g.seats {
		n += s.Hand.Len()
	}
	return n
}
