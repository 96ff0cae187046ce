package game

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"hanabi-server/identity"
)

func players(n int) []identity.Identity {
	ids := make([]identity.Identity, n)
	for i := range ids {
		ids[i] = identity.Identity{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	return ids
}

// newTestGame builds a game with fixed hands. Seat i is held by "p<i>".
// The last card of deck is drawn first.
func newTestGame(deck []Card, hands ...[]Card) *Game {
	g := &Game{
		byID:               make(map[string]*Seat),
		hints:              MaxHints,
		lives:              MaxLives,
		lastRoundRemaining: len(hands),
		deck:               append([]Card(nil), deck...),
		fireworks:          NewFireworks(),
		discard:            NewDiscardPile(),
	}
	for i, h := range hands {
		seat := newSeat(i, identity.Identity{ID: fmt.Sprintf("p%d", i)}, h)
		g.seats = append(g.seats, seat)
		g.byID[seat.Identity.Key()] = seat
	}
	return g
}

func c(color Color, value int) Card {
	return Card{Color: color, Value: value}
}

func TestNewDeck_Composition(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}
	counts := make(map[Card]int)
	for _, card := range deck {
		if !card.Valid() {
			t.Fatalf("invalid card in deck: %+v", card)
		}
		counts[card]++
	}
	for _, color := range Colors {
		for value := 1; value <= MaxValue; value++ {
			if got, want := counts[c(color, value)], CopiesOf(value); got != want {
				t.Errorf("%s: expected %d copies, got %d", c(color, value), want, got)
			}
		}
	}
}

func TestNewDeck_SameSeedSameOrder(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(42)))
	b := NewDeck(rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("decks differ at %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestNew_HandSizes(t *testing.T) {
	tests := []struct {
		players  int
		handSize int
	}{
		{2, 5},
		{3, 5},
		{4, 4},
		{5, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d players", tt.players), func(t *testing.T) {
			g, err := New(players(tt.players), rand.New(rand.NewSource(7)))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for _, s := range g.Seats() {
				if s.Hand.Len() != tt.handSize {
					t.Errorf("seat %d: expected %d cards, got %d", s.Index, tt.handSize, s.Hand.Len())
				}
			}
			if g.DeckSize() != DeckSize-tt.players*tt.handSize {
				t.Errorf("expected %d cards left, got %d", DeckSize-tt.players*tt.handSize, g.DeckSize())
			}
			if g.CardsAccounted() != DeckSize {
				t.Errorf("expected %d cards accounted, got %d", DeckSize, g.CardsAccounted())
			}
			if g.CurrentTurn() != 0 || g.Hints() != MaxHints || g.Lives() != MaxLives {
				t.Errorf("unexpected initial counters: turn=%d hints=%d lives=%d", g.CurrentTurn(), g.Hints(), g.Lives())
			}
			if _, ok := g.State().(InProgress); !ok {
				t.Errorf("expected InProgress, got %T", g.State())
			}
		})
	}
}

func TestNew_InvalidPlayerCount(t *testing.T) {
	for _, n := range []int{0, 1, 6} {
		if _, err := New(players(n), nil); !errors.Is(err, ErrInvalidPlayerCount) {
			t.Errorf("%d players: expected ErrInvalidPlayerCount, got %v", n, err)
		}
	}
}

func TestNew_DuplicatePlayer(t *testing.T) {
	ids := append(players(2), identity.Identity{ID: "p0"})
	if _, err := New(ids, nil); !errors.Is(err, ErrDuplicatePlayer) {
		t.Errorf("expected ErrDuplicatePlayer, got %v", err)
	}
}

func TestNew_SeatsEveryPlayerOnce(t *testing.T) {
	g, err := New(players(5), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seen := make(map[string]bool)
	for i, s := range g.Seats() {
		if s.Index != i {
			t.Errorf("seat %d has index %d", i, s.Index)
		}
		if seen[s.Identity.ID] {
			t.Errorf("player %s seated twice", s.Identity.ID)
		}
		seen[s.Identity.ID] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 seated players, got %d", len(seen))
	}
}

func TestPlay_Accepted(t *testing.T) {
	g := newTestGame(
		[]Card{c(Blue, 2)},
		[]Card{c(Red, 1), c(Green, 3)},
		[]Card{c(White, 4)},
	)

	result, err := g.Play("p0", c(Red, 1))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result != Accepted {
		t.Errorf("expected Accepted, got %v", result)
	}
	if g.Score() != 1 {
		t.Errorf("expected score 1, got %d", g.Score())
	}
	if g.CurrentTurn() != 1 {
		t.Errorf("expected turn 1, got %d", g.CurrentTurn())
	}
	hand := g.seats[0].Hand.Cards()
	if len(hand) != 2 || hand[0] != c(Green, 3) || hand[1] != c(Blue, 2) {
		t.Errorf("expected [green-3 blue-2], got %v", hand)
	}
	if g.Lives() != MaxLives || g.discard.Total() != 0 {
		t.Errorf("accepted play must not cost a life or discard: lives=%d discards=%d", g.Lives(), g.discard.Total())
	}
}

func TestPlay_Rejected(t *testing.T) {
	g := newTestGame(nil, []Card{c(Red, 2)}, []Card{c(White, 4)})

	result, err := g.Play("p0", c(Red, 2))
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if result != Rejected {
		t.Errorf("expected Rejected, got %v", result)
	}
	if g.Lives() != MaxLives-1 {
		t.Errorf("expected %d lives, got %d", MaxLives-1, g.Lives())
	}
	if g.discard.Count(c(Red, 2)) != 1 {
		t.Errorf("expected red-2 in discard pile")
	}
	if g.Score() != 0 {
		t.Errorf("expected score 0, got %d", g.Score())
	}
	if g.CurrentTurn() != 1 {
		t.Errorf("expected turn 1, got %d", g.CurrentTurn())
	}
}

func TestPlay_ColorCompleteBumpsHints(t *testing.T) {
	tests := []struct {
		name  string
		hints int
		want  int
	}{
		{"below max", 5, 6},
		{"capped at max", MaxHints, MaxHints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame([]Card{c(Red, 1)}, []Card{c(Yellow, 5)}, []Card{c(Red, 1)})
			g.fireworks.highest[Yellow] = 4
			g.fireworks.score = 4
			g.hints = tt.hints

			result, err := g.Play("p0", c(Yellow, 5))
			if err != nil {
				t.Fatalf("Play: %v", err)
			}
			if result != AcceptedColorComplete {
				t.Errorf("expected AcceptedColorComplete, got %v", result)
			}
			if g.Hints() != tt.want {
				t.Errorf("expected %d hints, got %d", tt.want, g.Hints())
			}
		})
	}
}

func TestPlay_CardNotFoundLeavesStateUntouched(t *testing.T) {
	g := newTestGame([]Card{c(Blue, 1)}, []Card{c(Red, 1)}, []Card{c(White, 1)})

	if _, err := g.Play("p0", c(Green, 1)); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
	if g.CurrentTurn() != 0 || g.DeckSize() != 1 || g.seats[0].Hand.Len() != 1 || g.Lives() != MaxLives {
		t.Errorf("state changed after failed play")
	}
}

func TestValidation_Order(t *testing.T) {
	g := newTestGame(nil, []Card{c(Red, 1)}, []Card{c(Red, 2)})

	if _, err := g.Play("stranger", c(Red, 1)); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
	if err := g.Hint("p1"); !errors.Is(err, ErrWrongTurn) {
		t.Errorf("expected ErrWrongTurn, got %v", err)
	}

	g.lives = 0
	if err := g.Hint("p1"); !errors.Is(err, ErrWrongTurn) {
		t.Errorf("wrong turn must be reported before game over, got %v", err)
	}
	if err := g.Hint("p0"); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
	if err := g.Discard("p0", c(Red, 1)); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
	if _, err := g.Play("p0", c(Red, 1)); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestDiscard_TooManyHints(t *testing.T) {
	g := newTestGame([]Card{c(Blue, 1)}, []Card{c(Red, 1), c(Green, 2)}, []Card{c(White, 1)})

	err := g.Discard("p0", c(Red, 1))
	if !errors.Is(err, ErrTooManyHintsToDiscard) {
		t.Fatalf("expected ErrTooManyHintsToDiscard, got %v", err)
	}
	if g.seats[0].Hand.Len() != 2 || !g.seats[0].Hand.Has(c(Red, 1)) {
		t.Errorf("hand changed after rejected discard: %v", g.seats[0].Hand.Cards())
	}
	if g.discard.Total() != 0 {
		t.Errorf("discard pile changed after rejected discard")
	}
	if g.Hints() != MaxHints || g.CurrentTurn() != 0 || g.DeckSize() != 1 {
		t.Errorf("counters changed after rejected discard")
	}
}

func TestDiscard_RecoversHint(t *testing.T) {
	g := newTestGame([]Card{c(Blue, 1)}, []Card{c(Red, 1), c(Green, 2)}, []Card{c(White, 1)})
	g.hints = 3

	if err := g.Discard("p0", c(Green, 2)); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if g.Hints() != 4 {
		t.Errorf("expected 4 hints, got %d", g.Hints())
	}
	if g.discard.Count(c(Green, 2)) != 1 {
		t.Errorf("expected green-2 in discard pile")
	}
	if !g.seats[0].Hand.Has(c(Blue, 1)) {
		t.Errorf("expected blue-1 drawn into hand")
	}
	if g.CurrentTurn() != 1 {
		t.Errorf("expected turn 1, got %d", g.CurrentTurn())
	}
}

func TestHint(t *testing.T) {
	g := newTestGame(nil, []Card{c(Red, 1)}, []Card{c(Red, 2)})
	g.hints = 1

	if err := g.Hint("p0"); err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if g.Hints() != 0 {
		t.Errorf("expected 0 hints, got %d", g.Hints())
	}
	if err := g.Hint("p1"); !errors.Is(err, ErrNotEnoughHints) {
		t.Errorf("expected ErrNotEnoughHints, got %v", err)
	}
	if g.CurrentTurn() != 1 {
		t.Errorf("failed hint must not advance the turn, got %d", g.CurrentTurn())
	}
}

func TestTurnWrapsAround(t *testing.T) {
	g := newTestGame(nil, []Card{c(Red, 1)}, []Card{c(Red, 2)}, []Card{c(Red, 3)})
	for i, id := range []string{"p0", "p1", "p2"} {
		if err := g.Hint(id); err != nil {
			t.Fatalf("hint %d: %v", i, err)
		}
	}
	if g.CurrentTurn() != 0 {
		t.Errorf("expected turn to wrap to 0, got %d", g.CurrentTurn())
	}
	if g.Turns() != 3 {
		t.Errorf("expected 3 turns taken, got %d", g.Turns())
	}
}

func TestLastRound(t *testing.T) {
	g := newTestGame(nil,
		[]Card{c(Red, 1), c(Red, 2)},
		[]Card{c(Blue, 1), c(Blue, 2)},
	)

	if _, err := g.Play("p0", c(Red, 1)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if !g.IsLastRound() {
		t.Fatal("expected last round after drawing from an empty deck")
	}
	st, ok := g.State().(InProgress)
	if !ok || st.LastRoundRemaining == nil || *st.LastRoundRemaining != 1 {
		t.Fatalf("expected InProgress with 1 turn left, got %+v", g.State())
	}

	if _, err := g.Play("p1", c(Blue, 1)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	over, ok := g.State().(Over)
	if !ok || over.Reason != DeckExhausted {
		t.Fatalf("expected Over(DeckExhausted), got %+v", g.State())
	}
	if err := g.Hint("p0"); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
}

func TestOver_ZeroLives(t *testing.T) {
	g := newTestGame(nil, []Card{c(Red, 3)}, []Card{c(Red, 4)})
	g.lives = 1

	if _, err := g.Play("p0", c(Red, 3)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if reason, over := g.OverReason(); !over || reason != ZeroLives {
		t.Fatalf("expected ZeroLives, got %v %v", reason, over)
	}
}

func TestOver_FireworksComplete(t *testing.T) {
	g := newTestGame(nil, []Card{c(White, 5)}, []Card{c(Red, 4)})
	for _, color := range Colors {
		g.fireworks.highest[color] = 5
	}
	g.fireworks.highest[White] = 4
	g.fireworks.score = MaxScore - 1

	if _, err := g.Play("p0", c(White, 5)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if reason, over := g.OverReason(); !over || reason != FireworksComplete {
		t.Fatalf("expected FireworksComplete, got %v %v", reason, over)
	}
}

func TestMoveCard(t *testing.T) {
	hand := []Card{c(Red, 1), c(Green, 2), c(Blue, 3)}
	tests := []struct {
		name string
		move CardMove
		want []Card
	}{
		{"first left is a no-op", CardMove{0, Left}, hand},
		{"last right is a no-op", CardMove{2, Right}, hand},
		{"first right", CardMove{0, Right}, []Card{c(Green, 2), c(Red, 1), c(Blue, 3)}},
		{"last left", CardMove{2, Left}, []Card{c(Red, 1), c(Blue, 3), c(Green, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(nil, []Card{c(White, 1)}, hand)
			// Not p1's turn: moving cards is still allowed.
			if err := g.MoveCard("p1", tt.move); err != nil {
				t.Fatalf("MoveCard: %v", err)
			}
			got := g.seats[1].Hand.Cards()
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
			if g.CurrentTurn() != 0 {
				t.Errorf("moving a card must not advance the turn")
			}
		})
	}
}

func TestMoveCard_Errors(t *testing.T) {
	g := newTestGame(nil, []Card{c(White, 1)}, []Card{c(Red, 1)})

	if err := g.MoveCard("p1", CardMove{Index: 1, Direction: Left}); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
	if err := g.MoveCard("p1", CardMove{Index: -1, Direction: Right}); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
	if err := g.MoveCard("nobody", CardMove{}); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("expected ErrUnknownPlayer, got %v", err)
	}
	g.lives = 0
	if err := g.MoveCard("p1", CardMove{Index: 0, Direction: Right}); err != nil {
		t.Errorf("moving a card after game over should succeed, got %v", err)
	}
}

// TestRandomGames plays many random games and checks the invariants after
// every action.
func TestRandomGames(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		n := MinPlayers + int(seed)%(MaxPlayers-MinPlayers+1)
		g, err := New(players(n), rng)
		if err != nil {
			t.Fatalf("seed %d: New: %v", seed, err)
		}

		for steps := 0; !g.IsOver(); steps++ {
			if steps > 500 {
				t.Fatalf("seed %d: game did not end", seed)
			}
			seat := g.seats[g.CurrentTurn()]
			id := seat.Identity.Key()
			before := g.CurrentTurn()
			cards := seat.Hand.Cards()
			card := cards[rng.Intn(len(cards))]

			var err error
			switch choice := rng.Intn(3); {
			case choice == 0:
				_, err = g.Play(id, card)
			case choice == 1 && g.Hints() < MaxHints:
				err = g.Discard(id, card)
			case g.Hints() > 0:
				err = g.Hint(id)
			default:
				_, err = g.Play(id, card)
			}
			if err != nil {
				t.Fatalf("seed %d step %d: %v", seed, steps, err)
			}

			if g.CurrentTurn() != (before+1)%n {
				t.Fatalf("seed %d: turn went from %d to %d", seed, before, g.CurrentTurn())
			}
			if got := g.CardsAccounted(); got != DeckSize {
				t.Fatalf("seed %d: %d cards accounted", seed, got)
			}
			if g.Hints() < 0 || g.Hints() > MaxHints {
				t.Fatalf("seed %d: hints out of range: %d", seed, g.Hints())
			}
			if g.Lives() < 0 || g.Lives() > MaxLives {
				t.Fatalf("seed %d: lives out of range: %d", seed, g.Lives())
			}
			wantOver := g.Lives() == 0 || g.Score() == MaxScore || g.lastRoundRemaining == 0
			if g.IsOver() != wantOver {
				t.Fatalf("seed %d: IsOver=%v, counters say %v", seed, g.IsOver(), wantOver)
			}
		}
	}
}
