package game

// SeatView is the client-facing representation of a seat.
type SeatView struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	CardsInOrder []Card `json:"cardsInOrder"`
}

// FireworkView is the highest value played for one color.
type FireworkView struct {
	Color Color `json:"color"`
	Value int   `json:"value"`
}

// FireworksView lists every color exactly once, in color order.
type FireworksView struct {
	Inner []FireworkView `json:"inner"`
	Score int            `json:"score"`
}

// DiscardView lists each distinct discarded card at most once, ordered by
// color then value.
type DiscardView struct {
	Inner []DiscardEntry `json:"inner"`
}

// View is the full game snapshot pushed to every connected party.
// Hands are not redacted.
type View struct {
	PlayersInOrder     []SeatView    `json:"playersInOrder"`
	CurrentPlaying     int           `json:"currentPlaying"`
	IsLastRound        bool          `json:"isLastRound"`
	LastRoundRemaining int           `json:"lastRoundRemaining"`
	Hints              int           `json:"hints"`
	MaxHints           int           `json:"maxHints"`
	Lives              int           `json:"lives"`
	RemainingCards     int           `json:"remainingCards"`
	Fireworks          FireworksView `json:"fireworks"`
	Discard            DiscardView   `json:"discard"`
	GameOver           bool          `json:"gameOver"`
	GameOverReason     string        `json:"gameOverReason,omitempty"`
}

// BuildFireworksView constructs the client-facing fireworks.
func BuildFireworksView(f *Fireworks) FireworksView {
	inner := make([]FireworkView, 0, NumColors)
	for _, c := range Colors {
		inner = append(inner, FireworkView{Color: c, Value: f.Highest(c)})
	}
	return FireworksView{Inner: inner, Score: f.Score()}
}

// BuildView constructs the game snapshot.
func BuildView(g *Game) View {
	seats := make([]SeatView, len(g.seats))
	for i, s := range g.seats {
		seats[i] = SeatView{
			Index:        s.Index,
			Name:         s.Identity.DisplayName(),
			CardsInOrder: s.Hand.Cards(),
		}
	}
	v := View{
		PlayersInOrder:     seats,
		CurrentPlaying:     g.current,
		IsLastRound:        g.lastRound,
		LastRoundRemaining: g.lastRoundRemaining,
		Hints:              g.hints,
		MaxHints:           MaxHints,
		Lives:              g.lives,
		RemainingCards:     len(g.deck),
		Fireworks:          BuildFireworksView(g.fireworks),
		Discard:            DiscardView{Inner: g.discard.Entries()},
	}
	if reason, over := g.OverReason(); over {
		v.GameOver = true
		v.GameOverReason = reason.String()
	}
	return v
}
