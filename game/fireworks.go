package game

// PlayResult is the outcome of trying to add a card to the fireworks.
type PlayResult int

const (
	Rejected PlayResult = iota
	Accepted
	// AcceptedColorComplete means the card was a 5 and earns a bonus hint.
	AcceptedColorComplete
)

// String returns the protocol string for a PlayResult.
func (r PlayResult) String() string {
	switch r {
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	case AcceptedColorComplete:
		return "accepted_color_complete"
	default:
		return "unknown"
	}
}

// MaxScore is the score of a complete set of fireworks.
const MaxScore = NumColors * MaxValue

// Fireworks tracks the highest card played for each color.
type Fireworks struct {
	highest [NumColors]int
	score   int
}

// NewFireworks returns empty fireworks.
func NewFireworks() *Fireworks {
	return &Fireworks{}
}

// TryPlay adds card to its color if it is exactly one above the current
// highest value for that color.
func (f *Fireworks) TryPlay(card Card) PlayResult {
	if !card.Color.Valid() {
		return Rejected
	}
	if f.highest[card.Color]+1 != card.Value {
		return Rejected
	}
	f.highest[card.Color] = card.Value
	f.score++
	if card.Value == MaxValue {
		return AcceptedColorComplete
	}
	return Accepted
}

// Highest returns the highest value played for color (0 if none).
func (f *Fireworks) Highest(color Color) int {
	if !color.Valid() {
		return 0
	}
	return f.highest[color]
}

// Score is the sum of the highest values of all colors.
func (f *Fireworks) Score() int {
	return f.score
}

// IsComplete reports whether every color reached 5.
func (f *Fireworks) IsComplete() bool {
	return f.score == MaxScore
}
