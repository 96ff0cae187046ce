package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
)

// Color is one of the five firework colors.
type Color int

const (
	Red Color = iota
	Yellow
	Green
	Blue
	White
)

// NumColors is the number of firework colors.
const NumColors = 5

// MaxValue is the highest card value of a color.
const MaxValue = 5

// DeckSize is the number of cards in a full deck.
const DeckSize = 50

// Colors lists every color in the fixed order used for all stable orderings.
var Colors = [NumColors]Color{Red, Yellow, Green, Blue, White}

var colorNames = [NumColors]string{"red", "yellow", "green", "blue", "white"}

// String returns the protocol string for a Color.
func (c Color) String() string {
	if c < 0 || int(c) >= NumColors {
		return "unknown"
	}
	return colorNames[c]
}

// Valid reports whether c is one of the five colors.
func (c Color) Valid() bool {
	return c >= 0 && int(c) < NumColors
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid color %d", int(c))
	}
	return []byte(colorNames[c]), nil
}

// UnmarshalText decodes a color name (case-insensitive).
func (c *Color) UnmarshalText(text []byte) error {
	name := strings.ToLower(string(text))
	for i, n := range colorNames {
		if n == name {
			*c = Color(i)
			return nil
		}
	}
	return fmt.Errorf("unknown color %q", string(text))
}

// UnmarshalJSON accepts a color name or its numeric index (0 red .. 4 white).
func (c *Color) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Color(n).Valid() {
			return fmt.Errorf("invalid color %d", n)
		}
		*c = Color(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("color must be a name or an index: %s", data)
	}
	return c.UnmarshalText([]byte(name))
}

// Card is a value object: two cards with the same color and value are equal.
type Card struct {
	Color Color `json:"color"`
	Value int   `json:"value"`
}

// Valid reports whether the card can exist in a deck.
func (c Card) Valid() bool {
	return c.Color.Valid() && c.Value >= 1 && c.Value <= MaxValue
}

func (c Card) String() string {
	return fmt.Sprintf("%s-%d", c.Color, c.Value)
}

// Less orders cards by color, then by value.
func (c Card) Less(o Card) bool {
	if c.Color != o.Color {
		return c.Color < o.Color
	}
	return c.Value < o.Value
}

// copiesPerValue is the number of cards of each value, per color.
//
//	x  1  2  3  4  5
var copiesPerValue = [MaxValue + 1]int{0, 3, 2, 2, 2, 1}

// CopiesOf returns how many copies of a value exist per color.
func CopiesOf(value int) int {
	if value < 1 || value > MaxValue {
		return 0
	}
	return copiesPerValue[value]
}

// NewDeck builds the full 50-card deck and shuffles it with rng.
// A nil rng uses the package-level source.
func NewDeck(rng *rand.Rand) []Card {
	cards := make([]Card, 0, DeckSize)
	for value := 1; value <= MaxValue; value++ {
		for i := 0; i < copiesPerValue[value]; i++ {
			for _, color := range Colors {
				cards = append(cards, Card{Color: color, Value: value})
			}
		}
	}
	shuffle(rng, len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// shuffle is a Fisher-Yates shuffle; every permutation is equally likely.
func shuffle(rng *rand.Rand, n int, swap func(i, j int)) {
	if rng == nil {
		rand.Shuffle(n, swap)
		return
	}
	rng.Shuffle(n, swap)
}
