package game

import (
	"fmt"
	"strings"
)

// Direction is where a card moves within a hand.
type Direction int

const (
	Left Direction = iota
	Right
)

// String returns the protocol string for a Direction.
func (d Direction) String() string {
	if d == Left {
		return "left"
	}
	return "right"
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes "left" or "right".
func (d *Direction) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "left":
		*d = Left
	case "right":
		*d = Right
	default:
		return fmt.Errorf("unknown direction %q", string(text))
	}
	return nil
}

// CardMove asks to shift the card at Index one slot toward Direction.
type CardMove struct {
	Index     int       `json:"index"`
	Direction Direction `json:"direction"`
}

// Hand is the ordered list of cards held by one seat. Index 0 is the leftmost card.
type Hand struct {
	cards []Card
}

// NewHand returns a hand holding cards in the given order.
func NewHand(cards []Card) *Hand {
	return &Hand{cards: append([]Card(nil), cards...)}
}

// Len returns the number of cards held.
func (h *Hand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the hand in order.
func (h *Hand) Cards() []Card {
	return append([]Card(nil), h.cards...)
}

// Has reports whether the hand holds a card equal to card.
func (h *Hand) Has(card Card) bool {
	return h.indexOf(card) >= 0
}

func (h *Hand) indexOf(card Card) int {
	for i, c := range h.cards {
		if c == card {
			return i
		}
	}
	return -1
}

// RemoveCard removes the leftmost card equal to card.
func (h *Hand) RemoveCard(card Card) error {
	i := h.indexOf(card)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, card)
	}
	h.cards = append(h.cards[:i], h.cards[i+1:]...)
	return nil
}

// AddCard appends card at the right end.
func (h *Hand) AddCard(card Card) {
	h.cards = append(h.cards, card)
}

// MoveCard swaps the card at index with its neighbor toward dir. Moving the
// first card left or the last card right leaves the hand unchanged.
func (h *Hand) MoveCard(index int, dir Direction) error {
	if index < 0 || index >= len(h.cards) {
		return fmt.Errorf("%w: no card at index %d", ErrCardNotFound, index)
	}
	target := index + 1
	if dir == Left {
		target = index - 1
	}
	target = max(0, min(target, len(h.cards)-1))
	h.cards[index], h.cards[target] = h.cards[target], h.cards[index]
	return nil
}
