package game

import "sort"

// DiscardPile counts how many times each card was discarded.
// Cards never leave the pile.
type DiscardPile struct {
	counts map[Card]int
	total  int
}

// NewDiscardPile returns an empty pile.
func NewDiscardPile() *DiscardPile {
	return &DiscardPile{counts: make(map[Card]int)}
}

// Discard adds one copy of card to the pile.
func (d *DiscardPile) Discard(card Card) {
	d.counts[card]++
	d.total++
}

// Count returns how many copies of card were discarded.
func (d *DiscardPile) Count(card Card) int {
	return d.counts[card]
}

// Total returns the number of cards in the pile.
func (d *DiscardPile) Total() int {
	return d.total
}

// DiscardEntry is one distinct card in the pile and its count.
type DiscardEntry struct {
	Card  Card `json:"card"`
	Count int  `json:"count"`
}

// Entries returns the pile ordered by color, then value. Each distinct card
// appears once.
func (d *DiscardPile) Entries() []DiscardEntry {
	entries := make([]DiscardEntry, 0, len(d.counts))
	for card, n := range d.counts {
		entries = append(entries, DiscardEntry{Card: card, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Card.Less(entries[j].Card)
	})
	return entries
}
