package game

import "hanabi-server/identity"

// Seat is a player's place in a game: their turn position and hand.
type Seat struct {
	Index    int
	Identity identity.Identity
	Hand     *Hand
}

func newSeat(index int, id identity.Identity, cards []Card) *Seat {
	return &Seat{Index: index, Identity: id, Hand: NewHand(cards)}
}

// handSize returns the number of cards dealt to each seat.
func handSize(players int) int {
	if players > 3 {
		return 4
	}
	return 5
}
