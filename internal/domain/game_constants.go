package domain

const (
	// WinningScore ends the game the moment any player reaches it.
	WinningScore = 121
	// HisHeelsPoints go to the dealer when the cut card is a Jack.
	HisHeelsPoints = 2
	// GoPoints go to the last player to lay a card when nobody else can.
	GoPoints = 1
	// CribSize is the number of cards laid away to the crib each round.
	CribSize = 4
	// KeepSize is the number of cards each player holds after discarding.
	KeepSize = 4

	MinPlayers = 2
	MaxPlayers = 4
)

// HandSize returns the number of cards dealt to each player.
func HandSize(numPlayers int) int {
	if numPlayers == 2 {
		return 6
	}
	return 5
}

// DiscardCount returns how many cards each player lays away to the crib.
func DiscardCount(numPlayers int) int {
	if numPlayers == 2 {
		return 2
	}
	return 1
}
