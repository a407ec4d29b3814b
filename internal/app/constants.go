package app

// MinPlayersToStartGame and MaxPlayersPerGame bound the seats of a cribbage table.
const (
	MinPlayersToStartGame = 2
	MaxPlayersPerGame     = 4
)

// Default seats used when a game is created without explicit players.
var DefaultSeats = []PlayerSeat{
	{ID: "p1", Name: "Player 1", IsHuman: true},
	{ID: "p2", Name: "CPU"},
}
