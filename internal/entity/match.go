package entity

const (
	StateAwaitingThrow = "awaiting_throw"
	StateTerminal      = "terminal"

	DefaultPlayerOne = "Player 1"
	DefaultPlayerTwo = "Player 2"
)

// Match is the persisted state of one 101-down leg between two players.
type Match struct {
	ID             string    `json:"id"`
	Players        [2]string `json:"players"`
	Scores         [2]int    `json:"scores"`
	CurrentPlayer  int       `json:"current_player"`
	TurnStartScore int       `json:"turn_start_score"`
	TurnTotal      int       `json:"turn_total"`
	DartNumber     int       `json:"dart_number"`
	DartsPerTurn   int       `json:"darts_per_turn"`
	MaxThrow       int       `json:"max_throw"`
	Winner         string    `json:"winner,omitempty"`

	// Seats holds the session ids owning each seat. An empty second seat means
	// the host scores for both players.
	Seats [2]string `json:"seats,omitempty"`
}

func (that *Match) IsFinished() bool {
	return that.Winner != ""
}

func (that *Match) CurrentName() string {
	return that.Players[that.CurrentPlayer]
}

// IsHotseat reports whether only the host seat is bound.
func (that *Match) IsHotseat() bool {
	return that.Seats[1] == ""
}

// SeatOf returns the seat bound to playerID or -1.
func (that *Match) SeatOf(playerID string) int {
	for seat, id := range that.Seats {
		if id != "" && id == playerID {
			return seat
		}
	}

	return -1
}

// Snapshot is a read-only view of a Match for rendering.
type Snapshot struct {
	ID             string    `json:"id,omitempty"`
	Players        [2]string `json:"players"`
	Scores         [2]int    `json:"scores"`
	CurrentPlayer  int       `json:"current_player"`
	TurnStartScore int       `json:"turn_start_score"`
	TurnTotal      int       `json:"turn_total"`
	DartNumber     int       `json:"dart_number"`
	DartsPerTurn   int       `json:"darts_per_turn"`
	MaxThrow       int       `json:"max_throw"`
	Winner         string    `json:"winner,omitempty"`
	State          string    `json:"state"`
}

func (that *Match) Snapshot() Snapshot {
	state := StateAwaitingThrow
	if that.IsFinished() {
		state = StateTerminal
	}

	return Snapshot{
		ID:             that.ID,
		Players:        that.Players,
		Scores:         that.Scores,
		CurrentPlayer:  that.CurrentPlayer,
		TurnStartScore: that.TurnStartScore,
		TurnTotal:      that.TurnTotal,
		DartNumber:     that.DartNumber,
		DartsPerTurn:   that.DartsPerTurn,
		MaxThrow:       that.MaxThrow,
		Winner:         that.Winner,
		State:          state,
	}
}

func (that Snapshot) IsTerminal() bool {
	return that.State == StateTerminal
}

func (that Snapshot) CurrentName() string {
	return that.Players[that.CurrentPlayer]
}
