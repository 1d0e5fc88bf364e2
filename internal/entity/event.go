package entity

const (
	EventStarted = "started"
	EventThrow   = "throw"
	EventBust    = "bust"
	EventWin     = "win"
	EventTurnEnd = "turn_end"
)

// Event is one line of the match log.
type Event struct {
	Kind      string `json:"kind"`
	Player    string `json:"player,omitempty"`
	Dart      int    `json:"dart,omitempty"`
	Value     int    `json:"value"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}
