package entity

// Player is a connected client session and the seat it holds.
type Player struct {
	ID      string `json:"id"`
	MatchID string `json:"match_id,omitempty"`
	Seat    int    `json:"seat"`
}

func (that *Player) InMatch() bool {
	return that.MatchID != ""
}
