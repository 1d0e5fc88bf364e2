package websocket

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

const writeWait = 10 * time.Second

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player    *entity.Player   `json:"player,omitempty"`
	MatchID   string           `json:"match_id,omitempty"`
	PlayerOne string           `json:"player_one,omitempty"`
	PlayerTwo string           `json:"player_two,omitempty"`
	Throw     json.RawMessage  `json:"throw,omitempty"`
	Match     *entity.Snapshot `json:"match,omitempty"`
	Events    []entity.Event   `json:"events,omitempty"`
	Log       []entity.Event   `json:"log,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// RawThrow returns the throw as the user typed it. Both "20" and 20 are accepted;
// the engine decides whether the text is a valid score.
func (that *Payload) RawThrow() string {
	var text string
	if err := json.Unmarshal(that.Throw, &text); err == nil {
		return text
	}

	return strings.TrimSpace(string(that.Throw))
}

// client serialises writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *client) send(action string, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return that.conn.WriteJSON(Message{Action: action, Payload: data})
}
