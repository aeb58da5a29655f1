package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

const (
	actionConnect    = "connect"
	actionGameNew    = "game:new"
	actionGameTurn   = "game:turn"
	actionDifficulty = "game:difficulty"
	actionSound      = "settings:sound"
	actionGameLeave  = "game:leave"
	actionError      = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player     *entity.Player          `json:"player,omitempty"`
	Session    *entity.Session         `json:"session,omitempty"`
	Settings   *entity.Settings        `json:"settings,omitempty"`
	Cell       *entity.CellPosition    `json:"cell,omitempty"`
	Difficulty *entity.DifficultyLevel `json:"difficulty,omitempty"`
	Sound      *bool                   `json:"sound_effect,omitempty"`
	Highlight  bool                    `json:"highlight,omitempty"`
	Cue        string                  `json:"sound,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func newMessage(action string, payload Payload) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{Action: action, Payload: raw}, nil
}

func eventMessage(event entity.Event) (*Message, error) {
	return newMessage(event.Type, Payload{
		Session:   event.Session,
		Highlight: event.Highlight,
		Cue:       event.Sound,
	})
}
