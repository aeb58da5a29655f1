package entity

const (
	EventMatchWin   = "match:win"
	EventMatchBlink = "match:blink"
	EventMatchDraw  = "match:draw"
	EventMatchNew   = "match:new"
	EventMove       = "match:move"
)

const (
	SoundMove  = "move"
	SoundWin   = "win"
	SoundStart = "start"
)

// Event - notification pushed to a player's client outside of a request/response cycle.
type Event struct {
	Type    string   `json:"type"`
	Session *Session `json:"session,omitempty"`
	// Highlight is set on blink events: true shows the winning line, false hides it.
	Highlight bool   `json:"highlight,omitempty"`
	Sound     string `json:"sound,omitempty"`
}
