package entity

// GameItem - entry of the launcher list.
type GameItem struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Art         string `json:"art,omitempty"`
	Playable    bool   `json:"playable"`
}
