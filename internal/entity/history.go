package entity

import "time"

// MatchRecord - a finished match, kept for statistics.
type MatchRecord struct {
	PlayerID    string          `json:"player_id"`
	MatchNumber int             `json:"match_number"`
	Winner      Mark            `json:"winner"`
	HumanMark   Mark            `json:"human_mark"`
	Line        BoardLine       `json:"line,omitempty"`
	Difficulty  DifficultyLevel `json:"difficulty"`
	FinishedAt  time.Time       `json:"finished_at"`
}

// Stats - aggregated results of a player against the bot.
type Stats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

func (that Stats) Total() int {
	return that.Wins + that.Losses + that.Draws
}
