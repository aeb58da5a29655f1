package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
)

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

var ErrUnknownSessionStatus = errors.New("unknown session status")

// Session - tic-tac-toe state of a single player against the bot.
type Session struct {
	PlayerID    string          `json:"player_id"`
	Board       Board           `json:"board"`
	Turn        Mark            `json:"turn"`
	HumanMark   Mark            `json:"human_mark"`
	BotMark     Mark            `json:"bot_mark"`
	Difficulty  DifficultyLevel `json:"difficulty"`
	HumanScore  int             `json:"human_score"`
	BotScore    int             `json:"bot_score"`
	MatchNumber int             `json:"match_number"`
	Blocked     bool            `json:"blocked"`
	Status      string          `json:"status"`
	Winner      Mark            `json:"winner,omitempty"`
	WinLine     BoardLine       `json:"win_line,omitempty"`
}

func (that *Session) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Session) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Session) IsHumanTurn() bool {
	return !that.Blocked && that.Turn == that.HumanMark
}

// ConfirmOngoingState reports why a move cannot be played on the session right now.
func (that *Session) ConfirmOngoingState() error {
	switch {
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing() && that.Blocked:
		return apperror.ErrMatchBlocked
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSessionStatus, that.Status)
	}
}
