package entity

import (
	"errors"
	"fmt"
	"strings"
)

// DifficultyLevel - strategy tier of the bot.
type DifficultyLevel int

const (
	Normal DifficultyLevel = iota
	Hard
	Invincible
)

var ErrUnknownDifficulty = errors.New("unknown difficulty level")

// DifficultyFromProgress maps a stored slider value to a level; out of range values mean Invincible.
func DifficultyFromProgress(progress int) DifficultyLevel {
	switch progress {
	case 0:
		return Normal
	case 1:
		return Hard
	default:
		return Invincible
	}
}

func ParseDifficulty(value string) (DifficultyLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "normal":
		return Normal, nil
	case "hard":
		return Hard, nil
	case "invincible":
		return Invincible, nil
	default:
		return Invincible, fmt.Errorf("%w: %q", ErrUnknownDifficulty, value)
	}
}

// Progress is the inverse of DifficultyFromProgress.
func (that DifficultyLevel) Progress() int {
	return int(that)
}

func (that DifficultyLevel) String() string {
	switch that {
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return "invincible"
	}
}

func (that DifficultyLevel) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *DifficultyLevel) UnmarshalText(text []byte) error {
	level, err := ParseDifficulty(string(text))
	if err != nil {
		return err
	}

	*that = level

	return nil
}
