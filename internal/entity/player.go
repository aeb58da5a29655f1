package entity

import "time"

type Player struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	KeyDifficultyLevel = "difficulty_level"
	KeySoundEffect     = "sound_effect"
)

// Settings - per player preferences of the tic-tac-toe screen.
type Settings struct {
	Difficulty  DifficultyLevel `json:"difficulty"`
	SoundEffect bool            `json:"sound_effect"`
}

func DefaultSettings() Settings {
	return Settings{
		Difficulty:  Invincible,
		SoundEffect: false,
	}
}
