package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

type SettingsRepository interface {
	Get(ctx context.Context, playerID string) (entity.Settings, error)
	Save(ctx context.Context, playerID string, settings entity.Settings) error
}

// dbSettings keeps one hash per player, mirroring a key/value preference store.
type dbSettings struct {
	client   *redis.Client
	defaults entity.Settings
}

func NewSettingsRepository(client *redis.Client, defaults entity.Settings) SettingsRepository {
	return &dbSettings{
		client:   client,
		defaults: defaults,
	}
}

// Get returns the stored settings; missing keys take the default values.
func (that *dbSettings) Get(ctx context.Context, playerID string) (entity.Settings, error) {
	values, err := that.client.HGetAll(ctx, settingsKey(playerID)).Result()
	if err != nil {
		return that.defaults, fmt.Errorf("failed to get settings: %w", err)
	}

	settings := that.defaults

	if raw, ok := values[entity.KeyDifficultyLevel]; ok {
		progress, err := strconv.Atoi(raw)
		if err != nil {
			return that.defaults, fmt.Errorf("failed to parse %s: %w", entity.KeyDifficultyLevel, err)
		}

		settings.Difficulty = entity.DifficultyFromProgress(progress)
	}

	if raw, ok := values[entity.KeySoundEffect]; ok {
		sound, err := strconv.ParseBool(raw)
		if err != nil {
			return that.defaults, fmt.Errorf("failed to parse %s: %w", entity.KeySoundEffect, err)
		}

		settings.SoundEffect = sound
	}

	return settings, nil
}

func (that *dbSettings) Save(ctx context.Context, playerID string, settings entity.Settings) error {
	err := that.client.HSet(ctx, settingsKey(playerID),
		entity.KeyDifficultyLevel, strconv.Itoa(settings.Difficulty.Progress()),
		entity.KeySoundEffect, strconv.FormatBool(settings.SoundEffect),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

func settingsKey(playerID string) string {
	return "settings:" + playerID
}
