package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

var ErrSessionNotFound = errors.New("session not found")

// sessionTTL - an idle session is forgotten after a day.
const sessionTTL = 24 * time.Hour

type SessionRepository interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByPlayerID(ctx context.Context, playerID string) (*entity.Session, error)
	DeleteByPlayerID(ctx context.Context, playerID string) error
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func (that *dbSession) CreateOrUpdate(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	err = that.client.Set(ctx, sessionKey(session.PlayerID), sessionJSON, sessionTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByPlayerID(ctx context.Context, playerID string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKey(playerID)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session entity.Session
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (that *dbSession) DeleteByPlayerID(ctx context.Context, playerID string) error {
	deleted, err := that.client.Del(ctx, sessionKey(playerID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if deleted == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func sessionKey(playerID string) string {
	return "session:" + playerID
}
