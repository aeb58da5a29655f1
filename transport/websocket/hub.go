package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

// Hub - connections by player id. It delivers session events to the player's client.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "hub"),
		connections: make(map[string]*Connection),
	}
}

// Register binds the player to the connection, replacing an older one.
func (that *Hub) Register(playerID string, conn *Connection) {
	that.mu.Lock()
	previous, ok := that.connections[playerID]
	that.connections[playerID] = conn
	that.mu.Unlock()

	if ok && previous != conn {
		previous.Close()
	}
}

// Unregister removes the player only if conn is still the registered one.
func (that *Hub) Unregister(playerID string, conn *Connection) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.connections[playerID] != conn {
		return false
	}

	delete(that.connections, playerID)

	return true
}

func (that *Hub) Publish(playerID string, event entity.Event) {
	log := that.logger.With("method", "Publish", "player_id", playerID, "event", event.Type)

	that.mu.RLock()
	conn, ok := that.connections[playerID]
	that.mu.RUnlock()

	if !ok {
		log.Debug("player is not connected")
		return
	}

	msg, err := eventMessage(event)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return
	}

	if err = conn.Send(msg); err != nil {
		log.Warn("failed to send event", "error", err)
	}
}
