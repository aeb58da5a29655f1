package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection - a client socket with its outgoing queue.
type Connection struct {
	conn   *websocket.Conn
	send   chan *Message
	logger *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu       sync.RWMutex
	playerID string
}

func newConnection(ctx context.Context, conn *websocket.Conn, logger *slog.Logger) *Connection {
	ctx, cancel := context.WithCancel(ctx)

	return &Connection{
		conn:   conn,
		send:   make(chan *Message, sendBuffer),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (that *Connection) Close() {
	that.closeOnce.Do(func() {
		that.cancel()
		_ = that.conn.Close()
	})
}

// Send queues a message; a client that does not keep up is disconnected.
func (that *Connection) Send(msg *Message) error {
	select {
	case <-that.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case that.send <- msg:
		return nil
	case <-that.ctx.Done():
		return ErrConnectionClosed
	default:
		that.logger.Warn("send buffer full, closing connection", "player_id", that.PlayerID())
		that.Close()

		return ErrConnectionClosed
	}
}

func (that *Connection) SetPlayerID(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.playerID = playerID
}

func (that *Connection) PlayerID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.playerID
}

func (that *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.Close()
	}()

	for {
		select {
		case message := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteJSON(message); err != nil {
				that.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-that.ctx.Done():
			_ = that.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
