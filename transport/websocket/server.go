package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

type sessionUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	Settings(ctx context.Context, playerID string) (entity.Settings, error)

	StartSession(ctx context.Context, playerID string) (*entity.Session, error)
	MakeTurn(ctx context.Context, playerID string, position entity.CellPosition) (*entity.Session, error)
	ChangeDifficulty(ctx context.Context, playerID string, level entity.DifficultyLevel) (*entity.Session, error)
	SetSoundEffect(ctx context.Context, playerID string, on bool) (entity.Settings, error)
	CloseSession(ctx context.Context, playerID string) (*entity.Session, error)
	Disconnect(playerID string)
}

type handlerFunc func(ctx context.Context, conn *Connection, message *Message) error

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
	hub      *Hub
	upgrader websocket.Upgrader

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, sessions sessionUseCase, hub *Hub) *Server {
	server := &Server{
		logger:   logger.With("component", "websocket"),
		sessions: sessions,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionDifficulty] = server.handleDifficulty
	server.handlers[actionSound] = server.handleSound
	server.handlers[actionGameLeave] = server.handleLeave

	return server
}

// Handler serves the socket on /ws.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	that.logger.Info("starting WebSocket server", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	wsConn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ctx, wsConn, that.logger)
	go conn.writePump()

	log.Info("WebSocket connection established")

	that.handleMessages(conn)

	conn.Close()

	if playerID := conn.PlayerID(); playerID != "" && that.hub.Unregister(playerID, conn) {
		that.sessions.Disconnect(playerID)
		log.Info("player disconnected", "player_id", playerID)
	}
}

// handleMessages - processes messages from the client until it goes away.
func (that *Server) handleMessages(conn *Connection) {
	log := that.logger.With("method", "handleMessages")

	conn.conn.SetReadLimit(maxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(conn, actionError, "invalid message")

			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(conn, message.Action, "unknown action")

			continue
		}

		if err = handler(conn.ctx, conn, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) sendMessage(conn *Connection, action string, payload Payload) error {
	msg, err := newMessage(action, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if err = conn.Send(msg); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	return nil
}

func (that *Server) sendError(conn *Connection, action, text string) {
	if err := that.sendMessage(conn, action, Payload{Error: text}); err != nil {
		that.logger.Warn("failed to send error", "error", err)
	}
}
