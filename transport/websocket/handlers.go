package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/repository"
)

const errConnectFirst = "connect first"

func (that *Server) handleConnect(ctx context.Context, conn *Connection, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	var payloadReq Payload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
			that.sendError(conn, msg.Action, "invalid payload")
			return fmt.Errorf("failed to unmarshal payload: %w", err)
		}
	}

	var playerID string
	if payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
	}

	player, err := that.sessions.GetOrCreatePlayer(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		player, err = that.sessions.GetOrCreatePlayer(ctx, "")
	}

	if err != nil {
		that.sendError(conn, msg.Action, "failed to create a new player")
		return fmt.Errorf("failed to get or create player: %w", err)
	}

	settings, err := that.sessions.Settings(ctx, player.ID)
	if err != nil {
		that.sendError(conn, msg.Action, "failed to get settings")
		return fmt.Errorf("failed to get settings: %w", err)
	}

	// the socket switches players: release the previous one first
	if previous := conn.PlayerID(); previous != "" && previous != player.ID && that.hub.Unregister(previous, conn) {
		that.sessions.Disconnect(previous)
		log.Info("player released", "player_id", previous)
	}

	conn.SetPlayerID(player.ID)
	that.hub.Register(player.ID, conn)

	log.Info("successfully connected player", "player_id", player.ID)

	return that.sendMessage(conn, msg.Action, Payload{Player: player, Settings: &settings})
}

func (that *Server) handleNewGame(ctx context.Context, conn *Connection, msg *Message) error {
	playerID, ok := that.requirePlayer(conn, msg)
	if !ok {
		return nil
	}

	session, err := that.sessions.StartSession(ctx, playerID)
	if err != nil {
		that.sendError(conn, msg.Action, "failed to start a game")
		return fmt.Errorf("failed to start session: %w", err)
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session})
}

func (that *Server) handleGameTurn(ctx context.Context, conn *Connection, msg *Message) error {
	playerID, ok := that.requirePlayer(conn, msg)
	if !ok {
		return nil
	}

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil || payloadReq.Cell == nil {
		that.sendError(conn, msg.Action, "cell is required")
		return nil
	}

	session, err := that.sessions.MakeTurn(ctx, playerID, *payloadReq.Cell)
	if err != nil {
		text, known := turnErrorText(err)
		that.sendMessageOrLog(conn, msg.Action, Payload{Session: session, Error: text})

		if known {
			return nil
		}

		return fmt.Errorf("failed to make turn: %w", err)
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session})
}

func (that *Server) handleDifficulty(ctx context.Context, conn *Connection, msg *Message) error {
	playerID, ok := that.requirePlayer(conn, msg)
	if !ok {
		return nil
	}

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil || payloadReq.Difficulty == nil {
		that.sendError(conn, msg.Action, "difficulty is required")
		return nil
	}

	session, err := that.sessions.ChangeDifficulty(ctx, playerID, *payloadReq.Difficulty)
	if errors.Is(err, apperror.ErrNoActiveSession) {
		that.sendError(conn, msg.Action, err.Error())
		return nil
	}

	if err != nil {
		that.sendError(conn, msg.Action, "failed to change difficulty")
		return fmt.Errorf("failed to change difficulty: %w", err)
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session})
}

func (that *Server) handleSound(ctx context.Context, conn *Connection, msg *Message) error {
	playerID, ok := that.requirePlayer(conn, msg)
	if !ok {
		return nil
	}

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil || payloadReq.Sound == nil {
		that.sendError(conn, msg.Action, "sound_effect is required")
		return nil
	}

	settings, err := that.sessions.SetSoundEffect(ctx, playerID, *payloadReq.Sound)
	if err != nil {
		that.sendError(conn, msg.Action, "failed to save settings")
		return fmt.Errorf("failed to set sound effect: %w", err)
	}

	return that.sendMessage(conn, msg.Action, Payload{Settings: &settings})
}

func (that *Server) handleLeave(ctx context.Context, conn *Connection, msg *Message) error {
	playerID, ok := that.requirePlayer(conn, msg)
	if !ok {
		return nil
	}

	session, err := that.sessions.CloseSession(ctx, playerID)
	if errors.Is(err, apperror.ErrNoActiveSession) {
		that.sendError(conn, msg.Action, err.Error())
		return nil
	}

	if err != nil {
		that.sendError(conn, msg.Action, "failed to leave the game")
		return fmt.Errorf("failed to close session: %w", err)
	}

	return that.sendMessage(conn, msg.Action, Payload{Session: session})
}

func (that *Server) requirePlayer(conn *Connection, msg *Message) (string, bool) {
	playerID := conn.PlayerID()
	if playerID == "" {
		that.sendError(conn, msg.Action, errConnectFirst)
		return "", false
	}

	return playerID, true
}

func (that *Server) sendMessageOrLog(conn *Connection, action string, payload Payload) {
	if err := that.sendMessage(conn, action, payload); err != nil {
		that.logger.Warn("failed to send response", "action", action, "error", err)
	}
}

// turnErrorText maps the rejections a client can cause to the text it receives.
func turnErrorText(err error) (string, bool) {
	for _, known := range []error{
		apperror.ErrNoActiveSession,
		apperror.ErrGameFinished,
		apperror.ErrMatchBlocked,
		apperror.ErrNotYourTurn,
		apperror.ErrCellOccupied,
		entity.ErrInvalidCell,
	} {
		if errors.Is(err, known) {
			return known.Error(), true
		}
	}

	return "failed to make turn", false
}
