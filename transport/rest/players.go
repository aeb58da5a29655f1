package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/repository"
)

type playerUseCase interface {
	GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error)
	Settings(ctx context.Context, playerID string) (entity.Settings, error)
	SaveSettings(ctx context.Context, playerID string, settings entity.Settings) (entity.Settings, error)
	Stats(ctx context.Context, playerID string) (entity.Stats, error)
	History(ctx context.Context, playerID string, limit int) ([]entity.MatchRecord, error)
}

type PlayersHandler interface {
	GetSettings(ctx echo.Context) error
	UpdateSettings(ctx echo.Context) error
	GetStats(ctx echo.Context) error
	GetHistory(ctx echo.Context) error
}

type playersHandler struct {
	logger  *slog.Logger
	players playerUseCase
}

func NewPlayersHandler(logger *slog.Logger, players playerUseCase) PlayersHandler {
	return &playersHandler{
		logger:  logger.With("component", "rest"),
		players: players,
	}
}

func (that *playersHandler) GetSettings(ctx echo.Context) error {
	log := that.logger.With("method", "GetSettings")

	playerID, err := that.player(ctx)
	if err != nil {
		return err
	}

	settings, err := that.players.Settings(ctx.Request().Context(), playerID)
	if err != nil {
		log.Error("failed to get settings", "player_id", playerID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, settings)
}

func (that *playersHandler) UpdateSettings(ctx echo.Context) error {
	log := that.logger.With("method", "UpdateSettings")

	playerID, err := that.player(ctx)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()

	current, err := that.players.Settings(reqCtx, playerID)
	if err != nil {
		log.Error("failed to get settings", "player_id", playerID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	// fields missing from the body keep their current value
	if err = ctx.Bind(&current); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid settings")
	}

	settings, err := that.players.SaveSettings(reqCtx, playerID, current)
	if err != nil {
		log.Error("failed to save settings", "player_id", playerID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, settings)
}

func (that *playersHandler) GetStats(ctx echo.Context) error {
	log := that.logger.With("method", "GetStats")

	playerID, err := that.player(ctx)
	if err != nil {
		return err
	}

	stats, err := that.players.Stats(ctx.Request().Context(), playerID)
	if err != nil {
		log.Error("failed to get stats", "player_id", playerID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, stats)
}

// GetHistory lists the latest matches; ?limit= caps the list.
func (that *playersHandler) GetHistory(ctx echo.Context) error {
	log := that.logger.With("method", "GetHistory")

	playerID, err := that.player(ctx)
	if err != nil {
		return err
	}

	var limit int
	if err = echo.QueryParamsBinder(ctx).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	records, err := that.players.History(ctx.Request().Context(), playerID, limit)
	if err != nil {
		log.Error("failed to get history", "player_id", playerID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	if records == nil {
		records = []entity.MatchRecord{}
	}

	return ctx.JSON(http.StatusOK, records)
}

// player checks that the path id belongs to a known player.
func (that *playersHandler) player(ctx echo.Context) (string, error) {
	id := ctx.Param("id")

	player, err := that.players.GetOrCreatePlayer(ctx.Request().Context(), id)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		return "", echo.NewHTTPError(http.StatusNotFound, "player not found")
	}

	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	return player.ID, nil
}
