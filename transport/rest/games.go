package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/launcher"
)

type catalog interface {
	Games() []entity.GameItem
	Find(name string) (entity.GameItem, error)
}

type GamesHandler interface {
	List(ctx echo.Context) error
	Get(ctx echo.Context) error
}

type gamesHandler struct {
	catalog catalog
}

func NewGamesHandler(catalog catalog) GamesHandler {
	return &gamesHandler{catalog: catalog}
}

func (that *gamesHandler) List(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, that.catalog.Games())
}

func (that *gamesHandler) Get(ctx echo.Context) error {
	game, err := that.catalog.Find(ctx.Param("name"))
	if errors.Is(err, launcher.ErrGameNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
	}

	return ctx.JSON(http.StatusOK, game)
}
