package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(logger *slog.Logger, catalog catalog, players playerUseCase) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	ping := NewPingHandler()
	games := NewGamesHandler(catalog)
	playersHandler := NewPlayersHandler(logger, players)

	e.GET("/ping", ping.Ping)
	e.GET("/games", games.List)
	e.GET("/games/:name", games.Get)
	e.GET("/players/:id/settings", playersHandler.GetSettings)
	e.PUT("/players/:id/settings", playersHandler.UpdateSettings)
	e.GET("/players/:id/stats", playersHandler.GetStats)
	e.GET("/players/:id/history", playersHandler.GetHistory)

	return &Server{
		logger: logger.With("component", "rest"),
		echo:   e,
	}
}

func (that *Server) Handler() http.Handler {
	return that.echo
}

// Start - serves until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := that.echo.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown server", "error", err)
		}
	}()

	log.Info("starting REST server", "port", port)

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
