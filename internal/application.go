package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gamelauncher/internal/config"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/launcher"
	"github.com/rocketscienceinc/gamelauncher/internal/repository"
	"github.com/rocketscienceinc/gamelauncher/internal/repository/storage"
	"github.com/rocketscienceinc/gamelauncher/internal/usecase"
	"github.com/rocketscienceinc/gamelauncher/transport/rest"
	"github.com/rocketscienceinc/gamelauncher/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the REST and WebSocket servers until SIGINT or SIGTERM.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defaults, err := DefaultSettings(conf)
	if err != nil {
		return err
	}

	catalog, err := launcher.Load(conf.CatalogPath)
	if err != nil {
		return fmt.Errorf("could not load game catalog: %w", err)
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err := sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	sessionRepo := repository.NewSessionRepository(redisStorage.Connection)
	settingsRepo := repository.NewSettingsRepository(redisStorage.Connection, defaults)
	historyRepo := repository.NewHistoryRepository(sqliteStorage.Connection)

	hub := websocket.NewHub(logger)
	sessionManager := usecase.NewSessionManager(logger, Timing(conf),
		playerRepo, sessionRepo, settingsRepo, historyRepo,
		usecase.WithNotifier(hub),
	)

	restServer := rest.New(logger, catalog, sessionManager)
	wsServer := websocket.New(logger, sessionManager, hub)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := restServer.Start(ctx, conf.HTTPPort); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		if err := wsServer.Start(ctx, conf.SocketPort); err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}

		return nil
	})

	// a failing server takes the other one down with it
	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	return nil
}

// DefaultSettings - settings of a player who never changed them.
func DefaultSettings(conf *config.Config) (entity.Settings, error) {
	settings := entity.DefaultSettings()

	if conf.TicTacToe.DefaultDifficulty == "" {
		return settings, nil
	}

	level, err := entity.ParseDifficulty(conf.TicTacToe.DefaultDifficulty)
	if err != nil {
		return settings, fmt.Errorf("invalid default difficulty: %w", err)
	}

	settings.Difficulty = level

	return settings, nil
}

func Timing(conf *config.Config) usecase.Timing {
	timing := usecase.DefaultTiming()

	if conf.TicTacToe.BlinkInterval > 0 {
		timing.BlinkInterval = conf.TicTacToe.BlinkInterval
	}

	if conf.TicTacToe.BlinkCount > 0 {
		timing.BlinkCount = conf.TicTacToe.BlinkCount
	}

	if conf.TicTacToe.DrawRestartDelay > 0 {
		timing.DrawRestartDelay = conf.TicTacToe.DrawRestartDelay
	}

	return timing
}
