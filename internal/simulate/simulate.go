package simulate

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/tictactoe"
)

var ErrNoGames = errors.New("number of games must be positive")

// Config - a batch of bot-vs-bot matches.
type Config struct {
	Games   int
	Workers int
	X       entity.DifficultyLevel
	O       entity.DifficultyLevel
	Seed    uint64
}

type Result struct {
	Games int `json:"games"`
	XWins int `json:"x_wins"`
	OWins int `json:"o_wins"`
	Draws int `json:"draws"`
}

func (that *Result) add(other Result) {
	that.Games += other.Games
	that.XWins += other.XWins
	that.OWins += other.OWins
	that.Draws += other.Draws
}

// Run plays cfg.Games independent matches. X opens the even games and O the odd ones.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Games <= 0 {
		return Result{}, ErrNoGames
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = min(workers, cfg.Games)

	g, ctx := errgroup.WithContext(ctx)
	results := make(chan Result, workers)

	for w := range workers {
		g.Go(func() error {
			var result Result

			// worker w plays games w, w+workers, w+2*workers...
			for game := w; game < cfg.Games; game += workers {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("simulation interrupted: %w", err)
				}

				winner, err := playGame(cfg, game)
				if err != nil {
					return fmt.Errorf("game %d: %w", game, err)
				}

				result.Games++

				switch winner {
				case entity.MarkX:
					result.XWins++
				case entity.MarkO:
					result.OWins++
				default:
					result.Draws++
				}
			}

			results <- result

			return nil
		})
	}

	err := g.Wait()
	close(results)

	if err != nil {
		return Result{}, err
	}

	var total Result
	for result := range results {
		total.add(result)
	}

	return total, nil
}

func playGame(cfg Config, game int) (entity.Mark, error) {
	seed := cfg.Seed + uint64(game)*2 //nolint: gosec // game is never negative

	botX := tictactoe.NewBot(entity.MarkX, entity.MarkO, cfg.X, tictactoe.WithSeed(seed))
	botO := tictactoe.NewBot(entity.MarkO, entity.MarkX, cfg.O, tictactoe.WithSeed(seed+1))

	var controller *tictactoe.GameController
	if game%2 == 0 {
		controller = tictactoe.NewGameController(botX, botO)
	} else {
		controller = tictactoe.NewGameController(botO, botX)
	}

	controller.StartNewMatch()

	for !controller.IsBlocked() {
		if _, err := controller.MakeTheMove(controller.CurrentPlayer()); err != nil {
			return entity.EmptyCell, fmt.Errorf("failed to make turn: %w", err)
		}
	}

	return controller.Snapshot().Winner, nil
}
