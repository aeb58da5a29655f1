package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	app "github.com/rocketscienceinc/gamelauncher/internal"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/hanoi"
	"github.com/rocketscienceinc/gamelauncher/internal/launcher"
	"github.com/rocketscienceinc/gamelauncher/internal/simulate"
	"github.com/rocketscienceinc/gamelauncher/internal/tui"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("241"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
)

type ServeCmd struct{}

func (that *ServeCmd) Run(cli *CLI) error {
	conf := initConfig(cli)
	logger := initLogger(conf, os.Stdout)

	if err := app.RunApp(context.Background(), logger, conf); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}

	return nil
}

type PlayCmd struct {
	Difficulty string `help:"Bot difficulty: normal, hard or invincible." short:"d" default:""`
	Sound      bool   `help:"Show sound cues." short:"s"`
	LogFile    string `help:"Where to write logs while the terminal is taken." default:"gamelauncher.log" type:"path"`
}

func (that *PlayCmd) Run(cli *CLI) error {
	conf := initConfig(cli)

	logFile, err := os.OpenFile(that.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := initLogger(conf, logFile)

	settings, err := app.DefaultSettings(conf)
	if err != nil {
		return err
	}

	if that.Difficulty != "" {
		if settings.Difficulty, err = entity.ParseDifficulty(that.Difficulty); err != nil {
			return fmt.Errorf("invalid difficulty: %w", err)
		}
	}

	settings.SoundEffect = that.Sound

	catalog, err := launcher.Load(conf.CatalogPath)
	if err != nil {
		return fmt.Errorf("could not load game catalog: %w", err)
	}

	return tui.Run(tui.NewApp(logger, catalog, tui.Options{
		Timing:   app.Timing(conf),
		Settings: settings,
	}))
}

type SimulateCmd struct {
	Games   int    `help:"Number of matches." short:"n" default:"1000"`
	Workers int    `help:"Parallel workers, 0 means one per CPU." short:"w" default:"0"`
	X       string `help:"Difficulty of the X bot." default:"invincible"`
	O       string `help:"Difficulty of the O bot." default:"invincible"`
	Seed    uint64 `help:"Seed for the bots, 0 picks one from the clock." default:"0"`
}

func (that *SimulateCmd) Run(_ *CLI) error {
	xLevel, err := entity.ParseDifficulty(that.X)
	if err != nil {
		return fmt.Errorf("invalid X difficulty: %w", err)
	}

	oLevel, err := entity.ParseDifficulty(that.O)
	if err != nil {
		return fmt.Errorf("invalid O difficulty: %w", err)
	}

	seed := that.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint: gosec // seed only
	}

	started := time.Now()

	result, err := simulate.Run(context.Background(), simulate.Config{
		Games:   that.Games,
		Workers: that.Workers,
		X:       xLevel,
		O:       oLevel,
		Seed:    seed,
	})
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("X (%s) vs O (%s)", xLevel, oLevel)))
	printRow("games", fmt.Sprintf("%d", result.Games))
	printRow("X wins", percent(result.XWins, result.Games))
	printRow("O wins", percent(result.OWins, result.Games))
	printRow("draws", percent(result.Draws, result.Games))
	printRow("seed", fmt.Sprintf("%d", seed))
	printRow("took", time.Since(started).Round(time.Millisecond).String())

	return nil
}

func printRow(label, value string) {
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value)))
}

func percent(count, total int) string {
	return fmt.Sprintf("%d (%.1f%%)", count, float64(count)*100/float64(total))
}

type HanoiCmd struct {
	Solve HanoiSolveCmd `cmd:"" help:"Print the shortest solution for a tower."`
}

type HanoiSolveCmd struct {
	Discs int `arg:"" optional:"" help:"Number of discs." default:"3"`
}

func (that *HanoiSolveCmd) Run(_ *CLI) error {
	moves, err := hanoi.Solve(that.Discs)
	if err != nil {
		return fmt.Errorf("failed to solve tower: %w", err)
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d discs, %d moves", that.Discs, len(moves))))

	for i, move := range moves {
		fmt.Printf("%4d  %s\n", i+1, move)
	}

	return nil
}
