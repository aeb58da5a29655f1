package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"

	"github.com/rocketscienceinc/gamelauncher/internal/config"
)

// CLI - command line of the launcher. Without a command it runs the servers.
type CLI struct {
	Config   string `help:"Path to the config file." short:"c" default:"config.yml" type:"path"`
	LogLevel string `help:"Overrides the log level from the config file." placeholder:"LEVEL"`

	Serve    ServeCmd    `cmd:"" default:"1" help:"Run the REST and WebSocket servers."`
	Play     PlayCmd     `cmd:"" help:"Open the game launcher in the terminal."`
	Simulate SimulateCmd `cmd:"" help:"Play bots against each other and print the results."`
	Hanoi    HanoiCmd    `cmd:"" help:"Tower of Hanoi tools."`
}

// main - is the entry point of the application. It parses the command line and runs the chosen command.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("gamelauncher"),
		kong.Description("Tic-tac-toe against a bot, and a shelf of other small games."),
		kong.UsageOnError(),
	)

	ctx.FatalIfErrorf(ctx.Run(&cli))
}

// initialize config.
func initConfig(cli *CLI) *config.Config {
	path := cli.Config
	if path != "" && !filepath.IsAbs(path) {
		baseDir, err := os.Getwd()
		if err != nil {
			panic(fmt.Errorf("failed to get current directory: %w", err))
		}

		path = filepath.Join(baseDir, path)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	conf := config.MustLoad(path)

	if cli.LogLevel != "" {
		conf.LogLevel = cli.LogLevel
	}

	return conf
}

// initialize logger.
func initLogger(conf *config.Config, w io.Writer) *slog.Logger {
	level, err := charmlog.ParseLevel(conf.LogLevel)
	if err != nil {
		level = charmlog.InfoLevel
	}

	formatter := charmlog.TextFormatter
	switch strings.ToLower(conf.LogFormat) {
	case "json":
		formatter = charmlog.JSONFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})

	return slog.New(handler)
}
