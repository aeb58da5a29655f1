package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/launcher"
	"github.com/rocketscienceinc/gamelauncher/internal/tictactoe"
	"github.com/rocketscienceinc/gamelauncher/internal/usecase"
)

type screen int

const (
	screenLauncher screen = iota
	screenTicTacToe
	screenHanoi
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

type backMsg struct{}

func back() tea.Msg {
	return backMsg{}
}

// gameItem adapts a catalogue entry to the list component.
type gameItem struct {
	game entity.GameItem
}

func (that gameItem) Title() string {
	if that.game.Playable {
		return that.game.Title
	}

	return that.game.Title + " (soon)"
}

func (that gameItem) Description() string { return that.game.Description }
func (that gameItem) FilterValue() string { return that.game.Title }

type Options struct {
	Timing     usecase.Timing
	Settings   entity.Settings
	BotOptions []tictactoe.BotOption
}

// App - the launcher screen and the game that is currently open.
type App struct {
	logger  *slog.Logger
	catalog *launcher.Catalog
	opts    Options

	screen    screen
	list      list.Model
	ticTacToe *ticTacToeModel
	hanoi     *hanoiModel
	status    string
}

func NewApp(logger *slog.Logger, catalog *launcher.Catalog, opts Options) *App {
	games := catalog.Games()
	items := make([]list.Item, 0, len(games))

	for _, game := range games {
		items = append(items, gameItem{game: game})
	}

	gameList := list.New(items, list.NewDefaultDelegate(), defaultWidth, defaultHeight)
	gameList.Title = "Game Launcher"
	gameList.Styles.Title = titleStyle

	return &App{
		logger:  logger.With("component", "tui"),
		catalog: catalog,
		opts:    opts,
		list:    gameList,
	}
}

func (that *App) Init() tea.Cmd {
	return nil
}

func (that *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		that.list.SetSize(msg.Width, msg.Height-2)
		return that, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return that, tea.Quit
		}

	case backMsg:
		that.screen = screenLauncher
		that.status = ""

		return that, nil
	}

	switch that.screen {
	case screenTicTacToe:
		return that, that.ticTacToe.Update(msg)
	case screenHanoi:
		return that, that.hanoi.Update(msg)
	default:
		return that.updateLauncher(msg)
	}
}

func (that *App) updateLauncher(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && that.list.FilterState() != list.Filtering {
		switch key.String() {
		case "q":
			return that, tea.Quit
		case "enter":
			that.launch()
			return that, nil
		}
	}

	var cmd tea.Cmd
	that.list, cmd = that.list.Update(msg)

	return that, cmd
}

func (that *App) launch() {
	log := that.logger.With("method", "launch")

	item, ok := that.list.SelectedItem().(gameItem)
	if !ok {
		return
	}

	game, err := that.catalog.Launch(item.game.Name)
	if errors.Is(err, apperror.ErrGameNotAvailable) {
		that.status = fmt.Sprintf("%s is coming soon", item.game.Title)
		return
	}

	if err != nil {
		log.Error("failed to launch game", "game", item.game.Name, "error", err)
		that.status = err.Error()

		return
	}

	log.Info("launching game", "game", game.Name)
	that.status = ""

	switch game.Name {
	case launcher.GameTicTacToe:
		// the match and scores survive going back to the list
		if that.ticTacToe == nil {
			that.ticTacToe = newTicTacToe(that.logger, that.opts.Timing, that.opts.Settings, that.opts.BotOptions...)
		}

		that.screen = screenTicTacToe
	case launcher.GameHanoi:
		if that.hanoi == nil {
			that.hanoi = newHanoi(that.logger)
		}

		that.screen = screenHanoi
	default:
		that.status = fmt.Sprintf("%s has no screen", game.Title)
	}
}

func (that *App) View() string {
	switch that.screen {
	case screenTicTacToe:
		return that.ticTacToe.View()
	case screenHanoi:
		return that.hanoi.View()
	default:
		return that.list.View() + "\n" + statusStyle.Render(that.status)
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(app *App) error {
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run tui: %w", err)
	}

	return nil
}
