package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
	"github.com/rocketscienceinc/gamelauncher/internal/tictactoe"
	"github.com/rocketscienceinc/gamelauncher/internal/usecase"
)

type blinkMsg struct {
	epoch int
	step  int
}

type restartMsg struct {
	epoch int
}

// matchEvents collects what the controller reported during the last move.
type matchEvents struct {
	won    bool
	winner entity.Mark
	line   entity.BoardLine
	filled bool
}

func (that *matchEvents) OnWinning(winner tictactoe.Player, line entity.BoardLine) {
	that.won = true
	that.winner = winner.Label()
	that.line = line
}

func (that *matchEvents) OnFillingBoard() {
	that.filled = true
}

func (that *matchEvents) take() matchEvents {
	events := *that
	*that = matchEvents{}

	return events
}

type ticTacToeModel struct {
	logger *slog.Logger
	timing usecase.Timing

	controller *tictactoe.GameController
	human      *tictactoe.HumanPlayer
	bot        *tictactoe.Bot
	events     *matchEvents

	cursor    entity.CellPosition
	sound     bool
	highlight bool
	// epoch drops ticks scheduled for a match that is already over.
	epoch  int
	status string
}

func newTicTacToe(logger *slog.Logger, timing usecase.Timing, settings entity.Settings, opts ...tictactoe.BotOption) *ticTacToeModel {
	model := &ticTacToeModel{
		logger: logger.With("component", "tictactoe"),
		timing: timing,
		human:  tictactoe.NewHumanPlayer(entity.MarkX),
		bot:    tictactoe.NewBot(entity.MarkO, entity.MarkX, settings.Difficulty, opts...),
		events: &matchEvents{},
		cursor: entity.CellPosition{Line: 1, Column: 1},
		sound:  settings.SoundEffect,
	}
	model.controller = tictactoe.NewGameController(model.human, model.bot, model.events)
	model.startMatch()

	return model
}

func (that *ticTacToeModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case blinkMsg:
		if msg.epoch != that.epoch {
			return nil
		}

		return that.blink(msg.step)

	case restartMsg:
		if msg.epoch != that.epoch {
			return nil
		}

		that.startMatch()

	case tea.KeyMsg:
		return that.handleKey(msg)
	}

	return nil
}

func (that *ticTacToeModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		that.cursor.Line = max(0, that.cursor.Line-1)
	case "down", "j":
		that.cursor.Line = min(entity.BoardSize-1, that.cursor.Line+1)
	case "left", "h":
		that.cursor.Column = max(0, that.cursor.Column-1)
	case "right", "l":
		that.cursor.Column = min(entity.BoardSize-1, that.cursor.Column+1)
	case "enter", " ":
		return that.play()
	case "1":
		that.changeDifficulty(entity.Normal)
	case "2":
		that.changeDifficulty(entity.Hard)
	case "3":
		that.changeDifficulty(entity.Invincible)
	case "s":
		that.sound = !that.sound
	case "n":
		that.startMatch()
	case "esc":
		return back
	}

	return nil
}

func (that *ticTacToeModel) play() tea.Cmd {
	if that.controller.IsBlocked() {
		that.status = "wait for the next match"
		return nil
	}

	if !that.controller.IsEmptyBoardPosition(that.cursor) {
		that.status = "cell is already occupied"
		return nil
	}

	that.human.SetPosition(that.cursor)
	if _, err := that.controller.MakeTheMove(that.human); err != nil {
		that.logger.Error("failed to make turn", "error", err)
		that.status = err.Error()

		return nil
	}

	that.status = that.cue(entity.SoundMove)

	if cmd := that.afterMove(); cmd != nil {
		return cmd
	}

	if err := that.botMove(); err != nil {
		return nil
	}

	return that.afterMove()
}

func (that *ticTacToeModel) botMove() error {
	if that.controller.IsBlocked() || that.controller.CurrentPlayer() != that.bot {
		return nil
	}

	if _, err := that.controller.MakeTheMove(that.bot); err != nil {
		that.logger.Error("failed to make bot turn", "error", err)
		that.status = err.Error()

		return err
	}

	return nil
}

// afterMove starts the end of match animation when the last move ended the match.
func (that *ticTacToeModel) afterMove() tea.Cmd {
	events := that.events.take()

	switch {
	case events.won:
		if events.winner == that.human.Label() {
			that.status = "you win! " + that.cue(entity.SoundWin)
		} else {
			that.status = "the bot wins " + that.cue(entity.SoundWin)
		}

		that.logger.Debug("match won", "winner", events.winner, "line", events.line)

		return that.blink(0)

	case events.filled:
		that.status = "draw"
		epoch := that.epoch

		return tea.Tick(that.timing.DrawRestartDelay, func(time.Time) tea.Msg {
			return restartMsg{epoch: epoch}
		})
	}

	return nil
}

func (that *ticTacToeModel) blink(step int) tea.Cmd {
	if step >= that.timing.BlinkCount {
		that.startMatch()
		return nil
	}

	that.highlight = step%2 == 0
	epoch := that.epoch

	return tea.Tick(that.timing.BlinkInterval, func(time.Time) tea.Msg {
		return blinkMsg{epoch: epoch, step: step + 1}
	})
}

func (that *ticTacToeModel) startMatch() {
	that.epoch++
	that.highlight = false
	that.events.take()

	that.controller.StartNewMatch()
	_ = that.botMove()

	that.status = fmt.Sprintf("match %d %s", that.controller.MatchNumber(), that.cue(entity.SoundStart))
}

// changeDifficulty restarts the match against the new bot, keeping the scores.
func (that *ticTacToeModel) changeDifficulty(level entity.DifficultyLevel) {
	that.controller.Block()
	that.bot.ChangeDifficultyLevel(level)
	that.startMatch()
}

func (that *ticTacToeModel) cue(sound string) string {
	if !that.sound {
		return ""
	}

	return "♪ " + sound
}

func (that *ticTacToeModel) View() string {
	state := that.controller.Snapshot()

	var b strings.Builder

	b.WriteString(titleStyle.Render("Tic-Tac-Toe"))
	b.WriteString("\n\n")

	sound := "off"
	if that.sound {
		sound = "on"
	}

	b.WriteString(infoStyle.Render(fmt.Sprintf("difficulty: %s   sound: %s", that.bot.DifficultyLevel(), sound)))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("You (%s) %d : %d Bot (%s)   match %d",
		that.controller.Player1().Label(), state.Player1Score,
		state.Player2Score, that.controller.Player2().Label(), state.MatchNumber)))
	b.WriteString("\n\n")

	winning := map[entity.CellPosition]bool{}
	if that.highlight && state.WinLine != entity.NoLine {
		for _, pos := range state.WinLine.Cells() {
			winning[pos] = true
		}
	}

	rows := make([]string, 0, entity.BoardSize)
	for line := range entity.BoardSize {
		cells := make([]string, 0, entity.BoardSize)

		for column := range entity.BoardSize {
			pos := entity.CellPosition{Line: line, Column: column}
			cells = append(cells, that.renderCell(state.Board.At(pos), pos, winning[pos]))
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n\n")

	switch {
	case state.Blocked:
	case state.Turn == that.human.Label():
		b.WriteString("your turn\n")
	default:
		b.WriteString("bot is thinking\n")
	}

	b.WriteString(statusStyle.Render(that.status))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("arrows: move • enter: place • 1/2/3: difficulty • s: sound • n: new match • esc: back"))

	return b.String()
}

func (that *ticTacToeModel) renderCell(mark entity.Mark, pos entity.CellPosition, winning bool) string {
	text := " "

	switch mark {
	case entity.MarkX:
		text = xStyle.Render(string(mark))
	case entity.MarkO:
		text = oStyle.Render(string(mark))
	}

	switch {
	case winning:
		return winCellStyle.Render(text)
	case pos == that.cursor:
		return cursorCellStyle.Render(text)
	default:
		return cellStyle.Render(text)
	}
}
