package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rocketscienceinc/gamelauncher/internal/hanoi"
)

const autoplayInterval = 300 * time.Millisecond

type hanoiStepMsg struct {
	epoch int
}

type hanoiModel struct {
	logger *slog.Logger

	tower    *hanoi.Tower
	selected int
	plan     []hanoi.Move
	epoch    int
	status   string
}

func newHanoi(logger *slog.Logger) *hanoiModel {
	tower, _ := hanoi.New(hanoi.MinDiscs)

	return &hanoiModel{
		logger:   logger.With("component", "hanoi"),
		tower:    tower,
		selected: -1,
	}
}

func (that *hanoiModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case hanoiStepMsg:
		if msg.epoch != that.epoch {
			return nil
		}

		return that.autoplayStep()

	case tea.KeyMsg:
		return that.handleKey(msg)
	}

	return nil
}

func (that *hanoiModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch key := msg.String(); key {
	case "1", "2", "3":
		that.stopAutoplay()
		that.pick(int(key[0] - '1'))
	case "+", "=":
		that.resize(that.tower.Discs() + 1)
	case "-":
		that.resize(that.tower.Discs() - 1)
	case "r":
		that.stopAutoplay()
		that.tower.Reset()
		that.selected = -1
		that.status = ""
	case "a":
		return that.autoplay()
	case "esc":
		return back
	}

	return nil
}

// pick selects the source peg first, then moves its top disc onto the target peg.
func (that *hanoiModel) pick(peg int) {
	if that.selected < 0 {
		if that.tower.Top(peg) == 0 {
			that.status = hanoi.ErrEmptyPeg.Error()
			return
		}

		that.selected = peg
		that.status = fmt.Sprintf("peg %d selected", peg+1)

		return
	}

	from := that.selected
	that.selected = -1

	if from == peg {
		that.status = ""
		return
	}

	if err := that.tower.Move(from, peg); err != nil {
		that.status = moveErrorText(err)
		return
	}

	that.status = ""
	if that.tower.IsSolved() {
		that.status = fmt.Sprintf("solved in %d moves (minimum %d)", that.tower.Moves(), that.tower.MinimumMoves())
		that.logger.Debug("tower solved", "discs", that.tower.Discs(), "moves", that.tower.Moves())
	}
}

func (that *hanoiModel) resize(discs int) {
	tower, err := hanoi.New(discs)
	if err != nil {
		that.status = fmt.Sprintf("discs must be between %d and %d", hanoi.MinDiscs, hanoi.MaxDiscs)
		return
	}

	that.stopAutoplay()
	that.tower = tower
	that.selected = -1
	that.status = ""
}

// autoplay resets the tower and plays the optimal solution one move per tick.
func (that *hanoiModel) autoplay() tea.Cmd {
	plan, err := hanoi.Solve(that.tower.Discs())
	if err != nil {
		that.status = err.Error()
		return nil
	}

	that.stopAutoplay()
	that.tower.Reset()
	that.selected = -1
	that.plan = plan
	that.status = "solving..."

	return that.tick()
}

func (that *hanoiModel) autoplayStep() tea.Cmd {
	if len(that.plan) == 0 {
		return nil
	}

	move := that.plan[0]
	that.plan = that.plan[1:]

	if err := that.tower.Move(move.From, move.To); err != nil {
		that.logger.Error("autoplay move failed", "move", move.String(), "error", err)
		that.stopAutoplay()

		return nil
	}

	if len(that.plan) == 0 {
		that.status = fmt.Sprintf("solved in %d moves", that.tower.Moves())
		return nil
	}

	return that.tick()
}

func (that *hanoiModel) tick() tea.Cmd {
	epoch := that.epoch

	return tea.Tick(autoplayInterval, func(time.Time) tea.Msg {
		return hanoiStepMsg{epoch: epoch}
	})
}

func (that *hanoiModel) stopAutoplay() {
	that.epoch++
	that.plan = nil
}

func moveErrorText(err error) string {
	switch {
	case errors.Is(err, hanoi.ErrLargerOnSmaller):
		return "a larger disc cannot go on a smaller one"
	case errors.Is(err, hanoi.ErrEmptyPeg):
		return hanoi.ErrEmptyPeg.Error()
	case errors.Is(err, hanoi.ErrSolved):
		return "already solved, press r to play again"
	default:
		return err.Error()
	}
}

func (that *hanoiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tower of Hanoi"))
	b.WriteString("\n\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("discs: %d   moves: %d   minimum: %d",
		that.tower.Discs(), that.tower.Moves(), that.tower.MinimumMoves())))
	b.WriteString("\n\n")

	pegs := that.tower.Pegs()
	columns := make([]string, 0, hanoi.Pegs)

	for i, peg := range pegs {
		lines := make([]string, 0, hanoi.MaxDiscs+1)

		for level := that.tower.Discs() - 1; level >= 0; level-- {
			if level < len(peg) {
				lines = append(lines, discStyle.Render(strings.Repeat("█", peg[level]*2)))
			} else {
				lines = append(lines, "|")
			}
		}

		lines = append(lines, fmt.Sprintf("%d", i+1))

		style := pegStyle
		if i == that.selected {
			style = selectedPegStyle
		}

		columns = append(columns, style.Render(strings.Join(lines, "\n")))
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Bottom, columns...))
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(that.status))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("1/2/3: pick peg • +/-: discs • r: reset • a: solve • esc: back"))

	return b.String()
}
