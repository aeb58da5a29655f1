package tictactoe

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

const scoreWin = 10

var (
	center  = entity.CellPosition{Line: 1, Column: 1}
	corners = []entity.CellPosition{
		{Line: 0, Column: 0},
		{Line: 0, Column: 2},
		{Line: 2, Column: 0},
		{Line: 2, Column: 2},
	}
	sides = []entity.CellPosition{
		{Line: 0, Column: 1},
		{Line: 1, Column: 0},
		{Line: 1, Column: 2},
		{Line: 2, Column: 1},
	}
)

// Bot - computer player whose strategy depends on its difficulty level.
type Bot struct {
	label    entity.Mark
	opponent entity.Mark

	mu         sync.Mutex
	difficulty entity.DifficultyLevel
	rnd        *rand.Rand
}

type BotOption func(*Bot)

// WithRand makes the bot's random choices reproducible. rnd must not be shared with another bot.
func WithRand(rnd *rand.Rand) BotOption {
	return func(bot *Bot) {
		bot.rnd = rnd
	}
}

// WithSeed gives every bot it is applied to its own PCG source seeded with seed.
func WithSeed(seed uint64) BotOption {
	return func(bot *Bot) {
		bot.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

func NewBot(label, opponent entity.Mark, difficulty entity.DifficultyLevel, opts ...BotOption) *Bot {
	bot := &Bot{
		label:      label,
		opponent:   opponent,
		difficulty: difficulty,
	}

	for _, opt := range opts {
		opt(bot)
	}

	if bot.rnd == nil {
		bot.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint: gosec // game randomness
	}

	return bot
}

func (that *Bot) Label() entity.Mark {
	return that.label
}

func (that *Bot) Opponent() entity.Mark {
	return that.opponent
}

func (that *Bot) ChangeDifficultyLevel(level entity.DifficultyLevel) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.difficulty = level
}

func (that *Bot) DifficultyLevel() entity.DifficultyLevel {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.difficulty
}

// NextMove picks a cell according to the current difficulty level.
func (that *Bot) NextMove(board entity.Board) (entity.CellPosition, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if board.IsFull() {
		return entity.CellPosition{}, ErrNoAvailableMoves
	}

	switch that.difficulty {
	case entity.Normal:
		return that.normalMove(board), nil
	case entity.Hard:
		return that.hardMove(board), nil
	default:
		return that.invincibleMove(board), nil
	}
}

// normalMove takes a winning cell when there is one and plays at random otherwise.
func (that *Bot) normalMove(board entity.Board) entity.CellPosition {
	if pos, ok := winningMove(board, that.label); ok {
		return pos
	}

	return that.pick(board.EmptyCells())
}

// hardMove follows the classic rule list: win, block, centre, opposite corner, corner, side.
func (that *Bot) hardMove(board entity.Board) entity.CellPosition {
	if pos, ok := winningMove(board, that.label); ok {
		return pos
	}

	if pos, ok := winningMove(board, that.opponent); ok {
		return pos
	}

	if board.IsEmpty(center) {
		return center
	}

	for _, corner := range corners {
		opposite := entity.CellPosition{Line: 2 - corner.Line, Column: 2 - corner.Column}
		if board.At(corner) == that.opponent && board.IsEmpty(opposite) {
			return opposite
		}
	}

	if free := freeOf(board, corners); len(free) > 0 {
		return that.pick(free)
	}

	return that.pick(freeOf(board, sides))
}

// invincibleMove plays one of the minimax-optimal cells.
func (that *Bot) invincibleMove(board entity.Board) entity.CellPosition {
	best := math.MinInt
	var moves []entity.CellPosition

	for _, pos := range board.EmptyCells() {
		next := board
		next.Set(pos, that.label)

		score := that.minimax(next, 1, false, math.MinInt, math.MaxInt)

		switch {
		case score > best:
			best = score
			moves = []entity.CellPosition{pos}
		case score == best:
			moves = append(moves, pos)
		}
	}

	return that.pick(moves)
}

// minimax scores a position from the bot's point of view; quicker wins score higher.
func (that *Bot) minimax(board entity.Board, depth int, maximizing bool, alpha, beta int) int {
	if winner, _, ok := board.Winner(); ok {
		if winner == that.label {
			return scoreWin - depth
		}

		return depth - scoreWin
	}

	if board.IsFull() {
		return 0
	}

	if maximizing {
		value := math.MinInt
		for _, pos := range board.EmptyCells() {
			next := board
			next.Set(pos, that.label)

			value = max(value, that.minimax(next, depth+1, false, alpha, beta))
			alpha = max(alpha, value)
			if alpha >= beta {
				break
			}
		}

		return value
	}

	value := math.MaxInt
	for _, pos := range board.EmptyCells() {
		next := board
		next.Set(pos, that.opponent)

		value = min(value, that.minimax(next, depth+1, true, alpha, beta))
		beta = min(beta, value)
		if alpha >= beta {
			break
		}
	}

	return value
}

func (that *Bot) pick(cells []entity.CellPosition) entity.CellPosition {
	return cells[that.rnd.IntN(len(cells))]
}

func winningMove(board entity.Board, mark entity.Mark) (entity.CellPosition, bool) {
	for _, pos := range board.EmptyCells() {
		next := board
		next.Set(pos, mark)

		if winner, _, ok := next.Winner(); ok && winner == mark {
			return pos, true
		}
	}

	return entity.CellPosition{}, false
}

func freeOf(board entity.Board, cells []entity.CellPosition) []entity.CellPosition {
	free := make([]entity.CellPosition, 0, len(cells))
	for _, pos := range cells {
		if board.IsEmpty(pos) {
			free = append(free, pos)
		}
	}

	return free
}
