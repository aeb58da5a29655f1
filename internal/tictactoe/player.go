package tictactoe

import (
	"errors"
	"sync"

	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

var ErrNoPosition = errors.New("no position chosen")

// Player - a participant that can choose where to put its mark.
type Player interface {
	Label() entity.Mark
	NextMove(board entity.Board) (entity.CellPosition, error)
}

// HumanPlayer plays the position chosen by the user through SetPosition.
type HumanPlayer struct {
	label entity.Mark

	mu       sync.Mutex
	position *entity.CellPosition
}

func NewHumanPlayer(label entity.Mark) *HumanPlayer {
	return &HumanPlayer{label: label}
}

func (that *HumanPlayer) Label() entity.Mark {
	return that.label
}

// SetPosition stores the cell for the next move.
func (that *HumanPlayer) SetPosition(position entity.CellPosition) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.position = &position
}

// NextMove hands out the pending position once.
func (that *HumanPlayer) NextMove(_ entity.Board) (entity.CellPosition, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.position == nil {
		return entity.CellPosition{}, ErrNoPosition
	}

	position := *that.position
	that.position = nil

	return position, nil
}
