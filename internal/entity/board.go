package entity

import (
	"errors"
	"fmt"
)

type Mark string

const (
	MarkX     Mark = "X"
	MarkO     Mark = "O"
	EmptyCell Mark = ""

	// Tie is stored as the winner of a match that ended on a full board.
	Tie Mark = "-"
)

const BoardSize = 3

var ErrInvalidCell = errors.New("invalid cell position")

// Opponent returns the other player's mark.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return EmptyCell
	}
}

// CellPosition - (line, column) pair of a board cell, both 0-indexed.
type CellPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (that CellPosition) Valid() bool {
	return that.Line >= 0 && that.Line < BoardSize && that.Column >= 0 && that.Column < BoardSize
}

func (that CellPosition) Index() int {
	return that.Line*BoardSize + that.Column
}

func (that CellPosition) String() string {
	return fmt.Sprintf("[%d,%d]", that.Line, that.Column)
}

func PositionFromIndex(index int) (CellPosition, error) {
	if index < 0 || index >= BoardSize*BoardSize {
		return CellPosition{}, fmt.Errorf("%w: index %d", ErrInvalidCell, index)
	}

	return CellPosition{Line: index / BoardSize, Column: index % BoardSize}, nil
}

// BoardLine - one of the eight winning triples.
type BoardLine int

const (
	NoLine BoardLine = iota
	Horizontal1
	Horizontal2
	Horizontal3
	Vertical1
	Vertical2
	Vertical3
	Diagonal1
	Diagonal2
)

// BoardLines lists the winning triples in the order they are checked.
var BoardLines = []BoardLine{
	Horizontal1, Horizontal2, Horizontal3,
	Vertical1, Vertical2, Vertical3,
	Diagonal1, Diagonal2,
}

var lineCells = map[BoardLine][3]int{
	Horizontal1: {0, 1, 2},
	Horizontal2: {3, 4, 5},
	Horizontal3: {6, 7, 8},
	Vertical1:   {0, 3, 6},
	Vertical2:   {1, 4, 7},
	Vertical3:   {2, 5, 8},
	Diagonal1:   {0, 4, 8},
	Diagonal2:   {2, 4, 6},
}

var lineNames = map[BoardLine]string{
	NoLine:      "",
	Horizontal1: "horizontal_1",
	Horizontal2: "horizontal_2",
	Horizontal3: "horizontal_3",
	Vertical1:   "vertical_1",
	Vertical2:   "vertical_2",
	Vertical3:   "vertical_3",
	Diagonal1:   "diagonal_1",
	Diagonal2:   "diagonal_2",
}

// Cells returns the positions covered by the line.
func (that BoardLine) Cells() [3]CellPosition {
	var cells [3]CellPosition
	for i, index := range lineCells[that] {
		cells[i] = CellPosition{Line: index / BoardSize, Column: index % BoardSize}
	}

	return cells
}

func (that BoardLine) String() string {
	return lineNames[that]
}

func (that BoardLine) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *BoardLine) UnmarshalText(text []byte) error {
	for line, name := range lineNames {
		if name == string(text) {
			*that = line
			return nil
		}
	}

	return fmt.Errorf("unknown board line %q", string(text))
}

// Board - 3x3 grid stored row by row.
type Board [BoardSize * BoardSize]Mark

func (that Board) At(pos CellPosition) Mark {
	return that[pos.Index()]
}

func (that *Board) Set(pos CellPosition, mark Mark) {
	that[pos.Index()] = mark
}

func (that Board) IsEmpty(pos CellPosition) bool {
	return that[pos.Index()] == EmptyCell
}

func (that Board) EmptyCells() []CellPosition {
	cells := make([]CellPosition, 0, len(that))
	for i, mark := range that {
		if mark == EmptyCell {
			cells = append(cells, CellPosition{Line: i / BoardSize, Column: i % BoardSize})
		}
	}

	return cells
}

func (that Board) IsFull() bool {
	for _, mark := range that {
		if mark == EmptyCell {
			return false
		}
	}

	return true
}

// Winner returns the mark owning a complete line, if any.
func (that Board) Winner() (Mark, BoardLine, bool) {
	for _, line := range BoardLines {
		combo := lineCells[line]
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a, line, true
		}
	}

	return EmptyCell, NoLine, false
}
