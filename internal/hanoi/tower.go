// Package hanoi implements the Hanoi tower puzzle offered by the launcher.
package hanoi

import (
	"errors"
	"fmt"
)

const (
	Pegs = 3

	MinDiscs = 3
	MaxDiscs = 6
)

var (
	ErrInvalidDiscCount = errors.New("invalid number of discs")
	ErrInvalidPeg       = errors.New("invalid peg")
	ErrEmptyPeg         = errors.New("peg has no discs")
	ErrLargerOnSmaller  = errors.New("cannot put a larger disc on a smaller one")
	ErrSolved           = errors.New("tower is already solved")
)

// DiscChoices lists the disc counts a player can pick.
var DiscChoices = []int{3, 4, 5, 6}

// Move - a disc transfer from one peg to another.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (that Move) String() string {
	return fmt.Sprintf("%d -> %d", that.From, that.To)
}

// Tower - discs are numbered by size, 1 being the smallest; each peg lists its discs bottom to top.
type Tower struct {
	discs int
	pegs  [Pegs][]int
	moves int
}

func New(discs int) (*Tower, error) {
	if discs < MinDiscs || discs > MaxDiscs {
		return nil, fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidDiscCount, discs, MinDiscs, MaxDiscs)
	}

	tower := &Tower{discs: discs}
	tower.Reset()

	return tower, nil
}

// Reset puts every disc back on the first peg.
func (that *Tower) Reset() {
	that.pegs = [Pegs][]int{}
	for size := that.discs; size >= 1; size-- {
		that.pegs[0] = append(that.pegs[0], size)
	}

	that.moves = 0
}

func (that *Tower) Discs() int {
	return that.discs
}

func (that *Tower) Moves() int {
	return that.moves
}

// Pegs returns a copy of the pegs.
func (that *Tower) Pegs() [Pegs][]int {
	var pegs [Pegs][]int
	for i, peg := range that.pegs {
		pegs[i] = append([]int(nil), peg...)
	}

	return pegs
}

// Top returns the smallest disc of a peg, 0 when the peg is empty.
func (that *Tower) Top(peg int) int {
	if peg < 0 || peg >= Pegs || len(that.pegs[peg]) == 0 {
		return 0
	}

	return that.pegs[peg][len(that.pegs[peg])-1]
}

func (that *Tower) Move(from, to int) error {
	if from < 0 || from >= Pegs || to < 0 || to >= Pegs || from == to {
		return fmt.Errorf("%w: %d -> %d", ErrInvalidPeg, from, to)
	}

	if that.IsSolved() {
		return ErrSolved
	}

	disc := that.Top(from)
	if disc == 0 {
		return fmt.Errorf("%w: %d", ErrEmptyPeg, from)
	}

	if top := that.Top(to); top != 0 && top < disc {
		return fmt.Errorf("%w: %d on %d", ErrLargerOnSmaller, disc, top)
	}

	that.pegs[from] = that.pegs[from][:len(that.pegs[from])-1]
	that.pegs[to] = append(that.pegs[to], disc)
	that.moves++

	return nil
}

func (that *Tower) IsSolved() bool {
	return len(that.pegs[Pegs-1]) == that.discs
}

func (that *Tower) MinimumMoves() int {
	return 1<<that.discs - 1
}

// Solve returns the optimal sequence of moves from the initial position.
func Solve(discs int) ([]Move, error) {
	if discs < MinDiscs || discs > MaxDiscs {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDiscCount, discs)
	}

	moves := make([]Move, 0, 1<<discs-1)
	solve(discs, 0, Pegs-1, 1, &moves)

	return moves, nil
}

func solve(n, from, to, via int, moves *[]Move) {
	if n == 0 {
		return
	}

	solve(n-1, from, via, to, moves)
	*moves = append(*moves, Move{From: from, To: to})
	solve(n-1, via, to, from, moves)
}
