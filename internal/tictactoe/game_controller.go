package tictactoe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/gamelauncher/internal/apperror"
	"github.com/rocketscienceinc/gamelauncher/internal/entity"
)

var (
	ErrUnknownPlayer = errors.New("player does not take part in this game")
	ErrInvalidState  = errors.New("invalid game state")
)

// GameListener receives the outcome of a match.
type GameListener interface {
	OnWinning(winner Player, line entity.BoardLine)
	OnFillingBoard()
}

// State - serializable copy of the controller, used to persist and restore a game.
type State struct {
	Board        entity.Board
	Turn         entity.Mark
	Player1Score int
	Player2Score int
	MatchNumber  int
	Blocked      bool
	Winner       entity.Mark
	WinLine      entity.BoardLine
}

// GameController - owns the board, the turn and the score of two players.
type GameController struct {
	mu sync.Mutex

	board   entity.Board
	player1 Player
	player2 Player
	current Player

	player1Score int
	player2Score int
	matchNumber  int
	blocked      bool

	winner  entity.Mark
	winLine entity.BoardLine

	listeners []GameListener
}

// NewGameController - creates a controller that stays blocked until StartNewMatch is called.
func NewGameController(player1, player2 Player, listeners ...GameListener) *GameController {
	return &GameController{
		player1:   player1,
		player2:   player2,
		current:   player1,
		blocked:   true,
		listeners: listeners,
	}
}

// AddListener registers one more listener for match outcomes.
func (that *GameController) AddListener(listener GameListener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.listeners = append(that.listeners, listener)
}

// StartNewMatch clears the board and unblocks the game. Player 1 opens odd matches, player 2 even ones.
func (that *GameController) StartNewMatch() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.board = entity.Board{}
	that.matchNumber++
	that.blocked = false
	that.winner = entity.EmptyCell
	that.winLine = entity.NoLine

	if that.matchNumber%2 == 1 {
		that.current = that.player1
	} else {
		that.current = that.player2
	}
}

// MakeTheMove asks the player for a position and marks it.
func (that *GameController) MakeTheMove(player Player) (*entity.CellPosition, error) {
	that.mu.Lock()

	if that.blocked {
		that.mu.Unlock()
		return nil, apperror.ErrMatchBlocked
	}

	if player != that.player1 && player != that.player2 {
		that.mu.Unlock()
		return nil, ErrUnknownPlayer
	}

	if player != that.current {
		that.mu.Unlock()
		return nil, apperror.ErrNotYourTurn
	}

	position, err := player.NextMove(that.board)
	if err != nil {
		that.mu.Unlock()
		return nil, fmt.Errorf("failed to get next move: %w", err)
	}

	if err = that.validateMove(position); err != nil {
		that.mu.Unlock()
		return nil, fmt.Errorf("invalid turn: %w", err)
	}

	that.board.Set(position, player.Label())

	notify := that.updateGameStatus(player)
	that.mu.Unlock()

	notify()

	return &position, nil
}

// validateMove - checks if the move is valid.
func (that *GameController) validateMove(position entity.CellPosition) error {
	if !position.Valid() {
		return fmt.Errorf("%w: %s", entity.ErrInvalidCell, position)
	}

	if !that.board.IsEmpty(position) {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus checks the board after a move and returns the listener calls to run once unlocked.
func (that *GameController) updateGameStatus(player Player) func() {
	listeners := make([]GameListener, len(that.listeners))
	copy(listeners, that.listeners)

	if _, line, ok := that.board.Winner(); ok {
		if player == that.player1 {
			that.player1Score++
		} else {
			that.player2Score++
		}

		that.blocked = true
		that.winner = player.Label()
		that.winLine = line

		return func() {
			for _, listener := range listeners {
				listener.OnWinning(player, line)
			}
		}
	}

	if that.board.IsFull() {
		that.blocked = true
		that.winner = entity.Tie

		return func() {
			for _, listener := range listeners {
				listener.OnFillingBoard()
			}
		}
	}

	that.current = that.opponentOf(player)

	return func() {}
}

func (that *GameController) opponentOf(player Player) Player {
	if player == that.player1 {
		return that.player2
	}

	return that.player1
}

// Block rejects any move until the next StartNewMatch.
func (that *GameController) Block() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.blocked = true
}

func (that *GameController) IsBlocked() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.blocked
}

func (that *GameController) CurrentPlayer() Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.current
}

func (that *GameController) Player1() Player {
	return that.player1
}

func (that *GameController) Player2() Player {
	return that.player2
}

func (that *GameController) Player1Score() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.player1Score
}

func (that *GameController) Player2Score() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.player2Score
}

func (that *GameController) MatchNumber() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.matchNumber
}

func (that *GameController) IsEmptyBoardPosition(position entity.CellPosition) bool {
	if !position.Valid() {
		return false
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board.IsEmpty(position)
}

// Board returns a copy of the board.
func (that *GameController) Board() entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board
}

func (that *GameController) Snapshot() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return State{
		Board:        that.board,
		Turn:         that.current.Label(),
		Player1Score: that.player1Score,
		Player2Score: that.player2Score,
		MatchNumber:  that.matchNumber,
		Blocked:      that.blocked,
		Winner:       that.winner,
		WinLine:      that.winLine,
	}
}

// Restore replaces the controller state with a previously taken snapshot.
func (that *GameController) Restore(state State) error {
	switch state.Turn {
	case that.player1.Label(), that.player2.Label():
	default:
		return fmt.Errorf("%w: turn %q", ErrInvalidState, state.Turn)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	that.board = state.Board
	that.player1Score = state.Player1Score
	that.player2Score = state.Player2Score
	that.matchNumber = state.MatchNumber
	that.blocked = state.Blocked
	that.winner = state.Winner
	that.winLine = state.WinLine

	if state.Turn == that.player1.Label() {
		that.current = that.player1
	} else {
		that.current = that.player2
	}

	return nil
}
