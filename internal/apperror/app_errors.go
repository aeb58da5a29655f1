package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrMatchBlocked     = errors.New("match is blocked")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrNoActiveSession  = errors.New("no active session")
	ErrGameNotAvailable = errors.New("game is not available yet")
)
