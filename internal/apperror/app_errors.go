package apperror

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomFull             = errors.New("room full")
	ErrRoomClosed           = errors.New("room is closed")
	ErrRoomCodeExhausted    = errors.New("could not allocate a free room code")
	ErrNotInRoom            = errors.New("connection is not seated in the room")
	ErrInvalidBoardSettings = errors.New("invalid board settings")

	ErrInvalidMove          = errors.New("invalid move")
	ErrNotYourTurn          = errors.New("it's not your turn")
	ErrCellOccupied         = errors.New("cell is already occupied")
	ErrOutOfBounds          = errors.New("cell is out of bounds")
	ErrRoundNotInProgress   = errors.New("round is not in progress")
	ErrGamePaused           = errors.New("game is paused")
	ErrRoundNotFinished     = errors.New("round is not finished")
	ErrOpponentMoveConflict = errors.New("opponent proposed an illegal cell")
)
