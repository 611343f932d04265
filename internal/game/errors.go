package game

import "errors"

var (
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell already occupied")
	ErrGameFinished = errors.New("game already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrInvalidMark  = errors.New("invalid player mark")
)
