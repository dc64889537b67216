package minefield

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid minefield configuration")
	ErrGameFinished         = errors.New("game is not running")
	ErrIllegalTransition    = errors.New("illegal tile state transition")
	ErrCorruptData          = errors.New("corrupt minefield data")
	ErrOutOfBounds          = errors.New("tile out of bounds")
)
