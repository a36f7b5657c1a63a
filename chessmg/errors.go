package chessmg

import "errors"

var (
	// ErrMalformedInput wraps every failure to parse a FEN, square or move string.
	ErrMalformedInput = errors.New("malformed input")

	// ErrIllegalMove reports a well-formed move that is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")
)
