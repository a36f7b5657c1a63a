package engine

import (
	"strings"

	"goosechess/chessmg"
)

// PVLine is a fixed-capacity principal variation, kept on the stack of each
// search frame.
type PVLine struct {
	moves [MaxPly]chessmg.Move
	n     int
}

func (pv *PVLine) Clear() { pv.n = 0 }

// Update sets the line to move followed by child.
func (pv *PVLine) Update(move chessmg.Move, child *PVLine) {
	pv.moves[0] = move
	n := copy(pv.moves[1:], child.moves[:child.n])
	pv.n = n + 1
}

// GetPVMove returns the first move of the line, or NullMove.
func (pv *PVLine) GetPVMove() chessmg.Move {
	if pv.n == 0 {
		return chessmg.NullMove
	}
	return pv.moves[0]
}

func (pv *PVLine) Len() int { return pv.n }

// Moves returns a copy of the line.
func (pv *PVLine) Moves() []chessmg.Move {
	out := make([]chessmg.Move, pv.n)
	copy(out, pv.moves[:pv.n])
	return out
}

// getPVLineString renders moves in pos's castling convention.
func getPVLineString(pos *chessmg.Position, moves []chessmg.Move) string {
	var sb strings.Builder
	for i, m := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pos.MoveString(m))
	}
	return sb.String()
}
