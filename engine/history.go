package engine

import "goosechess/chessmg"

/*
HISTORY/COUNTER MOVES
If a move was a cut-node (above beta), and not a capture, we keep track of two things:
The move that countered us (previous move made) - a counter move
A historical score of the move - since we know it was a good move to keep track of, we make sure we can use this for move ordering later
*/

// Ensure we stay below the captures, killers etc
const historyMaxVal = 16000

// HistoryTable scores quiet moves by moved piece and destination square.
type HistoryTable struct {
	scores  [16][64]int32
	counter [16][64]chessmg.Move
}

func (h *HistoryTable) Score(m chessmg.Move) int32 {
	return h.scores[m.MovedPiece()][m.To()]
}

// Increment the history score for the given move if it caused a beta-cutoff and is quiet.
func (h *HistoryTable) incrementHistoryScore(m chessmg.Move, depth int8) {
	d := int32(depth)
	h.scores[m.MovedPiece()][m.To()] += d * d
	if h.scores[m.MovedPiece()][m.To()] >= historyMaxVal {
		h.ageHistoryTable()
	}
}

// Decrement the history score for a quiet move that was tried before the cutoff move.
func (h *HistoryTable) decrementHistoryScore(m chessmg.Move, depth int8) {
	d := int32(depth)
	h.scores[m.MovedPiece()][m.To()] -= d * d
	if h.scores[m.MovedPiece()][m.To()] <= -historyMaxVal {
		h.ageHistoryTable()
	}
}

// Age the values in the history table by halving them.
func (h *HistoryTable) ageHistoryTable() {
	for pc := range h.scores {
		for sq := range h.scores[pc] {
			h.scores[pc][sq] /= 2
		}
	}
}

// storeCounter remembers move as the refutation of prevMove.
func (h *HistoryTable) storeCounter(prevMove, move chessmg.Move) {
	if prevMove == chessmg.NullMove {
		return
	}
	h.counter[prevMove.MovedPiece()][prevMove.To()] = move
}

func (h *HistoryTable) counterMove(prevMove chessmg.Move) chessmg.Move {
	if prevMove == chessmg.NullMove {
		return chessmg.NullMove
	}
	return h.counter[prevMove.MovedPiece()][prevMove.To()]
}
