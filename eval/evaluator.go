// Package eval scores positions for the search. Two strategies share the
// Evaluator interface: a tapered piece-square evaluator and a small NNUE.
package eval

import "goosechess/chessmg"

// MaxEval bounds every static evaluation. Scores beyond it are reserved for
// decided games (mate scores) which the search produces, never the evaluator.
const MaxEval = 15000

// Evaluator scores a position from the side to move's point of view.
//
// The search drives incremental strategies through Push and Pop: Push is
// called with the position before m is made, Pop after it is unmade.
// Refresh rebuilds any incremental state for pos from scratch and is called
// once at the root. Stateless strategies implement these as no-ops.
type Evaluator interface {
	Evaluate(pos *chessmg.Position) int
	Refresh(pos *chessmg.Position)
	Push(pos *chessmg.Position, m chessmg.Move)
	Pop()

	// Clone returns an evaluator with its own incremental state that shares
	// the read-only weights. Each search worker owns one.
	Clone() Evaluator
}

// Kind names an evaluator strategy for configuration.
type Kind string

const (
	KindPSQT Kind = "psqt"
	KindNNUE Kind = "nnue"
)

func clampEval(v int) int {
	if v > MaxEval {
		return MaxEval
	}
	if v < -MaxEval {
		return -MaxEval
	}
	return v
}
