package engine

import (
	"time"

	"goosechess/chessmg"
	"goosechess/eval"
)

// Info is the progress record emitted after every completed depth.
type Info struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	NPS      uint64
	Time     time.Duration
	HashFull int
	PV       []chessmg.Move
}

// Result is the outcome of a search. BestMove is NullMove only when the root
// has no legal moves.
type Result struct {
	BestMove chessmg.Move
	Score    int
	Depth    int
	SelDepth int
	Nodes    uint64
	Time     time.Duration
	PV       []chessmg.Move

	// Aborted is set when a stop request, a cancelled context or the hard
	// deadline ended the search before it finished on its own.
	Aborted  bool
	FromBook bool
}

// Ponder returns the expected reply, if the PV has one.
func (r Result) Ponder() chessmg.Move {
	if len(r.PV) > 1 {
		return r.PV[1]
	}
	return chessmg.NullMove
}

// emergencyMove picks the legal move with the best static score one ply
// deep. It is the answer when not even depth 1 completes.
func emergencyMove(pos *chessmg.Position, ev eval.Evaluator, moves []chessmg.Move) (chessmg.Move, int32) {
	ev.Refresh(pos)
	best, bestScore := chessmg.NullMove, -Infinity
	for _, m := range moves {
		ev.Push(pos, m)
		st := pos.MakeMove(m)
		var score int32
		switch {
		case pos.IsCheckmate():
			score = MaxScore - 1
		case pos.IsStalemate():
			score = DrawScore
		default:
			score = -int32(ev.Evaluate(pos))
		}
		pos.UnmakeMove(m, st)
		ev.Pop()
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best, bestScore
}

// moveToFront keeps the root list ordered with the last best move first.
func moveToFront(moves []chessmg.Move, m chessmg.Move) {
	for i, cand := range moves {
		if cand == m {
			copy(moves[1:i+1], moves[:i])
			moves[0] = m
			return
		}
	}
}

// iterativeDeepening is the main worker's driver. report receives one Info
// per completed depth.
func (s *searcher) iterativeDeepening(maxDepth int, fallback chessmg.Move, fallbackScore int32, report func(Info)) Result {
	res := Result{BestMove: fallback, Score: int(fallbackScore)}
	var prevScore int32

	for depth := 1; depth <= maxDepth; depth++ {
		// No point starting a depth we will not finish.
		if depth > 1 && s.tm.SoftTimeExceeded() {
			break
		}

		s.seldepth = 0
		s.rootBest = chessmg.NullMove

		var pvLine PVLine
		score, ok := s.aspirationSearch(depth, prevScore, &pvLine)
		if !ok {
			res.Aborted = true
			// A partially searched first depth still beats the static fallback.
			if res.Depth == 0 && s.rootBest != chessmg.NullMove {
				res.BestMove = s.rootBest
				res.Score = int(s.rootScore)
				res.PV = []chessmg.Move{s.rootBest}
			}
			break
		}

		best := pvLine.GetPVMove()
		if best == chessmg.NullMove {
			best = s.rootBest
		}
		if depth > 1 && best != res.BestMove {
			s.tm.ExtendTime()
		}

		prevScore = score
		s.rootPrevBest = best
		moveToFront(s.rootMoves, best)

		res.BestMove = best
		res.Score = int(score)
		res.Depth = depth
		res.SelDepth = s.seldepth
		res.PV = pvLine.Moves()
		if len(res.PV) == 0 {
			res.PV = []chessmg.Move{best}
		}

		s.flushNodes()
		if report != nil {
			report(Info{
				Depth:    depth,
				SelDepth: s.seldepth,
				Score:    int(score),
				Nodes:    s.totalNodes(),
				Time:     s.tm.Elapsed(),
				PV:       res.PV,
			})
		}

		// A mate proven within the horizon cannot get shorter.
		if Abs(score) >= Checkmate && int(MaxScore-Abs(score)) <= depth {
			break
		}
	}

	if s.stopped() && !res.Aborted {
		res.Aborted = true
	}
	s.flushNodes()
	return res
}

// aspirationSearch runs one root search at depth, narrowing the window
// around the previous score from depth 4 on and widening it on failure.
// ok is false when the search was stopped.
func (s *searcher) aspirationSearch(depth int, prevScore int32, pvLine *PVLine) (score int32, ok bool) {
	alpha, beta := -Infinity, Infinity
	window := aspirationWindowSize
	if depth >= 4 && Abs(prevScore) < Checkmate {
		alpha = Max(prevScore-window, -Infinity)
		beta = Min(prevScore+window, Infinity)
	}

	for {
		score = s.alphabeta(alpha, beta, int8(depth), 0, pvLine, chessmg.NullMove, false)
		if s.stopped() {
			return 0, false
		}
		switch {
		case score <= alpha:
			window *= 2
			alpha = Max(score-window, -Infinity)
		case score >= beta:
			window *= 2
			beta = Min(score+window, Infinity)
		default:
			return score, true
		}
		if window > 1000 {
			alpha, beta = -Infinity, Infinity
		}
	}
}

// helperLoop is the Lazy SMP helper driver: no reporting, no soft deadline,
// a staggered start depth and a reshuffled root order every iteration.
func (s *searcher) helperLoop(maxDepth int) {
	var prevScore int32
	for depth := 1 + s.id%2; depth <= maxDepth; depth++ {
		shuffleMoves(s.rootMoves)
		var pvLine PVLine
		score, ok := s.aspirationSearch(depth, prevScore, &pvLine)
		if !ok {
			break
		}
		prevScore = score
	}
	s.flushNodes()
}
