package engine

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"goosechess/chessmg"
	"goosechess/eval"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	MaxScore  int32 = 32500
	Checkmate int32 = 20000
	DrawScore int32 = 0

	// Infinity bounds the root window; no node returns it.
	Infinity = MaxScore + 1
)

// =============================================================================
// MARGINS
// =============================================================================
var FutilityMargins = [8]int32{0, 120, 220, 320, 420, 520, 620, 720}
var RFPMargins = [8]int32{0, 100, 200, 300, 400, 500, 600, 700}

var LateMovePruningMargins = [9]int{0, 3, 5, 9, 14, 20, 27, 35, 44}

// =============================================================================
// PRUNING PARAMETERS - int8 is fine for depth-related values
// =============================================================================
var NullMoveMinDepth int8 = 2
var DeltaMargin int32 = 200
var aspirationWindowSize int32 = 35

// searcher is one search worker. It owns its position, evaluator state,
// killers, history and repetition stack; only the transposition table, the
// stop flag and the node counter are shared.
type searcher struct {
	id   int
	pos  *chessmg.Position
	eval eval.Evaluator
	tt   *TransTable
	tm   *TimeHandler
	stop *atomic.Bool
	log  zerolog.Logger

	// Nodes over all workers; each worker adds its count in batches.
	sharedNodes *atomic.Uint64
	nodes       uint64
	flushed     uint64
	seldepth    int

	killers KillerStruct
	history HistoryTable
	states  stateStack
	stats   CutStatistics

	rootMoves    []chessmg.Move
	rootPrevBest chessmg.Move
	rootBest     chessmg.Move
	rootScore    int32

	staticEvals [MaxPly + 1]int32
	moveBufs    [MaxPly + 1][256]chessmg.Move
	scoreBufs   [MaxPly + 1][256]move
	quietBufs   [MaxPly + 1][256]chessmg.Move
}

func (s *searcher) stopped() bool { return s.stop.Load() }

func (s *searcher) evaluate() int32 { return int32(s.eval.Evaluate(s.pos)) }

// totalNodes is the shared count plus this worker's unflushed nodes.
func (s *searcher) totalNodes() uint64 {
	return s.sharedNodes.Load() + s.nodes - s.flushed
}

func (s *searcher) flushNodes() {
	s.sharedNodes.Add(s.nodes - s.flushed)
	s.flushed = s.nodes
}

// countNode is called once per move made. Limits are polled every
// pollInterval nodes; a node budget is checked on every node.
func (s *searcher) countNode() {
	s.nodes++
	if s.tm.NodesExceeded(s.totalNodes()) {
		s.stop.Store(true)
	}
	if s.nodes&(pollInterval-1) == 0 {
		s.flushNodes()
		if s.tm.TimeStatus() {
			s.stop.Store(true)
		}
	}
}

func (s *searcher) applyMoveWithState(m chessmg.Move) chessmg.MoveState {
	s.eval.Push(s.pos, m)
	st := s.pos.MakeMove(m)
	s.states.push(s.pos)
	s.countNode()
	return st
}

func (s *searcher) undoMove(m chessmg.Move, st chessmg.MoveState) {
	s.states.pop()
	s.pos.UnmakeMove(m, st)
	s.eval.Pop()
}

func (s *searcher) applyNullMoveWithState() chessmg.NullState {
	s.eval.Push(s.pos, chessmg.NullMove)
	st := s.pos.MakeNullMove()
	s.states.push(s.pos)
	return st
}

func (s *searcher) undoNullMove(st chessmg.NullState) {
	s.states.pop()
	s.pos.UnmakeNullMove(st)
	s.eval.Pop()
}

func (s *searcher) alphabeta(alpha, beta int32, depth int8, ply int, pvLine *PVLine, prevMove chessmg.Move, didNull bool) int32 {
	pvLine.Clear()
	if s.stopped() {
		return 0
	}

	/* INIT KEY VARIABLES */
	isRoot := ply == 0
	isPVNode := beta-alpha > 1
	if ply > s.seldepth {
		s.seldepth = ply
	}

	if !isRoot {
		// Draw detection
		if s.states.isDraw() {
			if s.pos.HalfmoveClock() >= fiftyMoveLimit && s.pos.IsCheckmate() {
				return -MaxScore + int32(ply)
			}
			return DrawScore
		}
		if s.pos.HasInsufficientMaterial() {
			return DrawScore
		}

		// Mate distance pruning
		alpha = Max(alpha, -MaxScore+int32(ply))
		beta = Min(beta, MaxScore-int32(ply)-1)
		if alpha >= beta {
			return alpha
		}

		if ply >= MaxPly-1 {
			return s.evaluate()
		}
	}

	inCheck := s.pos.InCheck()

	// Check extension
	if inCheck {
		depth++
	}

	// Quiescence at leaf nodes
	if depth <= 0 {
		return s.quiescence(alpha, beta, ply, pvLine)
	}

	posHash := s.pos.Hash()

	/*
		TRANSPOSITION TABLE LOOKUP
	*/
	var ttMove chessmg.Move
	ttEntry, ttHit := s.tt.Probe(posHash, ply)
	if ttHit {
		ttMove = ttEntry.Move
		if !isRoot && !isPVNode {
			if ttScore, usable := useEntry(ttEntry, depth, alpha, beta); usable {
				s.stats.TTCutoffs++
				return ttScore
			}
		}
	}
	if isRoot && s.rootPrevBest != chessmg.NullMove {
		ttMove = s.rootPrevBest
	}

	var staticScore int32
	if inCheck {
		staticScore = -MaxScore
	} else {
		staticScore = s.evaluate()
	}
	s.staticEvals[ply] = staticScore

	improving := false
	if ply >= 2 && !inCheck {
		improving = staticScore > s.staticEvals[ply-2]
	}

	/*
		If our position is so good that even after giving a margin to the opponent,
		we still beat beta, we can safely prune.
		Applied at depths 1-7, NOT in PV nodes or when in check.
	*/
	if !inCheck && !isPVNode && !isRoot && depth <= 7 && Abs(beta) < Checkmate {
		rfpMargin := RFPMargins[depth]
		if !improving {
			rfpMargin -= 50 // More aggressive when not improving
		}
		if staticScore-rfpMargin >= beta {
			s.stats.StaticNullCutoffs++
			return staticScore - rfpMargin
		}
	}

	/*
		NULL MOVE PRUNING
		Pass the turn; if a reduced search still fails high, a real move will too.
		Skipped in pawn-only endings where zugzwang is common.
	*/
	if !inCheck && !isPVNode && !didNull && !isRoot && depth >= NullMoveMinDepth &&
		staticScore >= beta && s.pos.HasNonPawnMaterial(s.pos.SideToMove()) {
		R := Min(3+depth/4, depth-1)

		var nullPV PVLine
		st := s.applyNullMoveWithState()
		score := -s.alphabeta(-beta, -beta+1, depth-1-R, ply+1, &nullPV, chessmg.NullMove, true)
		s.undoNullMove(st)
		if s.stopped() {
			return 0
		}

		if score >= beta && score < Checkmate {
			s.stats.NullMoveCutoffs++
			return score
		}
	}

	// Generate and score moves
	var moves []chessmg.Move
	if isRoot {
		moves = append(s.moveBufs[ply][:0], s.rootMoves...)
	} else {
		moves = s.pos.GenerateMovesInto(s.moveBufs[ply][:0])
	}

	// Checkmate/stalemate check
	if len(moves) == 0 {
		if inCheck {
			return -MaxScore + int32(ply)
		}
		return DrawScore
	}

	moveList := s.scoreMovesList(moves, s.scoreBufs[ply][:], ply, ttMove, prevMove)
	if isRoot && s.id > 0 {
		// Helpers keep their shuffled root order.
		for i := range moveList.moves {
			moveList.moves[i].score = int32(len(moves) - i)
		}
	}

	bestScore := -Infinity
	var bestMove chessmg.Move
	ttFlag := BoundUpper
	legalMoves := 0

	// Track quiet moves tried for history malus
	quietMovesTried := s.quietBufs[ply][:0]
	var childPVLine PVLine

	for index := 0; index < len(moveList.moves); index++ {
		orderNextMove(index, &moveList)
		move := moveList.moves[index].move

		quiet := move.IsQuiet()
		legalMoves++

		if quiet && !isRoot && !isPVNode && !inCheck && legalMoves > 1 && bestScore > -Checkmate {
			/*
				LATE MOVE PRUNING:
				Skip quiet moves late in the move list at low depths.
			*/
			if depth <= 8 {
				lmpMargin := LateMovePruningMargins[Min(int(depth), len(LateMovePruningMargins)-1)]
				// Be more aggressive when not improving
				if !improving {
					lmpMargin = lmpMargin * 2 / 3
				}
				if lmpMargin > 0 && legalMoves > lmpMargin && !s.pos.GivesCheck(move) {
					s.stats.LateMovePrunes++
					continue
				}
			}

			/*
				At depths 1-7, if static eval + margin can't beat alpha, prune quiet moves.
			*/
			if depth <= 7 && Abs(alpha) < Checkmate {
				futilityMargin := FutilityMargins[depth]
				if !improving {
					futilityMargin -= 50
				}
				if staticScore+futilityMargin <= alpha && !s.pos.GivesCheck(move) {
					s.stats.FutilityPrunes++
					continue
				}
			}
		}

		if quiet {
			quietMovesTried = append(quietMovesTried, move)
		}

		st := s.applyMoveWithState(move)

		var score int32
		if legalMoves == 1 {
			// First move: full-depth, full-window search
			score = -s.alphabeta(-beta, -alpha, depth-1, ply+1, &childPVLine, move, false)
		} else {
			/*
				LATE MOVE REDUCTIONS
			*/
			var reduct int8
			if quiet && !inCheck && !s.pos.InCheck() {
				reduct = computeLMRReduction(
					depth, legalMoves, isPVNode,
					s.history.Score(move), improving,
					s.killers.IsKiller(move, ply) >= 0,
				)
			}
			score = s.searchMoveWithPVS(move, depth-1, reduct, alpha, beta, ply, &childPVLine)
		}

		s.undoMove(move, st)
		if s.stopped() {
			return 0
		}

		// Update best score and move
		if score > bestScore {
			bestScore = score
			bestMove = move
		}

		// Beta cutoff
		if score >= beta {
			s.stats.BetaCutoffs++
			ttFlag = BoundLower
			if quiet {
				// Store killer and counter moves
				s.killers.InsertKiller(move, ply)
				s.history.storeCounter(prevMove, move)

				// History bonus for the good move
				s.history.incrementHistoryScore(move, depth)

				// History malus for all quiet moves that didn't work
				for _, failedMove := range quietMovesTried {
					if failedMove != move {
						s.history.decrementHistoryScore(failedMove, depth)
					}
				}
			}
			if isRoot {
				s.rootBest, s.rootScore = move, score
			}
			break
		}

		// Alpha improvement
		if score > alpha {
			alpha = score
			ttFlag = BoundExact
			pvLine.Update(move, &childPVLine)
			if isRoot {
				s.rootBest, s.rootScore = move, score
			}
		}
	}

	s.tt.Store(posHash, depth, ply, bestMove, bestScore, ttFlag)
	return bestScore
}

// searchMoveWithPVS performs a Principal Variation Search for a move
// This implements the standard PVS 3-stage pattern:
// 1. Search with reduced depth using null window
// 2. If reduction was applied and score > alpha, re-search at full depth with null window
// 3. If score is between alpha and beta, do a full window search
func (s *searcher) searchMoveWithPVS(move chessmg.Move, baseDepth, reduction int8, alpha, beta int32, ply int, childPVLine *PVLine) int32 {
	// Stage 1: Reduced depth null-window search
	score := -s.alphabeta(-(alpha + 1), -alpha, baseDepth-reduction, ply+1, childPVLine, move, false)

	// Stage 2: Re-search at full depth if we had a reduction and score > alpha
	if score > alpha && reduction > 0 {
		score = -s.alphabeta(-(alpha + 1), -alpha, baseDepth, ply+1, childPVLine, move, false)
	}

	// Stage 3: Full window search if score is in (alpha, beta) window
	if score > alpha && score < beta {
		score = -s.alphabeta(-beta, -alpha, baseDepth, ply+1, childPVLine, move, false)
	}

	return score
}
