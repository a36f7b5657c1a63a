package engine

import "goosechess/chessmg"

// quiescence resolves captures and promotions until the position is quiet.
// In check every evasion is searched, so mates are found here too.
func (s *searcher) quiescence(alpha, beta int32, ply int, pvLine *PVLine) int32 {
	pvLine.Clear()
	if s.stopped() {
		return 0
	}
	if ply > s.seldepth {
		s.seldepth = ply
	}
	if ply >= MaxPly-1 {
		return s.evaluate()
	}

	isPVNode := beta-alpha > 1
	posHash := s.pos.Hash()

	var ttMove chessmg.Move
	ttEntry, ttHit := s.tt.Probe(posHash, ply)
	if ttHit {
		ttMove = ttEntry.Move
		if !isPVNode {
			if ttScore, usable := useEntry(ttEntry, 0, alpha, beta); usable {
				return ttScore
			}
		}
	}

	inCheck := s.pos.InCheck()
	bestScore := -MaxScore + int32(ply)
	var standPat int32

	if !inCheck {
		standPat = s.evaluate()
		if standPat >= beta {
			s.stats.QStandPatCutoffs++
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
		bestScore = standPat
	}

	var moveList moveList
	if inCheck {
		moves := s.pos.GenerateMovesInto(s.moveBufs[ply][:0])
		if len(moves) == 0 {
			return -MaxScore + int32(ply)
		}
		moveList = s.scoreMovesList(moves, s.scoreBufs[ply][:], ply, ttMove, chessmg.NullMove)
	} else {
		moves := s.pos.GenerateNoisyInto(s.moveBufs[ply][:0])
		moveList = scoreMovesListCaptures(moves, s.scoreBufs[ply][:], ttMove)
	}

	originalAlpha := alpha
	var bestMove chessmg.Move
	var childPVLine PVLine

	for index := 0; index < len(moveList.moves); index++ {
		orderNextMove(index, &moveList)
		move := moveList.moves[index].move

		if !inCheck {
			// Losing captures rarely help; promotions are always tried.
			if !move.IsPromotion() && !seeGE(s.pos, move, 0) {
				s.stats.QSeePrunes++
				continue
			}

			// Delta pruning: even winning the victim outright cannot reach alpha.
			if standPat+captureGain(move)+DeltaMargin <= alpha {
				continue
			}
		}

		st := s.applyMoveWithState(move)
		score := -s.quiescence(-beta, -alpha, ply+1, &childPVLine)
		s.undoMove(move, st)
		if s.stopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score >= beta {
			s.stats.QBetaCutoffs++
			s.tt.Store(posHash, 0, ply, move, score, BoundLower)
			return score
		}
		if score > alpha {
			alpha = score
			pvLine.Update(move, &childPVLine)
		}
	}

	bound := BoundUpper
	if alpha > originalAlpha {
		bound = BoundExact
	}
	s.tt.Store(posHash, 0, ply, bestMove, bestScore, bound)
	return bestScore
}

// captureGain is the material a noisy move wins if it is not recaptured.
func captureGain(m chessmg.Move) int32 {
	gain := SeePieceValue[m.CapturedPiece().Type()]
	if m.IsPromotion() {
		gain += SeePieceValue[m.Promotion()] - SeePieceValue[chessmg.PieceTypePawn]
	}
	return int32(gain)
}
