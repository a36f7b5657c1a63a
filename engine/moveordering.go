package engine

import "goosechess/chessmg"

type move struct {
	move  chessmg.Move
	score int32
}

type moveList struct {
	moves []move
}

// Most Valuable Victim - Least Valuable Aggressor; used to score & sort captures
var mvvLva = [7][7]int32{
	{0, 0, 0, 0, 0, 0, 0},
	{0, 14, 13, 12, 11, 10, 0}, // victim Pawn
	{0, 24, 23, 22, 21, 20, 0}, // victim Knight
	{0, 34, 33, 32, 31, 30, 0}, // victim Bishop
	{0, 44, 43, 42, 41, 40, 0}, // victim Rook
	{0, 54, 53, 52, 51, 50, 0}, // victim Queen
	{0, 0, 0, 0, 0, 0, 0},      // victim King
}

/*
	Move ordering offsets!
	- The TT/PV move is searched first; it is the best move found so far for this position.
	- Queen promotions come right after, then captures that do not lose material (SEE >= 0)
	  ordered by MVV-LVA.
	- Killers for this ply come next, the first slot ahead of the second, then the counter move.
	- Losing captures follow, still ordered by MVV-LVA.
	- The rest are ordered by their history score, which stays within +-historyMaxVal.
*/
var pvOffset int32 = 1_000_000
var promotionOffset int32 = 900_000
var captureOffset int32 = 800_000
var killerOffset int32 = 700_000
var counterOffset int32 = 600_000
var badCaptureOffset int32 = 500_000

// Ordering the moves one at a time, at index given
func orderNextMove(currIndex int, moves *moveList) {
	bestIndex := currIndex
	bestScore := moves.moves[bestIndex].score

	for index := bestIndex + 1; index < len(moves.moves); index++ {
		if moves.moves[index].score > bestScore {
			bestIndex = index
			bestScore = moves.moves[index].score
		}
	}

	moves.moves[currIndex], moves.moves[bestIndex] = moves.moves[bestIndex], moves.moves[currIndex]
}

func captureScore(m chessmg.Move) int32 {
	victim := m.CapturedPiece().Type()
	if m.IsEnPassant() {
		victim = chessmg.PieceTypePawn
	}
	return mvvLva[victim][m.MovedPiece().Type()]
}

// scoreMovesList scores legal moves into buf for the main search.
func (s *searcher) scoreMovesList(moves []chessmg.Move, buf []move, ply int, pvMove, prevMove chessmg.Move) (movesList moveList) {
	counter := s.history.counterMove(prevMove)
	movesList.moves = buf[:len(moves)]
	for i, m := range moves {
		var moveEval int32
		switch {
		case m == pvMove:
			moveEval = pvOffset
		case m.Promotion() == chessmg.PieceTypeQueen:
			moveEval = promotionOffset + captureScore(m)
		case m.IsCapture():
			if seeGE(s.pos, m, 0) {
				moveEval = captureOffset + captureScore(m)
			} else {
				moveEval = badCaptureOffset + captureScore(m)
			}
		case s.killers.IsKiller(m, ply) == 0:
			moveEval = killerOffset + 200
		case s.killers.IsKiller(m, ply) == 1:
			moveEval = killerOffset
		case m == counter:
			moveEval = counterOffset
		default:
			moveEval = s.history.Score(m)
		}
		movesList.moves[i] = move{move: m, score: moveEval}
	}
	return movesList
}

// scoreMovesListCaptures scores the noisy moves searched by quiescence.
func scoreMovesListCaptures(moves []chessmg.Move, buf []move, pvMove chessmg.Move) (movesList moveList) {
	movesList.moves = buf[:len(moves)]
	for i, m := range moves {
		var moveEval int32
		switch {
		case m == pvMove:
			moveEval = pvOffset
		case m.IsPromotion():
			moveEval = promotionOffset + int32(SeePieceValue[m.Promotion()]) + captureScore(m)
		default:
			moveEval = captureOffset + captureScore(m)
		}
		movesList.moves[i] = move{move: m, score: moveEval}
	}
	return movesList
}
