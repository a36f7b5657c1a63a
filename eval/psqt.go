package eval

import (
	"math/bits"

	"goosechess/chessmg"
)

// Middlegame and endgame piece-square tables from White's point of view, a1 = 0.
var psqtMG = [7][64]int{
	chessmg.PieceTypePawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		-46, -41, -42, -39, -40, -12, 1, -21,
		-51, -52, -45, -45, -37, -37, -20, -30,
		-46, -40, -33, -33, -23, -26, -15, -30,
		-36, -27, -27, -11, 1, 2, -4, -21,
		-33, -6, 7, 13, 27, 57, 19, -11,
		57, 54, 55, 54, 46, 32, 4, 9,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	chessmg.PieceTypeKnight: {
		-24, -28, -46, -30, -25, -21, -27, -40,
		-35, -32, -18, -10, -14, -12, -20, -18,
		-25, -8, -4, 6, 7, -1, -1, -17,
		-14, -1, 8, 5, 13, 10, 26, -1,
		-5, 8, 30, 35, 24, 43, 19, 22,
		-21, 12, 40, 49, 67, 64, 37, 14,
		-17, -12, 20, 33, 33, 37, -8, 3,
		-61, -6, -12, -2, 1, -6, -1, -16,
	},
	chessmg.PieceTypeBishop: {
		4, -2, -15, -21, -18, -8, -8, 2,
		4, 8, 11, -2, 1, 5, 20, 11,
		-2, 11, 8, 13, 10, 8, 10, 13,
		-7, 10, 15, 21, 26, 11, 10, 7,
		-4, 22, 24, 49, 34, 37, 20, 6,
		4, 18, 36, 36, 47, 55, 37, 24,
		-22, 6, 3, -7, 4, 14, -3, 8,
		-27, -8, -13, -12, -8, -21, 1, -10,
	},
	chessmg.PieceTypeRook: {
		-46, -41, -37, -34, -36, -40, -19, -42,
		-71, -45, -44, -43, -47, -37, -25, -51,
		-60, -46, -50, -44, -47, -48, -21, -38,
		-49, -45, -43, -35, -37, -34, -13, -29,
		-33, -21, -11, 6, 0, 7, 8, 2,
		-22, 10, 4, 25, 41, 38, 44, 20,
		-3, -5, 16, 28, 31, 37, 9, 30,
		23, 22, 19, 24, 23, 20, 21, 34,
	},
	chessmg.PieceTypeQueen: {
		-6, -17, -12, -3, -6, -28, -27, -12,
		-11, -4, 2, -2, -1, 7, 8, -7,
		-8, -1, -2, -4, -4, -1, 8, 7,
		-5, -3, -2, -6, -6, 10, 7, 16,
		-11, -6, -2, -1, 12, 22, 26, 26,
		-13, -6, -1, 14, 36, 58, 71, 42,
		-11, -40, 5, 5, 20, 44, -2, 27,
		0, 16, 21, 29, 36, 38, 25, 36,
	},
	chessmg.PieceTypeKing: {
		-4, 36, -1, -69, -23, -74, 19, 26,
		12, 0, -18, -53, -33, -39, 7, 25,
		-6, -4, -3, -11, -6, -8, 4, -15,
		-1, 8, 16, 10, 15, 12, 23, -9,
		0, 9, 16, 10, 13, 15, 15, -8,
		1, 11, 12, 9, 8, 14, 12, 0,
		-2, 6, 6, 2, 3, 4, 3, -2,
		-1, 0, 0, 2, 0, 0, 0, -2,
	},
}
var psqtEG = [7][64]int{
	chessmg.PieceTypePawn: {
		0, 0, 0, 0, 0, 0, 0, 0,
		-9, -8, -4, -2, 7, 2, -14, -29,
		-16, -17, -13, -12, -9, -12, -26, -29,
		-8, -10, -19, -18, -19, -17, -22, -21,
		3, -2, -5, -23, -16, -14, -10, -12,
		21, 22, 21, 22, 22, 11, 25, 17,
		75, 69, 58, 48, 43, 43, 55, 63,
		0, 0, 0, 0, 0, 0, 0, 0,
	},
	chessmg.PieceTypeKnight: {
		-29, -60, -26, -18, -20, -28, -48, -30,
		-28, -13, -13, -6, -4, -16, -18, -31,
		-38, -3, 6, 19, 18, 5, -2, -33,
		-15, 11, 32, 36, 34, 35, 16, -9,
		-11, 14, 28, 43, 48, 36, 28, -1,
		-20, 6, 24, 26, 20, 31, 12, -11,
		-25, -12, 1, 21, 19, -3, -9, -16,
		-41, -11, 2, 0, 1, 4, -4, -17,
	},
	chessmg.PieceTypeBishop: {
		-28, -16, -38, -14, -19, -24, -21, -20,
		-10, -20, -12, -4, -5, -18, -18, -33,
		-12, -1, 7, 10, 8, 3, -11, -11,
		-5, 6, 17, 18, 15, 14, 4, -10,
		0, 11, 12, 17, 24, 15, 19, 3,
		-5, 8, 11, 11, 13, 19, 12, 3,
		-7, 7, 10, 11, 12, 10, 12, -6,
		1, 5, 5, 8, 4, 0, 2, 2,
	},
	chessmg.PieceTypeRook: {
		-10, 0, 5, 5, 3, 3, -1, -18,
		-8, -10, -3, -6, -5, -11, -14, -10,
		-2, 7, 8, 5, 4, 3, -1, -8,
		13, 25, 26, 22, 20, 18, 12, 6,
		25, 27, 30, 26, 23, 20, 16, 16,
		34, 24, 32, 25, 17, 24, 14, 18,
		36, 42, 40, 41, 40, 23, 28, 22,
		32, 37, 40, 37, 38, 42, 39, 37,
	},
	chessmg.PieceTypeQueen: {
		-25, -35, -41, -48, -50, -39, -27, -9,
		-26, -24, -44, -27, -36, -62, -57, -17,
		-22, -17, 5, -10, -11, 1, -19, -14,
		-19, 5, 6, 38, 32, 30, 17, 20,
		-11, 14, 13, 42, 52, 57, 49, 33,
		-1, 3, 20, 29, 45, 56, 40, 38,
		7, 31, 25, 36, 57, 44, 28, 25,
		14, 26, 29, 38, 44, 43, 31, 33,
	},
	chessmg.PieceTypeKing: {
		-37, -29, -20, -26, -54, -14, -35, -78,
		-15, -9, -3, 4, -2, 1, -15, -35,
		-16, -3, 7, 16, 13, 6, -8, -18,
		-16, 8, 21, 28, 25, 19, 5, -18,
		-2, 22, 29, 30, 29, 26, 20, -5,
		1, 26, 25, 19, 16, 32, 31, -1,
		-12, 14, 11, 3, 5, 10, 20, -9,
		-17, -12, -6, -1, -6, -6, -6, -14,
	},
}

// Piece base values (midgame/endgame) and mobility values
var pieceValueMG = [7]int{
	chessmg.PieceTypePawn: 88, chessmg.PieceTypeKnight: 316, chessmg.PieceTypeBishop: 331, chessmg.PieceTypeRook: 494, chessmg.PieceTypeQueen: 993,
}
var pieceValueEG = [7]int{
	chessmg.PieceTypePawn: 111, chessmg.PieceTypeKnight: 305, chessmg.PieceTypeBishop: 333, chessmg.PieceTypeRook: 535, chessmg.PieceTypeQueen: 963,
}
var mobilityValueMG = [7]int{
	chessmg.PieceTypeKnight: 2, chessmg.PieceTypeBishop: 3, chessmg.PieceTypeRook: 2, chessmg.PieceTypeQueen: 1,
}
var mobilityValueEG = [7]int{
	chessmg.PieceTypeKnight: 3, chessmg.PieceTypeBishop: 2, chessmg.PieceTypeRook: 4, chessmg.PieceTypeQueen: 4,
}

// Game phase weights for interpolation
const (
	KnightPhase = 1
	BishopPhase = 1
	RookPhase   = 2
	QueenPhase  = 4
	TotalPhase  = KnightPhase*4 + BishopPhase*4 + RookPhase*4 + QueenPhase*2
)

var phaseWeight = [7]int{
	chessmg.PieceTypeKnight: KnightPhase, chessmg.PieceTypeBishop: BishopPhase,
	chessmg.PieceTypeRook: RookPhase, chessmg.PieceTypeQueen: QueenPhase,
}

const (
	TempoBonus        = 10
	BishopPairBonusMG = 10
	BishopPairBonusEG = 50

	// Scores of material-drawish endings are divided by this.
	DrawDivider = 8
)

// flip mirrors a square vertically so Black can read White's tables.
func flip(sq chessmg.Square) chessmg.Square { return sq ^ 56 }

// PSQT is the tapered evaluator: material, piece-square tables, mobility,
// pawn structure, rook files, king safety, bishop pair and tempo, blended by
// the remaining non-pawn material. It keeps no incremental state; the pawn
// cache makes it unsafe to share between goroutines.
type PSQT struct {
	pawns *pawnTable
}

// NewPSQT returns the tapered evaluator with an empty pawn cache.
func NewPSQT() *PSQT { return &PSQT{pawns: newPawnTable(defaultPawnEntries)} }

func (*PSQT) Refresh(*chessmg.Position) {}
func (*PSQT) Push(*chessmg.Position, chessmg.Move) {}
func (*PSQT) Pop() {}
func (*PSQT) Clone() Evaluator { return NewPSQT() }

// Phase returns the interpolation weight of the middlegame terms, 0..TotalPhase.
func Phase(pos *chessmg.Position) int {
	phase := 0
	for pt := chessmg.PieceTypeKnight; pt <= chessmg.PieceTypeQueen; pt++ {
		phase += bits.OnesCount64(pos.PiecesOfType(pt)) * phaseWeight[pt]
	}
	if phase > TotalPhase {
		phase = TotalPhase
	}
	return phase
}

// Evaluate returns the side-to-move relative score.
func (e *PSQT) Evaluate(pos *chessmg.Position) int {
	score := e.whiteScore(pos)
	if pos.SideToMove() == chessmg.Black {
		score = -score
	}
	return clampEval(score)
}

func (e *PSQT) whiteScore(pos *chessmg.Position) int {
	var mg, eg int
	occ := pos.AllOccupancy()
	wp := pos.Pieces(chessmg.White, chessmg.PieceTypePawn)
	bp := pos.Pieces(chessmg.Black, chessmg.PieceTypePawn)

	pmg, peg, ok := e.pawns.lookup(wp, bp)
	if !ok {
		pmg, peg = pawnStructure(wp, bp)
		e.pawns.store(wp, bp, pmg, peg)
	}
	mg += pmg
	eg += peg

	rmg, reg := rookFiles(pos, wp, bp)
	mg += rmg
	eg += reg
	mg += kingSafety(pos, chessmg.White, wp, bp) - kingSafety(pos, chessmg.Black, bp, wp)
	mg += pawnStorm(pos, wp, bp)

	var pawnAttacks [2]uint64
	for _, c := range [2]chessmg.Color{chessmg.White, chessmg.Black} {
		for pawns := pos.Pieces(c, chessmg.PieceTypePawn); pawns != 0; pawns &= pawns - 1 {
			pawnAttacks[c] |= chessmg.PawnAttacks(c, chessmg.Square(bits.TrailingZeros64(pawns)))
		}
	}

	for _, c := range [2]chessmg.Color{chessmg.White, chessmg.Black} {
		sign := 1
		if c == chessmg.Black {
			sign = -1
		}
		own := pos.Occupancy(c)
		enemyPawnAttacks := pawnAttacks[c.Other()]

		for pt := chessmg.PieceTypePawn; pt <= chessmg.PieceTypeKing; pt++ {
			for x := pos.Pieces(c, pt); x != 0; x &= x - 1 {
				sq := chessmg.Square(bits.TrailingZeros64(x))
				idx := sq
				if c == chessmg.Black {
					idx = flip(sq)
				}
				mg += sign * (pieceValueMG[pt] + psqtMG[pt][idx])
				eg += sign * (pieceValueEG[pt] + psqtEG[pt][idx])

				var attacks uint64
				switch pt {
				case chessmg.PieceTypeKnight:
					attacks = chessmg.KnightAttacks(sq)
				case chessmg.PieceTypeBishop:
					attacks = chessmg.BishopAttacks(sq, occ)
				case chessmg.PieceTypeRook:
					attacks = chessmg.RookAttacks(sq, occ)
				case chessmg.PieceTypeQueen:
					attacks = chessmg.QueenAttacks(sq, occ)
				default:
					continue
				}
				mobility := bits.OnesCount64(attacks &^ own &^ enemyPawnAttacks)
				mg += sign * mobility * mobilityValueMG[pt]
				eg += sign * mobility * mobilityValueEG[pt]
			}
		}

		if bits.OnesCount64(pos.Pieces(c, chessmg.PieceTypeBishop)) >= 2 {
			mg += sign * BishopPairBonusMG
			eg += sign * BishopPairBonusEG
		}
	}

	if pos.SideToMove() == chessmg.White {
		mg += TempoBonus
		eg += TempoBonus
	} else {
		mg -= TempoBonus
		eg -= TempoBonus
	}

	phase := Phase(pos)
	score := (mg*phase + eg*(TotalPhase-phase)) / TotalPhase

	if isTheoreticalDraw(pos) {
		score /= DrawDivider
	}
	return score
}

// isTheoreticalDraw flags pawnless endings where the stronger side is at most
// a minor piece ahead, which are usually impossible to win.
func isTheoreticalDraw(pos *chessmg.Position) bool {
	if pos.PiecesOfType(chessmg.PieceTypePawn) != 0 {
		return false
	}
	if pos.PiecesOfType(chessmg.PieceTypeQueen) != 0 {
		return false
	}
	minor := func(c chessmg.Color) int {
		return bits.OnesCount64(pos.Pieces(c, chessmg.PieceTypeKnight) | pos.Pieces(c, chessmg.PieceTypeBishop))
	}
	rooks := func(c chessmg.Color) int {
		return bits.OnesCount64(pos.Pieces(c, chessmg.PieceTypeRook))
	}
	wm, bm := minor(chessmg.White), minor(chessmg.Black)
	wr, br := rooks(chessmg.White), rooks(chessmg.Black)

	switch {
	case wr == 0 && br == 0:
		// Minor-piece endings: a lone minor, or minor against minor.
		return wm <= 1 && bm <= 1 || (wm == 2 && bm == 1) || (wm == 1 && bm == 2)
	case wr == 1 && br == 1:
		// Rook against rook, possibly with one extra minor.
		return wm+bm <= 1
	case wr == 1 && br == 0:
		return wm == 0 && bm >= 1 && bm <= 2
	case br == 1 && wr == 0:
		return bm == 0 && wm >= 1 && wm <= 2
	}
	return false
}
