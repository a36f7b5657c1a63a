package chessmg

// Precomputed attack masks for knights and kings from each square.
var knightMoves [64]uint64
var kingMoves [64]uint64

// pawnAttacks[color][sq] is the set of squares a pawn of that color attacks from sq.
var pawnAttacks [2][64]uint64

// between[a][b] holds the squares strictly between a and b when they share a
// rank, file or diagonal; line[a][b] is the full line through both. Both are
// empty for unaligned pairs.
var between [64][64]uint64
var line [64][64]uint64

var rookDirections = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var bishopDirections = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

func init() {
	initLeaperTables()
	initMagics()
	initLineTables()
	initPawnMasks()
}

func onBoard(file, rank int) bool { return file >= 0 && file < 8 && rank >= 0 && rank < 8 }

func leaperMask(sq int, offsets [8][2]int) uint64 {
	file, rank := sq%8, sq/8
	var mask uint64
	for _, off := range offsets {
		f, r := file+off[0], rank+off[1]
		if onBoard(f, r) {
			mask |= 1 << uint(r*8+f)
		}
	}
	return mask
}

func initLeaperTables() {
	knightOffsets := [8][2]int{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}
	kingOffsets := [8][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
	for sq := 0; sq < 64; sq++ {
		knightMoves[sq] = leaperMask(sq, knightOffsets)
		kingMoves[sq] = leaperMask(sq, kingOffsets)

		file, rank := sq%8, sq/8
		for _, df := range [2]int{-1, 1} {
			if onBoard(file+df, rank+1) {
				pawnAttacks[White][sq] |= 1 << uint((rank+1)*8+file+df)
			}
			if onBoard(file+df, rank-1) {
				pawnAttacks[Black][sq] |= 1 << uint((rank-1)*8+file+df)
			}
		}
	}
}

// slidingAttacks walks rays from sq until the first blocker (inclusive).
// It is the slow reference used to build and check the magic tables.
func slidingAttacks(sq int, occ uint64, dirs [4][2]int) uint64 {
	var attacks uint64
	file, rank := sq%8, sq/8
	for _, d := range dirs {
		f, r := file+d[0], rank+d[1]
		for onBoard(f, r) {
			t := uint64(1) << uint(r*8+f)
			attacks |= t
			if occ&t != 0 {
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return attacks
}

func initLineTables() {
	for a := 0; a < 64; a++ {
		for b := 0; b < 64; b++ {
			if a == b {
				continue
			}
			ab := uint64(1)<<uint(a) | uint64(1)<<uint(b)
			if rookAttacksSlow(a, 0)&(1<<uint(b)) != 0 {
				line[a][b] = rookAttacksSlow(a, 0)&rookAttacksSlow(b, 0) | ab
				between[a][b] = rookAttacksSlow(a, ab) & rookAttacksSlow(b, ab)
			} else if bishopAttacksSlow(a, 0)&(1<<uint(b)) != 0 {
				line[a][b] = bishopAttacksSlow(a, 0)&bishopAttacksSlow(b, 0) | ab
				between[a][b] = bishopAttacksSlow(a, ab) & bishopAttacksSlow(b, ab)
			}
		}
	}
}

func rookAttacksSlow(sq int, occ uint64) uint64   { return slidingAttacks(sq, occ, rookDirections) }
func bishopAttacksSlow(sq int, occ uint64) uint64 { return slidingAttacks(sq, occ, bishopDirections) }

// KnightAttacks returns the knight attack set from sq.
func KnightAttacks(sq Square) uint64 { return knightMoves[sq] }

// KingAttacks returns the king attack set from sq.
func KingAttacks(sq Square) uint64 { return kingMoves[sq] }

// PawnAttacks returns the squares a pawn of color c attacks from sq.
func PawnAttacks(c Color, sq Square) uint64 { return pawnAttacks[c][sq] }
