package chessmg

import "math/bits"

const (
	FileABB uint64 = 0x0101010101010101
	FileHBB uint64 = FileABB << 7
)

var (
	fileMasks     [8]uint64
	adjacentFiles [8]uint64
	// forwardFile[c][sq] is every square in front of sq on its file, seen by c.
	forwardFile [2][64]uint64
	// passedSpan[c][sq] adds the two neighbouring files to forwardFile.
	passedSpan [2][64]uint64
)

func initPawnMasks() {
	for f := 0; f < 8; f++ {
		fileMasks[f] = FileABB << f
	}
	for f := 0; f < 8; f++ {
		if f > 0 {
			adjacentFiles[f] |= fileMasks[f-1]
		}
		if f < 7 {
			adjacentFiles[f] |= fileMasks[f+1]
		}
	}
	for sq := 0; sq < 64; sq++ {
		f, r := sq&7, sq>>3
		for rr := r + 1; rr < 8; rr++ {
			forwardFile[White][sq] |= 1 << (rr*8 + f)
		}
		for rr := r - 1; rr >= 0; rr-- {
			forwardFile[Black][sq] |= 1 << (rr*8 + f)
		}
		for _, c := range [2]Color{White, Black} {
			span := forwardFile[c][sq]
			passedSpan[c][sq] = span | (span<<1)&^FileABB | (span>>1)&^FileHBB
		}
	}
}

// FileMask returns the squares of file f (0 = a-file).
func FileMask(f int) uint64 { return fileMasks[f] }

// AdjacentFilesMask returns the files either side of f.
func AdjacentFilesMask(f int) uint64 { return adjacentFiles[f] }

// ForwardFileMask returns the squares ahead of sq on its file from c's side.
func ForwardFileMask(c Color, sq Square) uint64 { return forwardFile[c][sq] }

// FileFill smears every set bit over its whole file.
func FileFill(b uint64) uint64 {
	b |= b << 8
	b |= b << 16
	b |= b << 32
	b |= b >> 8
	b |= b >> 16
	b |= b >> 32
	return b
}

// OpenFiles returns the files holding no pawn of either colour.
func OpenFiles(whitePawns, blackPawns uint64) uint64 {
	return ^FileFill(whitePawns | blackPawns)
}

// HalfOpenFiles returns the files without own pawns that still hold an
// enemy pawn.
func HalfOpenFiles(own, enemy uint64) uint64 {
	return ^FileFill(own) & FileFill(enemy)
}

// PassedPawns returns the pawns of c with no enemy pawn in front of them on
// their own or a neighbouring file. Only the most advanced pawn of a file
// qualifies.
func PassedPawns(c Color, own, enemy uint64) uint64 {
	var passed uint64
	for x := own; x != 0; x &= x - 1 {
		sq := bits.TrailingZeros64(x)
		if passedSpan[c][sq]&enemy == 0 && forwardFile[c][sq]&own == 0 {
			passed |= 1 << sq
		}
	}
	return passed
}

// IsolatedPawns returns the pawns without a friendly pawn on a neighbouring file.
func IsolatedPawns(own uint64) uint64 {
	filled := FileFill(own)
	neighbours := (filled<<1)&^FileABB | (filled>>1)&^FileHBB
	return own &^ neighbours
}

// DoubledPawns counts the pawns beyond the first on each file.
func DoubledPawns(own uint64) int {
	n := 0
	for f := 0; f < 8; f++ {
		if cnt := bits.OnesCount64(own & fileMasks[f]); cnt > 1 {
			n += cnt - 1
		}
	}
	return n
}

// PawnIslands counts the groups of adjacent files that hold own pawns.
func PawnIslands(own uint64) int {
	files := uint8(FileFill(own))
	return bits.OnesCount8(files &^ (files << 1))
}
