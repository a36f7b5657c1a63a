package eval

import (
	"math/bits"

	"goosechess/chessmg"
)

// Passed pawn bonus by square from White's point of view.
var passedPawnMG = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	-11, -10, -11, -11, -1, -6, 16, 14,
	-2, -4, -17, -17, -7, -6, -5, 15,
	15, 6, -8, -5, -8, -8, -2, 6,
	34, 33, 25, 17, 11, 8, 15, 17,
	68, 52, 41, 33, 24, 24, 19, 17,
	56, 53, 55, 54, 46, 31, 4, 9,
	0, 0, 0, 0, 0, 0, 0, 0,
}
var passedPawnEG = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	18, 16, 10, 9, 4, 0, 8, 15,
	13, 22, 12, 10, 9, 8, 25, 13,
	32, 36, 29, 24, 23, 30, 44, 33,
	60, 54, 40, 41, 35, 37, 48, 45,
	102, 86, 64, 41, 33, 50, 57, 78,
	68, 66, 56, 46, 43, 42, 55, 62,
	0, 0, 0, 0, 0, 0, 0, 0,
}

const (
	IsolatedPawnMG = 6
	IsolatedPawnEG = 7
	DoubledPawnMG  = 4
	DoubledPawnEG  = 17
	PawnIslandMG   = 3
	PawnIslandEG   = 8

	RookOpenFileMG     = 30
	RookOpenFileEG     = 10
	RookHalfOpenFileMG = 13
	RookHalfOpenFileEG = 5

	KingOpenFileMG     = -15
	KingHalfOpenFileMG = -8

	// Missing shield pawn on one of the king's three files.
	ShelterMissingMG = -24

	PawnStormBlockedMG          = 2
	PawnStormOppositeMultiplier = 150
)

// Shelter penalty by how many ranks the nearest own pawn stands in front of the king.
var shelterDistanceMG = [8]int{0, 0, -8, -16, -24, -24, -24, -24}

// Storm bonus by the storming pawn's relative rank.
var pawnStormMG = [8]int{0, 0, 0, 5, 10, 20, 30, 0}

const defaultPawnEntries = 1 << 14

type pawnEntry struct {
	white, black uint64
	mg, eg       int16
}

// pawnTable caches the pawn-only terms. Entries are keyed by both pawn
// bitboards, so a hit is always exact. The zero entry is the pawnless
// structure, whose score is zero.
type pawnTable struct {
	entries []pawnEntry
	mask    uint64
}

func newPawnTable(size int) *pawnTable {
	n := 1
	for n*2 <= size {
		n *= 2
	}
	return &pawnTable{entries: make([]pawnEntry, n), mask: uint64(n - 1)}
}

func pawnKey(white, black uint64) uint64 {
	k := white*0x9E3779B97F4A7C15 ^ bits.RotateLeft64(black, 29)*0xC2B2AE3D27D4EB4F
	return k ^ k>>31
}

func (t *pawnTable) lookup(white, black uint64) (mg, eg int, ok bool) {
	e := &t.entries[pawnKey(white, black)&t.mask]
	if e.white == white && e.black == black {
		return int(e.mg), int(e.eg), true
	}
	return 0, 0, false
}

func (t *pawnTable) store(white, black uint64, mg, eg int) {
	t.entries[pawnKey(white, black)&t.mask] = pawnEntry{white: white, black: black, mg: int16(mg), eg: int16(eg)}
}

// pawnStructure scores doubled, isolated and passed pawns and pawn islands,
// White minus Black.
func pawnStructure(white, black uint64) (mg, eg int) {
	for _, c := range [2]chessmg.Color{chessmg.White, chessmg.Black} {
		own, enemy, sign := white, black, 1
		if c == chessmg.Black {
			own, enemy, sign = black, white, -1
		}

		doubled := chessmg.DoubledPawns(own)
		mg -= sign * doubled * DoubledPawnMG
		eg -= sign * doubled * DoubledPawnEG

		isolated := bits.OnesCount64(chessmg.IsolatedPawns(own))
		mg -= sign * isolated * IsolatedPawnMG
		eg -= sign * isolated * IsolatedPawnEG

		islands := chessmg.PawnIslands(own)
		mg -= sign * islands * PawnIslandMG
		eg -= sign * islands * PawnIslandEG

		for x := chessmg.PassedPawns(c, own, enemy); x != 0; x &= x - 1 {
			sq := chessmg.Square(bits.TrailingZeros64(x))
			if c == chessmg.Black {
				sq = flip(sq)
			}
			mg += sign * passedPawnMG[sq]
			eg += sign * passedPawnEG[sq]
		}
	}
	return mg, eg
}

// rookFiles rewards rooks on open and half-open files, White minus Black.
func rookFiles(pos *chessmg.Position, white, black uint64) (mg, eg int) {
	open := chessmg.OpenFiles(white, black)
	wRooks := pos.Pieces(chessmg.White, chessmg.PieceTypeRook)
	bRooks := pos.Pieces(chessmg.Black, chessmg.PieceTypeRook)
	wHalf := chessmg.HalfOpenFiles(white, black)
	bHalf := chessmg.HalfOpenFiles(black, white)

	n := bits.OnesCount64(open&wRooks) - bits.OnesCount64(open&bRooks)
	mg += n * RookOpenFileMG
	eg += n * RookOpenFileEG
	n = bits.OnesCount64(wHalf&wRooks) - bits.OnesCount64(bHalf&bRooks)
	mg += n * RookHalfOpenFileMG
	eg += n * RookHalfOpenFileEG
	return mg, eg
}

func kingFiles(kingFile int) uint64 {
	return chessmg.FileMask(kingFile) | chessmg.AdjacentFilesMask(kingFile)
}

// kingSafety scores the middlegame king terms for c: open and half-open
// files next to the king and the pawn shield in front of it.
func kingSafety(pos *chessmg.Position, c chessmg.Color, own, enemy uint64) int {
	ksq := pos.KingSquare(c)
	zone := kingFiles(ksq.File())
	score := 0

	openCount := bits.OnesCount64(zone&chessmg.OpenFiles(own, enemy)) / 8
	halfCount := bits.OnesCount64(zone&^chessmg.FileFill(own)) / 8
	score += openCount*KingOpenFileMG + (halfCount-openCount)*KingHalfOpenFileMG

	kingRank := ksq.Rank()
	for f := ksq.File() - 1; f <= ksq.File()+1; f++ {
		if f < 0 || f > 7 {
			continue
		}
		shield := own & chessmg.FileMask(f) & chessmg.ForwardFileMask(c, chessmg.SquareOf(f, kingRank))
		if shield == 0 {
			score += ShelterMissingMG
			continue
		}
		var nearest int
		if c == chessmg.White {
			nearest = bits.TrailingZeros64(shield) >> 3
		} else {
			nearest = (63 - bits.LeadingZeros64(shield)) >> 3
		}
		dist := nearest - kingRank
		if dist < 0 {
			dist = -dist
		}
		score += shelterDistanceMG[dist]
	}
	return score
}

func wing(file int) int {
	switch {
	case file <= 2:
		return -1
	case file >= 5:
		return 1
	}
	return 0
}

// pawnStorm rewards pawns advancing on the enemy king when the kings stand
// on different wings, White minus Black.
func pawnStorm(pos *chessmg.Position, white, black uint64) int {
	wk, bk := pos.KingSquare(chessmg.White), pos.KingSquare(chessmg.Black)
	ww, bw := wing(wk.File()), wing(bk.File())
	if ww == bw {
		return 0
	}

	storm := func(c chessmg.Color, own, enemy uint64, target chessmg.Square) int {
		score := 0
		for x := own & kingFiles(target.File()); x != 0; x &= x - 1 {
			sq := chessmg.Square(bits.TrailingZeros64(x))
			rank := sq.Rank()
			front := sq + 8
			if c == chessmg.Black {
				rank = 7 - rank
				front = sq - 8
			}
			bonus := pawnStormMG[rank]
			if bonus == 0 {
				continue
			}
			if enemy&(1<<front) != 0 {
				bonus -= PawnStormBlockedMG
			}
			score += bonus
		}
		return score
	}

	score := storm(chessmg.White, white, black, bk) - storm(chessmg.Black, black, white, wk)
	if ww != 0 && bw != 0 {
		score = score * PawnStormOppositeMultiplier / 100
	}
	return score
}
