package chessmg

import (
	"math/bits"
	"math/rand"
)

// magicEntry maps the relevant occupancy of one square to its slider attack set:
// attacks[((occ & mask) * magic) >> shift].
type magicEntry struct {
	mask    uint64
	magic   uint64
	shift   uint
	attacks []uint64
}

var rookMagics [64]magicEntry
var bishopMagics [64]magicEntry

// relevantMask returns the squares whose occupancy can change the attack set
// from sq; the last square of every ray never matters.
func relevantMask(sq int, dirs [4][2]int) uint64 {
	var mask uint64
	file, rank := sq%8, sq/8
	for _, d := range dirs {
		f, r := file+d[0], rank+d[1]
		for onBoard(f+d[0], r+d[1]) {
			mask |= 1 << uint(r*8+f)
			f += d[0]
			r += d[1]
		}
	}
	return mask
}

func initMagics() {
	// Fixed seed: identical tables on every start.
	rnd := rand.New(rand.NewSource(0x5EED))
	for sq := 0; sq < 64; sq++ {
		rookMagics[sq] = findMagic(sq, rookDirections, rnd)
		bishopMagics[sq] = findMagic(sq, bishopDirections, rnd)
	}
}

// findMagic searches for a multiplier that maps every occupancy subset of the
// relevant mask to a slot without destructive collisions.
func findMagic(sq int, dirs [4][2]int, rnd *rand.Rand) magicEntry {
	mask := relevantMask(sq, dirs)
	n := bits.OnesCount64(mask)
	size := 1 << uint(n)

	// Enumerate all subsets of mask (carry-rippler) with their reference attacks.
	occs := make([]uint64, 0, size)
	refs := make([]uint64, 0, size)
	var sub uint64
	for {
		occs = append(occs, sub)
		refs = append(refs, slidingAttacks(sq, sub, dirs))
		sub = (sub - mask) & mask
		if sub == 0 {
			break
		}
	}

	shift := uint(64 - n)
	table := make([]uint64, size)
	used := make([]int, size)
	epoch := 0
	for {
		magic := rnd.Uint64() & rnd.Uint64() & rnd.Uint64()
		// Weak candidates rarely spread the high bits enough.
		if bits.OnesCount64((mask*magic)&0xFF00000000000000) < 6 {
			continue
		}
		epoch++
		ok := true
		for i, occ := range occs {
			idx := (occ * magic) >> shift
			if used[idx] != epoch {
				used[idx] = epoch
				table[idx] = refs[i]
			} else if table[idx] != refs[i] {
				ok = false
				break
			}
		}
		if ok {
			return magicEntry{mask: mask, magic: magic, shift: shift, attacks: table}
		}
	}
}

func (m *magicEntry) lookup(occ uint64) uint64 {
	return m.attacks[((occ&m.mask)*m.magic)>>m.shift]
}

// RookAttacks returns the rook attack set from sq given the occupancy.
func RookAttacks(sq Square, occ uint64) uint64 { return rookMagics[sq].lookup(occ) }

// BishopAttacks returns the bishop attack set from sq given the occupancy.
func BishopAttacks(sq Square, occ uint64) uint64 { return bishopMagics[sq].lookup(occ) }

// QueenAttacks is the union of rook and bishop attacks.
func QueenAttacks(sq Square, occ uint64) uint64 {
	return rookMagics[sq].lookup(occ) | bishopMagics[sq].lookup(occ)
}
