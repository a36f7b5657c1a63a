package engine

import (
	"sync/atomic"

	"goosechess/chessmg"
)

// Bound tells how a stored score relates to the true value.
type Bound uint8

const (
	BoundNone Bound = iota

	// Fail-low: the true score is at most Score.
	BoundUpper

	// Fail-high: the true score is at least Score.
	BoundLower

	BoundExact
)

const (
	clusterSize = 4

	// Bytes per slot: key and data words.
	slotBytes = 16

	genBits = 6
	genMask = 1<<genBits - 1
)

// TTEntry is the decoded content of a slot.
type TTEntry struct {
	Move  chessmg.Move
	Score int32
	Depth int8
	Bound Bound
	Gen   uint8
}

// Data word layout: move 27 bits | score 16 | depth 8 | bound 2 | generation 6.
const (
	dataMoveBits  = 27
	dataScoreShft = 27
	dataDepthShft = 43
	dataBoundShft = 51
	dataGenShft   = 53
)

func packEntry(e TTEntry) uint64 {
	return uint64(e.Move)&(1<<dataMoveBits-1) |
		uint64(uint16(int16(e.Score)))<<dataScoreShft |
		uint64(uint8(e.Depth))<<dataDepthShft |
		uint64(e.Bound&3)<<dataBoundShft |
		uint64(e.Gen&genMask)<<dataGenShft
}

func unpackEntry(d uint64) TTEntry {
	return TTEntry{
		Move:  chessmg.Move(d & (1<<dataMoveBits - 1)),
		Score: int32(int16(uint16(d >> dataScoreShft))),
		Depth: int8(uint8(d >> dataDepthShft)),
		Bound: Bound((d >> dataBoundShft) & 3),
		Gen:   uint8((d >> dataGenShft) & genMask),
	}
}

// ttSlot stores key^data next to data. A reader that sees the two words
// from different writes fails the XOR check and treats the slot as a miss.
type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

func (s *ttSlot) load() (key, data uint64) {
	data = s.data.Load()
	return s.check.Load() ^ data, data
}

func (s *ttSlot) store(key, data uint64) {
	s.data.Store(data)
	s.check.Store(key ^ data)
}

// TransTable is a shared, lock-free hash table of search results organised in
// clusters of four slots. It is safe for concurrent use by search workers.
type TransTable struct {
	entries      []ttSlot
	clusterCount uint64
	generation   uint8
	policy       TTPolicy
}

// NewTransTable allocates a table of roughly sizeMB megabytes.
func NewTransTable(sizeMB int, policy TTPolicy) *TransTable {
	tt := &TransTable{policy: policy}
	tt.Resize(sizeMB)
	return tt
}

// Resize reallocates the table, dropping all entries.
func (tt *TransTable) Resize(sizeMB int) {
	totalBytes := uint64(Max(sizeMB, 1)) * 1024 * 1024
	clusterCount := totalBytes / (slotBytes * clusterSize)
	if clusterCount == 0 {
		clusterCount = 1
	}
	tt.clusterCount = clusterCount
	tt.entries = make([]ttSlot, clusterCount*clusterSize)
	tt.generation = 0
}

// Clear wipes every slot without reallocating.
func (tt *TransTable) Clear() {
	for i := range tt.entries {
		tt.entries[i].check.Store(0)
		tt.entries[i].data.Store(0)
	}
	tt.generation = 0
}

func (tt *TransTable) SetPolicy(p TTPolicy) { tt.policy = p }
func (tt *TransTable) Policy() TTPolicy { return tt.policy }

// NewSearch advances the generation. It must be called between searches,
// never while workers are probing.
func (tt *TransTable) NewSearch() {
	tt.generation = (tt.generation + 1) & genMask
}

func (tt *TransTable) cluster(hash uint64) []ttSlot {
	start := (hash % tt.clusterCount) * clusterSize
	return tt.entries[start : start+clusterSize]
}

// age is the number of generations since e was written.
func (tt *TransTable) age(e TTEntry) int {
	return int((tt.generation - e.Gen) & genMask)
}

// Probe looks up hash. Mate scores are converted from "distance to the stored
// node" back to "distance to the root" using ply. Entries of any generation
// are returned: the full 64-bit key check makes an old entry a valid result
// for the same position, and generation only steers replacement.
func (tt *TransTable) Probe(hash uint64, ply int) (TTEntry, bool) {
	slots := tt.cluster(hash)
	for i := range slots {
		key, data := slots[i].load()
		if key != hash || data == 0 {
			continue
		}
		e := unpackEntry(data)
		if e.Bound == BoundNone {
			return TTEntry{}, false
		}
		e.Score = scoreFromTT(e.Score, ply)
		return e, true
	}
	return TTEntry{}, false
}

// Store writes a search result. The slot is the one already holding hash,
// else an empty one, else the least valuable by depth and age. The policy
// then decides whether the victim may be overwritten.
func (tt *TransTable) Store(hash uint64, depth int8, ply int, move chessmg.Move, score int32, bound Bound) {
	slots := tt.cluster(hash)
	victim := -1
	sameKey := false
	var old TTEntry
	var oldData uint64

	for i := range slots {
		key, data := slots[i].load()
		if key == hash && data != 0 {
			victim, old, oldData, sameKey = i, unpackEntry(data), data, true
			break
		}
	}
	if victim == -1 {
		worst := 0
		for i := range slots {
			_, data := slots[i].load()
			if data == 0 {
				victim, oldData = i, 0
				break
			}
			e := unpackEntry(data)
			// Older entries and shallower ones are replaced first.
			value := int(e.Depth) - 8*tt.age(e)
			if victim == -1 || value < worst {
				victim, worst, old, oldData = i, value, e, data
			}
		}
	}

	if oldData != 0 && !tt.replaceable(old, depth, bound) {
		return
	}

	// Keep the old move when the new result has none for the same position.
	if move == chessmg.NullMove && sameKey {
		move = old.Move
	}
	if depth < 0 {
		depth = 0
	}

	e := TTEntry{
		Move:  move,
		Score: scoreToTT(score, ply),
		Depth: depth,
		Bound: bound,
		Gen:   tt.generation,
	}
	slots[victim].store(hash, packEntry(e))
}

func (tt *TransTable) replaceable(old TTEntry, depth int8, bound Bound) bool {
	switch tt.policy {
	case ReplaceAlways:
		return true
	case ReplaceDepthPreferred:
		return depth >= old.Depth || bound == BoundExact && old.Bound != BoundExact
	default:
		return depth >= old.Depth || old.Gen != tt.generation
	}
}

// HashFull samples the first thousand slots and returns the permille written
// during the current search.
func (tt *TransTable) HashFull() int {
	n := Min(1000, len(tt.entries))
	used := 0
	for i := 0; i < n; i++ {
		if data := tt.entries[i].data.Load(); data != 0 && unpackEntry(data).Gen == tt.generation {
			used++
		}
	}
	if n == 0 {
		return 0
	}
	return used * 1000 / n
}

// Mate scores are stored relative to the node so that they stay correct when
// the same position is reached at a different ply.
func scoreToTT(score int32, ply int) int32 {
	if score > Checkmate {
		return score + int32(ply)
	}
	if score < -Checkmate {
		return score - int32(ply)
	}
	return score
}

func scoreFromTT(score int32, ply int) int32 {
	if score > Checkmate {
		return score - int32(ply)
	}
	if score < -Checkmate {
		return score + int32(ply)
	}
	return score
}

// useEntry reports whether e settles the node at depth within (alpha, beta).
func useEntry(e TTEntry, depth int8, alpha, beta int32) (int32, bool) {
	if e.Depth < depth {
		return 0, false
	}
	switch e.Bound {
	case BoundExact:
		return e.Score, true
	case BoundUpper:
		if e.Score <= alpha {
			return e.Score, true
		}
	case BoundLower:
		if e.Score >= beta {
			return e.Score, true
		}
	}
	return 0, false
}
