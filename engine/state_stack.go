package engine

import "goosechess/chessmg"

const fiftyMoveLimit = 100

// State captures the information we need to reason about repetitions and draws.
type State struct {
	Hash   uint64
	Rule50 int
}

// stateStack holds the game history followed by the current search line.
// rootIndex is the entry of the root position. reset and clone leave room
// for MaxPly pushes so the search never grows the slice.
type stateStack struct {
	states    []State
	rootIndex int
}

// reset loads the game history (oldest first, the root excluded or as its
// last element) and pushes the root.
func (ss *stateStack) reset(pos *chessmg.Position, history []uint64) {
	if n := len(history); n > 0 && history[n-1] == pos.Hash() {
		history = history[:n-1]
	}
	// Positions before the last irreversible move cannot repeat.
	if len(history) > pos.HalfmoveClock() {
		history = history[len(history)-pos.HalfmoveClock():]
	}
	if need := len(history) + MaxPly + 1; cap(ss.states) < need {
		ss.states = make([]State, 0, need)
	}
	ss.states = ss.states[:0]
	for _, h := range history {
		ss.states = append(ss.states, State{Hash: h})
	}
	ss.rootIndex = len(ss.states)
	ss.push(pos)
}

func (ss *stateStack) push(pos *chessmg.Position) {
	ss.states = append(ss.states, State{
		Hash:   pos.Hash(),
		Rule50: pos.HalfmoveClock(),
	})
}

func (ss *stateStack) pop() {
	if len(ss.states) == 0 {
		return
	}
	ss.states = ss.states[:len(ss.states)-1]
}

func (ss *stateStack) clone() stateStack {
	states := make([]State, len(ss.states), len(ss.states)+MaxPly+1)
	copy(states, ss.states)
	return stateStack{states: states, rootIndex: ss.rootIndex}
}

// isDraw reports a fifty-move or repetition draw for the top position. A
// single earlier occurrence counts when it lies at or after the root;
// occurrences only in the game history need two.
func (ss *stateStack) isDraw() bool {
	if len(ss.states) == 0 {
		return false
	}
	curr := ss.states[len(ss.states)-1]
	if curr.Rule50 >= fiftyMoveLimit {
		return true
	}

	matchCount, lastIdx := ss.repetitionInfo(curr.Hash, curr.Rule50)
	if matchCount >= 2 {
		return true
	}
	return matchCount == 1 && lastIdx >= ss.rootIndex
}

// repetitionInfo counts earlier occurrences of hash within the reversible
// stretch. Only positions with the same side to move are compared.
func (ss *stateStack) repetitionInfo(hash uint64, rule50 int) (count int, lastIdx int) {
	lastIdx = -1
	top := len(ss.states) - 1
	start := Max(top-rule50, 0)
	for i := top - 2; i >= start; i -= 2 {
		if ss.states[i].Hash == hash {
			count++
			if lastIdx == -1 {
				lastIdx = i
			}
		}
	}
	return count, lastIdx
}
