package engine

import (
	"time"

	"goosechess/chessmg"
	"goosechess/eval"
)

// Budget limits one search. Zero fields are unset; with nothing set the
// search runs to MaxDepth or until stopped.
type Budget struct {
	Depth    int
	Nodes    uint64
	MoveTime time.Duration

	// Clock state of the side to move.
	Time      time.Duration
	Inc       time.Duration
	MovesToGo int

	Infinite bool
}

func (b Budget) hasClock() bool { return b.Time > 0 || b.Inc > 0 }

const (
	minMoveTime   = 5 * time.Millisecond
	maxTimeFrac   = 0.7
	panicThresh   = time.Second
	panicIncFrac  = 0.9
	incFrac       = 0.9
	hardSoftRatio = 3
	extendFactor  = 1.5

	// Nodes between two deadline checks.
	pollInterval = 2048
)

// TimeHandler turns a Budget into deadlines. The soft deadline is checked
// between depths, the hard one is polled inside the search.
type TimeHandler struct {
	start     time.Time
	soft      time.Time
	hard      time.Time
	timed     bool
	nodeLimit uint64
	extended  bool
}

// StartTime computes the deadlines for b. overhead is kept in reserve for
// I/O between the engine and its caller.
func (th *TimeHandler) StartTime(b Budget, pos *chessmg.Position, overhead time.Duration) {
	*th = TimeHandler{start: time.Now(), nodeLimit: b.Nodes}
	if b.Infinite {
		return
	}
	switch {
	case b.MoveTime > 0:
		t := Max(b.MoveTime-overhead, minMoveTime)
		th.setDeadlines(t, t)
	case b.hasClock():
		soft, hard := allocateTime(b, eval.Phase(pos), overhead)
		th.setDeadlines(soft, hard)
	}
}

func (th *TimeHandler) setDeadlines(soft, hard time.Duration) {
	th.timed = true
	th.soft = th.start.Add(soft)
	th.hard = th.start.Add(hard)
}

// allocateTime splits the clock: a share of the remaining time plus most of
// the increment, never more than maxTimeFrac of what is left.
func allocateTime(b Budget, phase int, overhead time.Duration) (soft, hard time.Duration) {
	rem, inc := b.Time, b.Inc

	if b.Inc > 0 && rem < panicThresh {
		// Panic: live off the increment and bank the rest.
		t := time.Duration(float64(inc) * panicIncFrac)
		t = Min(t, rem-overhead)
		t = Max(t, minMoveTime)
		return t, t
	}

	movesLeft := estimateMovesRemaining(phase)
	if b.MovesToGo > 0 {
		movesLeft = Min(movesLeft, b.MovesToGo)
	}
	movesLeft = Max(movesLeft, 1)

	soft = rem/time.Duration(movesLeft) + time.Duration(float64(inc)*incFrac)
	hard = Min(soft*hardSoftRatio, time.Duration(float64(rem)*maxTimeFrac))

	soft = Max(soft-overhead, minMoveTime)
	hard = Max(hard-overhead, minMoveTime)
	if soft > hard {
		soft = hard
	}
	return soft, hard
}

func estimateMovesRemaining(phase int) int {
	// Linearly interpolate between 20 (endgame) and 45 (opening/midgame)
	moves := (phase*25)/eval.TotalPhase + 20
	return Max(moves, 10)
}

// SoftTimeExceeded reports whether a new depth should not be started.
func (th *TimeHandler) SoftTimeExceeded() bool {
	return th.timed && time.Now().After(th.soft)
}

// TimeStatus reports whether the hard deadline has passed.
func (th *TimeHandler) TimeStatus() bool {
	return th.timed && time.Now().After(th.hard)
}

// NodesExceeded reports whether nodes is past the node budget.
func (th *TimeHandler) NodesExceeded(nodes uint64) bool {
	return th.nodeLimit > 0 && nodes >= th.nodeLimit
}

// ExtendTime stretches the soft deadline once per search, capped by the hard one.
func (th *TimeHandler) ExtendTime() {
	if !th.timed || th.extended {
		return
	}
	th.extended = true
	soft := time.Duration(float64(th.soft.Sub(th.start)) * extendFactor)
	th.soft = th.start.Add(soft)
	if th.soft.After(th.hard) {
		th.soft = th.hard
	}
}

func (th *TimeHandler) Elapsed() time.Duration { return time.Since(th.start) }

// Deadlines returns the soft and hard budgets relative to the start, zero
// when the search is untimed.
func (th *TimeHandler) Deadlines() (soft, hard time.Duration) {
	if !th.timed {
		return 0, 0
	}
	return th.soft.Sub(th.start), th.hard.Sub(th.start)
}
