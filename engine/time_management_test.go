package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"goosechess/chessmg"
	"goosechess/eval"
)

func TestAllocateTimeClock(t *testing.T) {
	b := Budget{Time: 60 * time.Second, Inc: time.Second}
	soft, hard := allocateTime(b, eval.TotalPhase, 0)

	// Opening: 45 moves left.
	wantSoft := 60*time.Second/45 + 900*time.Millisecond
	if soft != wantSoft {
		t.Fatalf("soft: got %v want %v", soft, wantSoft)
	}
	if hard != 3*wantSoft {
		t.Fatalf("hard: got %v want %v", hard, 3*wantSoft)
	}
}

func TestAllocateTimeEndgameSpendsMore(t *testing.T) {
	b := Budget{Time: 60 * time.Second}
	opening, _ := allocateTime(b, eval.TotalPhase, 0)
	ending, _ := allocateTime(b, 0, 0)
	if ending <= opening {
		t.Fatalf("endgame share %v should exceed opening share %v", ending, opening)
	}
}

func TestAllocateTimeHardCappedByRemaining(t *testing.T) {
	b := Budget{Time: 2 * time.Second, MovesToGo: 1}
	soft, hard := allocateTime(b, eval.TotalPhase, 0)
	if hard > 1400*time.Millisecond {
		t.Fatalf("hard %v exceeds 70%% of the clock", hard)
	}
	if soft > hard {
		t.Fatalf("soft %v above hard %v", soft, hard)
	}
}

func TestAllocateTimePanicMode(t *testing.T) {
	b := Budget{Time: 800 * time.Millisecond, Inc: 100 * time.Millisecond}
	soft, hard := allocateTime(b, eval.TotalPhase, 10*time.Millisecond)
	if soft != 90*time.Millisecond || hard != soft {
		t.Fatalf("panic mode: got soft %v hard %v want 90ms", soft, hard)
	}
}

func TestAllocateTimeOverheadAndFloor(t *testing.T) {
	b := Budget{Time: 100 * time.Millisecond}
	soft, hard := allocateTime(b, eval.TotalPhase, time.Second)
	if soft != minMoveTime || hard != minMoveTime {
		t.Fatalf("got soft %v hard %v want the %v floor", soft, hard, minMoveTime)
	}
}

func TestStartTimeBudgets(t *testing.T) {
	pos := chessmg.NewPosition()

	var th TimeHandler
	th.StartTime(Budget{MoveTime: 500 * time.Millisecond}, pos, 30*time.Millisecond)
	soft, hard := th.Deadlines()
	if soft != 470*time.Millisecond || hard != soft {
		t.Fatalf("movetime: got soft %v hard %v", soft, hard)
	}

	th.StartTime(Budget{Depth: 5}, pos, 30*time.Millisecond)
	if soft, hard := th.Deadlines(); soft != 0 || hard != 0 {
		t.Fatalf("depth budget must be untimed, got %v/%v", soft, hard)
	}
	if th.SoftTimeExceeded() || th.TimeStatus() {
		t.Fatalf("untimed search reported an expired deadline")
	}

	th.StartTime(Budget{Nodes: 1000}, pos, 0)
	if th.NodesExceeded(999) || !th.NodesExceeded(1000) {
		t.Fatalf("node limit not honoured")
	}

	th.StartTime(Budget{Infinite: true, Time: time.Second}, pos, 0)
	if soft, hard := th.Deadlines(); soft != 0 || hard != 0 {
		t.Fatalf("infinite search must be untimed, got %v/%v", soft, hard)
	}
}

func TestExtendTimeOnce(t *testing.T) {
	th := TimeHandler{start: time.Now()}
	th.setDeadlines(100*time.Millisecond, time.Second)

	th.ExtendTime()
	soft, _ := th.Deadlines()
	if soft != 150*time.Millisecond {
		t.Fatalf("first extension: got %v want 150ms", soft)
	}
	th.ExtendTime()
	if soft2, _ := th.Deadlines(); soft2 != soft {
		t.Fatalf("second extension must be a no-op: got %v", soft2)
	}

	th = TimeHandler{start: time.Now()}
	th.setDeadlines(100*time.Millisecond, 120*time.Millisecond)
	th.ExtendTime()
	if soft, hard := th.Deadlines(); soft != hard {
		t.Fatalf("extension must stop at the hard deadline: soft %v hard %v", soft, hard)
	}
}

func TestDeadlinesExpire(t *testing.T) {
	var th TimeHandler
	th.StartTime(Budget{MoveTime: time.Millisecond}, chessmg.NewPosition(), 0)
	time.Sleep(20 * time.Millisecond)
	if !th.SoftTimeExceeded() || !th.TimeStatus() {
		t.Fatalf("deadlines should have passed")
	}
}

func TestCountNodeStopsAtNodeBudget(t *testing.T) {
	var tm TimeHandler
	tm.StartTime(Budget{Nodes: 10}, chessmg.NewPosition(), 0)
	var shared atomic.Uint64
	var stop atomic.Bool
	shared.Store(4)
	s := &searcher{tm: &tm, stop: &stop, sharedNodes: &shared}

	for i := 0; i < 5; i++ {
		s.countNode()
	}
	if stop.Load() {
		t.Fatalf("stopped at %d nodes, budget 10", s.totalNodes())
	}
	s.countNode()
	if !stop.Load() {
		t.Fatalf("not stopped at %d nodes, budget 10", s.totalNodes())
	}
}
