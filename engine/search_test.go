package engine

import (
	"context"
	"testing"
	"time"

	"goosechess/chessmg"
	"goosechess/eval"
)

func searchFEN(t *testing.T, e *Engine, fen string, b Budget) (*chessmg.Position, Result) {
	t.Helper()
	pos := mustFEN(t, fen)
	return pos, e.Search(context.Background(), pos, nil, b, nil)
}

func TestSearchMateInOne(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want string
	}{
		{"back rank", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8"},
		{"scholar", "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4", "h5f7"},
		{"black to move", "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", "a8a1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			pos, res := searchFEN(t, e, tc.fen, Budget{Depth: 4})
			if res.Score != int(MaxScore-1) {
				t.Fatalf("score: got %s want mate 1", FormatScore(res.Score))
			}
			if tc.want != "" && pos.MoveString(res.BestMove) != tc.want {
				t.Fatalf("best move: got %s want %s", pos.MoveString(res.BestMove), tc.want)
			}
			if FormatScore(res.Score) != "mate 1" {
				t.Fatalf("formatted: got %q", FormatScore(res.Score))
			}
		})
	}
}

func TestSearchMateInTwo(t *testing.T) {
	e := newTestEngine(t, nil)
	pos, res := searchFEN(t, e, "kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1", Budget{Depth: 5})
	if got := pos.MoveString(res.BestMove); got != "a1a6" {
		t.Fatalf("best move: got %s want a1a6", got)
	}
	if res.Score != int(MaxScore-3) {
		t.Fatalf("score: got %s want mate 2", FormatScore(res.Score))
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	e := newTestEngine(t, nil)

	_, res := searchFEN(t, e, "7k/6Q1/6K1/8/8/8/8/8 b - - 0 1", Budget{Depth: 3})
	if res.BestMove != chessmg.NullMove || res.Score != int(-MaxScore) {
		t.Fatalf("checkmated root: got %v score %d", res.BestMove, res.Score)
	}

	_, res = searchFEN(t, e, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", Budget{Depth: 3})
	if res.BestMove != chessmg.NullMove || res.Score != 0 {
		t.Fatalf("stalemated root: got %v score %d", res.BestMove, res.Score)
	}
}

func TestSearchAvoidsStalemate(t *testing.T) {
	// Qf7 would stalemate; anything sensible keeps winning.
	e := newTestEngine(t, nil)
	_, res := searchFEN(t, e, "7k/8/6K1/8/8/8/8/5Q2 w - - 0 1", Budget{Depth: 5})
	if res.Score <= 500 {
		t.Fatalf("expected a winning score, got %s", FormatScore(res.Score))
	}
}

func TestSearchFiftyMoveRule(t *testing.T) {
	e := newTestEngine(t, nil)

	// Every move completes the hundredth half move without mating.
	_, res := searchFEN(t, e, "k7/8/8/8/8/8/8/3QK3 w - - 99 80", Budget{Depth: 4})
	if res.Score != 0 {
		t.Fatalf("fifty-move draw: got %s want cp 0", FormatScore(res.Score))
	}

	// Mate on the hundredth half move still counts as mate.
	_, res = searchFEN(t, e, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 99 80", Budget{Depth: 3})
	if res.Score != int(MaxScore-1) {
		t.Fatalf("mate beats the fifty-move rule: got %s", FormatScore(res.Score))
	}
}

func TestSearchInsufficientMaterial(t *testing.T) {
	e := newTestEngine(t, nil)
	_, res := searchFEN(t, e, "8/8/8/4k3/8/8/3nK3/8 w - - 0 1", Budget{Depth: 4})
	if res.Score != 0 {
		t.Fatalf("king and knight against king: got %s want cp 0", FormatScore(res.Score))
	}
}

func TestSearchRepetitionIsDraw(t *testing.T) {
	// Knights shuffled back and forth; Black to move can repeat the start
	// position for the third time.
	e := newTestEngine(t, nil)
	pos := chessmg.NewPosition()
	var history []uint64
	for _, mv := range []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1"} {
		history = append(history, pos.Hash())
		if _, err := pos.PlayUCI(mv); err != nil {
			t.Fatalf("play %s: %v", mv, err)
		}
	}
	res := e.Search(context.Background(), pos, history, Budget{Depth: 3}, nil)
	if !isLegal(pos, res.BestMove) {
		t.Fatalf("illegal best move %v", res.BestMove)
	}

	var ss stateStack
	ss.reset(pos, history)
	m := mustMove(t, pos, "f6g8")
	st := pos.MakeMove(m)
	ss.push(pos)
	if !ss.isDraw() {
		t.Fatalf("third occurrence of the start position must be a draw")
	}
	pos.UnmakeMove(m, st)
}

func TestStateStackRepetitions(t *testing.T) {
	pos := chessmg.NewPosition()
	var ss stateStack
	ss.reset(pos, nil)

	play := func(mv string) {
		t.Helper()
		if _, err := pos.PlayUCI(mv); err != nil {
			t.Fatalf("play %s: %v", mv, err)
		}
		ss.push(pos)
	}

	play("g1f3")
	play("g8f6")
	play("f3g1")
	if ss.isDraw() {
		t.Fatalf("no repetition yet")
	}
	play("f6g8")
	// One earlier occurrence inside the search line is enough.
	if !ss.isDraw() {
		t.Fatalf("repetition of the root inside the search must be a draw")
	}

	// The same position reached once before the root is not yet a draw.
	var history []uint64
	pos = chessmg.NewPosition()
	for _, mv := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		history = append(history, pos.Hash())
		if _, err := pos.PlayUCI(mv); err != nil {
			t.Fatalf("play %s: %v", mv, err)
		}
	}
	ss.reset(pos, history)
	if ss.isDraw() {
		t.Fatalf("second occurrence before the root must not be a draw")
	}
	if ss.rootIndex != 4 {
		t.Fatalf("root index: got %d want 4", ss.rootIndex)
	}

	// An irreversible move hides older history.
	if _, err := pos.PlayUCI("e2e4"); err != nil {
		t.Fatal(err)
	}
	history = append(history, pos.Hash())
	ss.reset(pos, history)
	if len(ss.states) != 1 {
		t.Fatalf("history before a pawn move must be dropped, have %d states", len(ss.states))
	}
}

func TestStateStackFiftyMove(t *testing.T) {
	pos := mustFEN(t, "k7/8/8/8/8/8/8/3QK3 w - - 100 80")
	var ss stateStack
	ss.reset(pos, nil)
	if !ss.isDraw() {
		t.Fatalf("halfmove clock 100 must be a draw")
	}
}

func TestSearchDepthOneNodeCount(t *testing.T) {
	e := newTestEngine(t, nil)
	_, res := searchFEN(t, e, chessmg.FENStartPos, Budget{Depth: 1})
	if res.Nodes != 20 {
		t.Fatalf("nodes: got %d want 20", res.Nodes)
	}
	if res.Depth != 1 || res.Aborted {
		t.Fatalf("got depth %d aborted %v", res.Depth, res.Aborted)
	}
}

func TestSearchProgressStream(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := chessmg.NewPosition()
	var infos []Info
	res := e.Search(context.Background(), pos, nil, Budget{Depth: 5}, func(info Info) {
		infos = append(infos, info)
	})

	if len(infos) != 5 {
		t.Fatalf("got %d progress records want 5", len(infos))
	}
	var lastNodes uint64
	for i, info := range infos {
		if info.Depth != i+1 {
			t.Fatalf("record %d: depth %d", i, info.Depth)
		}
		if info.Nodes < lastNodes {
			t.Fatalf("node count went backwards: %d < %d", info.Nodes, lastNodes)
		}
		lastNodes = info.Nodes
		if len(info.PV) == 0 || !isLegal(pos, info.PV[0]) {
			t.Fatalf("record %d: bad PV %v", i, info.PV)
		}
		if info.SelDepth < info.Depth {
			t.Fatalf("record %d: seldepth %d below depth", i, info.SelDepth)
		}
	}
	if res.BestMove != infos[len(infos)-1].PV[0] {
		t.Fatalf("result disagrees with the last PV")
	}

	// The PV must be a playable line.
	line := pos.Copy()
	for _, m := range res.PV {
		if !isLegal(line, m) {
			t.Fatalf("PV move %v illegal", m)
		}
		line.MakeMove(m)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := chessmg.NewPosition()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := e.Search(ctx, pos, nil, Budget{Infinite: true}, nil)
	if !res.Aborted {
		t.Fatalf("expected an aborted search")
	}
	if !isLegal(pos, res.BestMove) {
		t.Fatalf("aborted search returned illegal move %v", res.BestMove)
	}
}

func TestSearchStop(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := chessmg.NewPosition()

	done := make(chan Result, 1)
	go func() {
		done <- e.Search(context.Background(), pos.Copy(), nil, Budget{Infinite: true}, nil)
	}()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case res := <-done:
			if !res.Aborted || !isLegal(pos, res.BestMove) {
				t.Fatalf("got %v", res)
			}
			return
		case <-ticker.C:
			e.Stop()
		case <-deadline:
			t.Fatalf("search ignored Stop")
		}
	}
}

func TestSearchHardDeadline(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := chessmg.NewPosition()
	start := time.Now()
	res := e.Search(context.Background(), pos, nil, Budget{MoveTime: 100 * time.Millisecond}, nil)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("search overran its movetime: %v", elapsed)
	}
	if !isLegal(pos, res.BestMove) {
		t.Fatalf("illegal best move %v", res.BestMove)
	}
}

func TestSearchNodeBudget(t *testing.T) {
	e := newTestEngine(t, nil)
	_, res := searchFEN(t, e, chessmg.FENStartPos, Budget{Nodes: 5000})
	if res.Nodes > 5000 {
		t.Fatalf("nodes: got %d want at most 5000", res.Nodes)
	}
	if res.BestMove == chessmg.NullMove {
		t.Fatalf("no move returned")
	}
}

func TestSearchLazySMP(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.Threads = 4 })
	pos, res := searchFEN(t, e,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", Budget{Depth: 6})
	if !isLegal(pos, res.BestMove) || res.Depth != 6 {
		t.Fatalf("got %v", res)
	}

	_, res = searchFEN(t, e, "kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1", Budget{Depth: 5})
	if res.Score != int(MaxScore-3) {
		t.Fatalf("threads must not change the proven mate: got %s", FormatScore(res.Score))
	}
}

func TestSearchNNUEEvaluator(t *testing.T) {
	path := writeTestNetwork(t)
	e := newTestEngine(t, func(o *Options) {
		o.Evaluator = eval.KindNNUE
		o.EvalFile = path
	})
	pos, res := searchFEN(t, e, chessmg.FENStartPos, Budget{Depth: 4})
	if !isLegal(pos, res.BestMove) {
		t.Fatalf("illegal best move %v", res.BestMove)
	}
}

func TestSearchChess960Castling(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.Chess960 = true })
	pos := mustFEN(t, "bqnbrkrn/pppppppp/8/8/8/8/PPPPPPPP/BQNBRKRN w GEge - 0 1")
	res := e.Search(context.Background(), pos, nil, Budget{Depth: 3}, nil)
	if !isLegal(pos, res.BestMove) {
		t.Fatalf("illegal best move %v", res.BestMove)
	}
}

func TestEmergencyMove(t *testing.T) {
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	m, score := emergencyMove(pos, eval.NewPSQT(), pos.LegalMoves())
	if pos.MoveString(m) != "a1a8" || score != MaxScore-1 {
		t.Fatalf("got %s %d", pos.MoveString(m), score)
	}

	pos = mustFEN(t, "4k3/8/8/3q4/8/8/8/3RK3 w - - 0 1")
	m, _ = emergencyMove(pos, eval.NewPSQT(), pos.LegalMoves())
	if pos.MoveString(m) != "d1d5" {
		t.Fatalf("should grab the hanging queen, got %s", pos.MoveString(m))
	}
}

func TestSearchWarmTableAgreesWithCold(t *testing.T) {
	const depth = 3
	tests := []struct {
		name string
		fen  string
		want string
		mate bool
	}{
		{"mate in one", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", true},
		{"mate in two", "kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1", "a1a6", true},
		{"knight takes queen", "4k3/8/8/3q4/8/4N3/8/4K3 w - - 0 1", "e3d5", false},
		{"rook takes rook with check", "r3k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a8", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, cold := searchFEN(t, newTestEngine(t, nil), tc.fen, Budget{Depth: depth})

			warmEngine := newTestEngine(t, nil)
			_, deeper := searchFEN(t, warmEngine, tc.fen, Budget{Depth: depth + 1})
			_, warm := searchFEN(t, warmEngine, tc.fen, Budget{Depth: depth})

			for _, r := range []struct {
				label string
				res   Result
			}{{"cold", cold}, {"deeper", deeper}, {"warm", warm}} {
				if got := pos.MoveString(r.res.BestMove); got != tc.want {
					t.Fatalf("%s best move: got %s want %s", r.label, got, tc.want)
				}
			}

			if tc.mate {
				if warm.Score != cold.Score || deeper.Score != cold.Score {
					t.Fatalf("mate scores differ: cold %s deeper %s warm %s",
						FormatScore(cold.Score), FormatScore(deeper.Score), FormatScore(warm.Score))
				}
				return
			}
			if cold.Score < 400 || warm.Score < 400 {
				t.Fatalf("winning material should show: cold %d warm %d", cold.Score, warm.Score)
			}
			if diff := warm.Score - cold.Score; diff > 150 || diff < -150 {
				t.Fatalf("warm table moved the score too far: cold %d warm %d", cold.Score, warm.Score)
			}
		})
	}
}

func TestSearchMateDistanceStable(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		want int
	}{
		{"mate in one", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", int(MaxScore - 1)},
		{"mate in two", "kbK5/pp6/1P6/8/8/8/8/R7 w - - 0 1", int(MaxScore - 3)},
		{"black mates in one", "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", int(MaxScore - 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			found := 0
			for d := 1; d <= 6; d++ {
				if _, res := searchFEN(t, newTestEngine(t, nil), tc.fen, Budget{Depth: d}); res.Score == tc.want {
					found = d
					break
				}
			}
			if found == 0 {
				t.Fatalf("mate %s not found by depth 6", FormatScore(tc.want))
			}

			// Fresh tables at every depth, then one table reused from the
			// deepest search down, so shallow searches read deeper entries.
			for d := found + 1; d <= found+3; d++ {
				if _, res := searchFEN(t, newTestEngine(t, nil), tc.fen, Budget{Depth: d}); res.Score != tc.want {
					t.Fatalf("cold depth %d: got %s want %s", d, FormatScore(res.Score), FormatScore(tc.want))
				}
			}
			e := newTestEngine(t, nil)
			for d := found + 3; d >= found; d-- {
				if _, res := searchFEN(t, e, tc.fen, Budget{Depth: d}); res.Score != tc.want {
					t.Fatalf("warm depth %d: got %s want %s", d, FormatScore(res.Score), FormatScore(tc.want))
				}
			}
		})
	}
}

func TestStopWhileWaitingForEngine(t *testing.T) {
	e := newTestEngine(t, nil)
	pos := chessmg.NewPosition()

	e.mu.Lock()
	done := make(chan Result, 1)
	go func() {
		done <- e.Search(context.Background(), pos.Copy(), nil, Budget{Infinite: true}, nil)
	}()
	for e.searches.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	e.Stop()
	e.mu.Unlock()

	select {
	case res := <-done:
		if !res.Aborted || !isLegal(pos, res.BestMove) {
			t.Fatalf("got %v", res)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("stop sent while the search waited for the engine was lost")
	}

	// The request is spent; the next search runs to its depth.
	_, res := searchFEN(t, e, chessmg.FENStartPos, Budget{Depth: 3})
	if res.Aborted || res.Depth != 3 {
		t.Fatalf("follow-up search: got %v", res)
	}
}

func TestStopWithoutSearchIsIgnored(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Stop()
	_, res := searchFEN(t, e, chessmg.FENStartPos, Budget{Depth: 3})
	if res.Aborted || res.Depth != 3 {
		t.Fatalf("got %v", res)
	}
}

func TestStateStackHasRoomForFullLine(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4K2R w K - 60 80")
	history := []uint64{1, 2, 3}
	for i := 0; i < 40; i++ {
		history = append(history, uint64(100+i))
	}

	var ss stateStack
	ss.reset(pos, history)
	if want := len(ss.states) + MaxPly; cap(ss.states) < want {
		t.Fatalf("reset: cap %d, want at least %d", cap(ss.states), want)
	}

	clone := ss.clone()
	if want := len(clone.states) + MaxPly; cap(clone.states) < want {
		t.Fatalf("clone: cap %d, want at least %d", cap(clone.states), want)
	}

	first := &clone.states[0]
	for i := 0; i < MaxPly; i++ {
		clone.push(pos)
	}
	if &clone.states[0] != first {
		t.Fatalf("pushing MaxPly states reallocated the stack")
	}
	if &ss.states[0] == first {
		t.Fatalf("clone shares storage with the original")
	}
}
