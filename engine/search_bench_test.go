package engine

import (
	"context"
	"sync/atomic"
	"testing"

	"goosechess/chessmg"
)

var benchPositions = []struct {
	name string
	fen  string
}{
	{"startpos", chessmg.FENStartPos},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"},
	{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"},
}

func benchSearch(b *testing.B, threads, depth int) {
	for _, bp := range benchPositions {
		b.Run(bp.name, func(b *testing.B) {
			e := newTestEngine(b, func(o *Options) {
				o.Threads = threads
				o.HashMB = 32
			})
			pos := mustFEN(b, bp.fen)
			var nodes uint64
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.NewGame()
				res := e.Search(context.Background(), pos, nil, Budget{Depth: depth}, nil)
				nodes += res.Nodes
			}
			b.ReportMetric(float64(nodes)/b.Elapsed().Seconds(), "nodes/s")
		})
	}
}

func BenchmarkSearch_D7(b *testing.B) { benchSearch(b, 1, 7) }
func BenchmarkSearch_D7_Threads4(b *testing.B) { benchSearch(b, 4, 7) }

func BenchmarkQuiescence(b *testing.B) {
	e := newTestEngine(b, nil)
	pos := mustFEN(b, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	var states stateStack
	states.reset(pos, nil)
	var nodes atomic.Uint64
	s := e.newSearcher(0, pos, &states, pos.LegalMoves(), &TimeHandler{}, &nodes)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var pv PVLine
		s.quiescence(-Infinity, Infinity, 0, &pv)
	}
}
