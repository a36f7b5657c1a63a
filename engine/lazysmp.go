package engine

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"goosechess/chessmg"
)

func shuffleMoves(moves []chessmg.Move) {
	frand.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
}

// newSearcher builds a worker over its own copy of the root.
func (e *Engine) newSearcher(id int, root *chessmg.Position, states *stateStack, rootMoves []chessmg.Move, tm *TimeHandler, nodes *atomic.Uint64) *searcher {
	s := &searcher{
		id:          id,
		pos:         root.Copy(),
		eval:        e.evaluator.Clone(),
		tt:          e.tt,
		tm:          tm,
		stop:        &e.stop,
		log:         e.log.With().Int("thread", id).Logger(),
		sharedNodes: nodes,
		states:      states.clone(),
		rootMoves:   append([]chessmg.Move(nil), rootMoves...),
	}
	s.eval.Refresh(s.pos)
	return s
}

// runWorkers runs the main worker on the calling goroutine and Threads-1
// helpers in an errgroup. Helpers only feed the shared table; once the main
// worker returns they are stopped and joined.
func (e *Engine) runWorkers(root *chessmg.Position, states *stateStack, rootMoves []chessmg.Move, tm *TimeHandler,
	maxDepth int, fallback chessmg.Move, fallbackScore int32, report func(Info)) (Result, CutStatistics) {
	var nodes atomic.Uint64
	mainWorker := e.newSearcher(0, root, states, rootMoves, tm, &nodes)

	helpers := make([]*searcher, 0, e.opts.Threads-1)
	var g errgroup.Group
	for t := 1; t < e.opts.Threads; t++ {
		helper := e.newSearcher(t, root, states, rootMoves, tm, &nodes)
		helpers = append(helpers, helper)
		g.Go(func() error {
			helper.log.Debug().Msg("helper starting")
			helper.helperLoop(maxDepth)
			helper.log.Debug().Uint64("nodes", helper.nodes).Msg("helper done")
			return nil
		})
	}

	res := mainWorker.iterativeDeepening(maxDepth, fallback, fallbackScore, report)

	// Stop helpers cleanly
	e.stop.Store(true)
	_ = g.Wait()

	stats := mainWorker.stats
	for _, h := range helpers {
		stats.add(&h.stats)
	}
	res.Nodes = nodes.Load()
	return res, stats
}
