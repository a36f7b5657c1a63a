// Package engine searches chess positions: iterative deepening PVS over a
// shared transposition table, driven by a time manager, optionally with
// Lazy SMP helpers.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"goosechess/chessmg"
	"goosechess/eval"
)

// Engine owns the long-lived search state: options, the transposition table,
// the evaluator prototype and the opening book. Search and SetOption are
// serialized; Stop may be called from any goroutine.
type Engine struct {
	mu        sync.Mutex
	opts      Options
	tt        *TransTable
	evaluator eval.Evaluator
	book      *Book
	stop      atomic.Bool
	// Searches running or waiting for mu.
	searches atomic.Int32
	log      zerolog.Logger
}

// New builds an engine from opts. It fails only when the evaluator weights
// or the opening book named in opts cannot be loaded.
func New(opts Options, logger zerolog.Logger) (*Engine, error) {
	opts.Threads = Clamp(opts.Threads, 1, MaxThreads)
	opts.HashMB = Clamp(opts.HashMB, 1, MaxHashMB)
	if opts.MaxDepth <= 0 || opts.MaxDepth > MaxDepth {
		opts.MaxDepth = MaxDepth
	}

	ev, err := eval.New(opts.Evaluator, opts.EvalFile)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		opts:      opts,
		tt:        NewTransTable(opts.HashMB, opts.TTPolicy),
		evaluator: ev,
		log:       logger,
	}
	if opts.BookFile != "" {
		if e.book, err = LoadBookFile(opts.BookFile); err != nil {
			return nil, err
		}
		e.log.Info().Str("file", opts.BookFile).Int("lines", e.book.Lines()).Msg("opening book loaded")
	}
	e.log.Debug().Int("hash_mb", opts.HashMB).Int("threads", opts.Threads).
		Str("tt_policy", opts.TTPolicy.String()).Str("evaluator", string(opts.Evaluator)).Msg("engine ready")
	return e, nil
}

// Options returns a copy of the current configuration.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetOption changes one option by its UCI name. On error nothing changes.
func (e *Engine) SetOption(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.opts
	if err := next.apply(name, value); err != nil {
		return err
	}

	if next.Evaluator != e.opts.Evaluator || next.EvalFile != e.opts.EvalFile {
		// An EvalFile alone does not switch strategies.
		if next.Evaluator == eval.KindNNUE || next.Evaluator != e.opts.Evaluator {
			ev, err := eval.New(next.Evaluator, next.EvalFile)
			if err != nil {
				return err
			}
			e.evaluator = ev
			e.log.Info().Str("evaluator", string(next.Evaluator)).Str("file", next.EvalFile).Msg("evaluator loaded")
		}
	}
	if next.BookFile != e.opts.BookFile {
		if next.BookFile == "" {
			e.book = nil
		} else {
			book, err := LoadBookFile(next.BookFile)
			if err != nil {
				return err
			}
			e.book = book
			e.log.Info().Str("file", next.BookFile).Int("lines", book.Lines()).Msg("opening book loaded")
		}
	}
	if next.HashMB != e.opts.HashMB {
		e.tt.Resize(next.HashMB)
		e.log.Info().Int("hash_mb", next.HashMB).Msg("transposition table resized")
	}
	if next.TTPolicy != e.opts.TTPolicy {
		e.tt.SetPolicy(next.TTPolicy)
	}

	e.opts = next
	return nil
}

// NewGame forgets everything learned in previous searches.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.log.Debug().Msg("transposition table cleared")
}

// Stop asks a running search to finish as soon as possible. The search still
// returns a legal move. A Search already waiting for the engine is stopped
// too; with no search in flight Stop does nothing.
func (e *Engine) Stop() {
	if e.searches.Load() > 0 {
		e.stop.Store(true)
	}
}

// Evaluate returns the static evaluation of pos for the side to move.
func (e *Engine) Evaluate(pos *chessmg.Position) int {
	e.mu.Lock()
	ev := e.evaluator.Clone()
	e.mu.Unlock()
	ev.Refresh(pos)
	return ev.Evaluate(pos)
}

// HashFull is the permille of the transposition table in use.
func (e *Engine) HashFull() int { return e.tt.HashFull() }

// Search finds a move for pos within budget. history holds the hashes of
// the positions played before pos, oldest first, for repetition detection.
// onInfo, when not nil, is called on the searching goroutine after every
// completed depth. Cancelling ctx has the same effect as Stop.
//
// pos is not modified.
func (e *Engine) Search(ctx context.Context, pos *chessmg.Position, history []uint64, budget Budget, onInfo func(Info)) Result {
	e.searches.Add(1)
	defer e.searches.Add(-1)
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.stop.Store(false)

	root := pos.Copy()
	if e.opts.Chess960 {
		root.SetChess960(true)
	}

	rootMoves := root.LegalMoves()
	if len(rootMoves) == 0 {
		res := Result{Score: int(DrawScore)}
		if root.InCheck() {
			res.Score = int(-MaxScore)
		}
		return res
	}

	if m, ok := e.book.Probe(root); ok {
		e.log.Info().Str("move", root.MoveString(m)).Msg("book move")
		return Result{BestMove: m, PV: []chessmg.Move{m}, FromBook: true}
	}

	stopOnCancel := context.AfterFunc(ctx, func() { e.stop.Store(true) })
	defer stopOnCancel()

	var tm TimeHandler
	tm.StartTime(budget, root, e.opts.MoveOverhead)

	maxDepth := e.opts.MaxDepth
	if budget.Depth > 0 {
		maxDepth = Min(budget.Depth, MaxDepth)
	}

	var states stateStack
	states.reset(root, history)
	e.tt.NewSearch()

	fallback, fallbackScore := emergencyMove(root.Copy(), e.evaluator.Clone(), rootMoves)

	soft, hard := tm.Deadlines()
	e.log.Info().
		Str("fen", root.FEN()).
		Int("depth", maxDepth).
		Uint64("nodes", budget.Nodes).
		Dur("soft", soft).
		Dur("hard", hard).
		Int("threads", e.opts.Threads).
		Msg("search start")

	report := func(info Info) {
		info.HashFull = e.tt.HashFull()
		if ms := info.Time.Milliseconds(); ms > 0 {
			info.NPS = info.Nodes * 1000 / uint64(ms)
		}
		e.log.Debug().
			Int("depth", info.Depth).
			Int("seldepth", info.SelDepth).
			Str("score", FormatScore(info.Score)).
			Uint64("nodes", info.Nodes).
			Str("pv", getPVLineString(root, info.PV)).
			Msg("depth complete")
		if onInfo != nil {
			onInfo(info)
		}
	}

	res, stats := e.runWorkers(root, &states, rootMoves, &tm, maxDepth, fallback, fallbackScore, report)
	res.Time = tm.Elapsed()

	dumpCutStats(e.log, &stats)
	e.log.Info().
		Str("bestmove", root.MoveString(res.BestMove)).
		Int("depth", res.Depth).
		Str("score", FormatScore(res.Score)).
		Uint64("nodes", res.Nodes).
		Dur("time", res.Time).
		Bool("aborted", res.Aborted).
		Msg("search done")
	return res
}

// String describes a result for logs and tools.
func (r Result) String() string {
	return fmt.Sprintf("bestmove %v depth %d score %s nodes %d aborted %v",
		r.BestMove, r.Depth, FormatScore(r.Score), r.Nodes, r.Aborted)
}
