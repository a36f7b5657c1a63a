// Package uci speaks the Universal Chess Interface on top of the engine
// package. Protocol output goes to the writer given to New; diagnostics go
// through the logger so they never mix with the protocol stream.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"goosechess/chessmg"
	"goosechess/engine"
)

const (
	engineName   = "GooseChess"
	engineAuthor = "Goose"
)

// Adapter holds the game state between commands. Searches run on their own
// goroutine so that "stop" and "isready" are answered while thinking.
type Adapter struct {
	eng *engine.Engine
	log zerolog.Logger

	outMu sync.Mutex
	out   io.Writer

	pos     *chessmg.Position
	history []uint64

	cancel    context.CancelFunc
	searching sync.WaitGroup
}

func New(eng *engine.Engine, out io.Writer, log zerolog.Logger) *Adapter {
	return &Adapter{
		eng: eng,
		out: out,
		log: log,
		pos: chessmg.NewPosition(),
	}
}

// Run reads commands from in until "quit" or end of input. A running
// search is stopped before Run returns.
func (a *Adapter) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := a.Handle(scanner.Text()); quit {
			return nil
		}
	}
	a.stopSearch()
	return scanner.Err()
}

// Wait blocks until the current search, if any, has printed its bestmove.
func (a *Adapter) Wait() { a.searching.Wait() }

func (a *Adapter) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *Adapter) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

// Handle executes one command line and reports whether it was "quit".
func (a *Adapter) Handle(line string) (quit bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 { // ignore blank lines
		return false
	}
	a.log.Debug().Str("cmd", line).Msg("received")

	switch strings.ToLower(tokens[0]) {
	case "uci":
		a.printIdentity()
	case "isready":
		a.println("readyok")
	case "ucinewgame":
		a.stopSearch()
		a.eng.NewGame()
		a.pos = chessmg.NewPosition()
		a.history = nil
	case "position":
		a.stopSearch()
		a.handlePosition(tokens[1:])
	case "go":
		a.stopSearch()
		a.handleGo(tokens[1:])
	case "stop":
		a.stopSearch()
	case "quit":
		a.stopSearch()
		return true
	case "setoption":
		a.stopSearch()
		a.handleSetOption(tokens[1:])
	case "d":
		a.printf("%s", a.pos.String())
	case "eval":
		a.printf("info string eval %d\n", a.eng.Evaluate(a.pos))
	case "perft":
		a.stopSearch()
		a.handlePerft(tokens[1:])
	default:
		a.println("info string Unknown command:", line)
	}
	return false
}

func (a *Adapter) printIdentity() {
	def := engine.DefaultOptions()
	a.println("id name", engineName)
	a.println("id author", engineAuthor)
	a.printf("option name %s type spin default %d min 1 max %d\n", engine.OptHash, def.HashMB, engine.MaxHashMB)
	a.printf("option name %s type spin default %d min 1 max %d\n", engine.OptThreads, def.Threads, engine.MaxThreads)
	a.printf("option name %s type combo default %s var %s var %s var %s\n", engine.OptTTPolicy, def.TTPolicy,
		engine.ReplaceAgedDepth, engine.ReplaceDepthPreferred, engine.ReplaceAlways)
	a.printf("option name %s type combo default %s var psqt var nnue\n", engine.OptEvaluator, def.Evaluator)
	a.printf("option name %s type string default <empty>\n", engine.OptEvalFile)
	a.printf("option name %s type string default <empty>\n", engine.OptBookFile)
	a.printf("option name %s type spin default %d min 0 max 5000\n", engine.OptMoveOverhead, def.MoveOverhead.Milliseconds())
	a.printf("option name %s type check default false\n", engine.OptChess960)
	a.printf("option name %s type spin default %d min 1 max %d\n", engine.OptMaxDepth, def.MaxDepth, engine.MaxDepth)
	a.println("uciok")
}

// handlePosition parses "startpos|fen <fen> [moves ...]". On any error the
// previous position is kept.
func (a *Adapter) handlePosition(args []string) {
	if len(args) == 0 {
		a.println("info string Malformed position command")
		return
	}

	var pos *chessmg.Position
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "startpos":
		pos = chessmg.NewPosition()
	case "fen":
		end := len(rest)
		for i, tok := range rest {
			if strings.ToLower(tok) == "moves" {
				end = i
				break
			}
		}
		var err error
		pos, err = chessmg.ParseFEN(strings.Join(rest[:end], " "))
		if err != nil {
			a.println("info string Invalid fen position:", err)
			return
		}
		rest = rest[end:]
	default:
		a.println("info string Invalid position subcommand")
		return
	}

	var history []uint64
	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		for _, mv := range rest[1:] {
			h := pos.Hash()
			if _, err := pos.PlayUCI(mv); err != nil {
				a.println("info string Move", mv, "not played:", err)
				return
			}
			history = append(history, h)
		}
	}
	a.pos, a.history = pos, history
}

// parseBudget reads the "go" arguments. Clock fields are taken for the side
// to move.
func parseBudget(args []string, stm chessmg.Color) (engine.Budget, error) {
	var b engine.Budget
	for i := 0; i < len(args); i++ {
		tok := strings.ToLower(args[i])
		if tok == "infinite" {
			b.Infinite = true
			continue
		}
		if tok == "ponder" {
			continue
		}
		if i+1 >= len(args) {
			return b, fmt.Errorf("missing value for %s", tok)
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return b, fmt.Errorf("could not convert %s: %w", tok, err)
		}
		i++
		ms := time.Duration(engine.Max(n, 0)) * time.Millisecond
		switch tok {
		case "depth":
			b.Depth = n
		case "nodes":
			b.Nodes = uint64(engine.Max(n, 0))
		case "movetime":
			b.MoveTime = ms
		case "movestogo":
			b.MovesToGo = n
		case "wtime":
			if stm == chessmg.White {
				b.Time = ms
			}
		case "btime":
			if stm == chessmg.Black {
				b.Time = ms
			}
		case "winc":
			if stm == chessmg.White {
				b.Inc = ms
			}
		case "binc":
			if stm == chessmg.Black {
				b.Inc = ms
			}
		default:
			return b, fmt.Errorf("unknown go subcommand %s", tok)
		}
	}
	return b, nil
}

func (a *Adapter) handleGo(args []string) {
	budget, err := parseBudget(args, a.pos.SideToMove())
	if err != nil {
		a.println("info string Malformed go command:", err)
		return
	}

	root := a.pos.Copy()
	if a.eng.Options().Chess960 {
		root.SetChess960(true)
	}
	history := append([]uint64(nil), a.history...)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.searching.Add(1)
	go func() {
		defer a.searching.Done()
		res := a.eng.Search(ctx, root, history, budget, func(info engine.Info) {
			a.printInfo(root, info)
		})
		a.printBestMove(root, res)
	}()
}

func (a *Adapter) printInfo(root *chessmg.Position, info engine.Info) {
	pv := make([]string, len(info.PV))
	for i, m := range info.PV {
		pv[i] = root.MoveString(m)
	}
	a.printf("info depth %d seldepth %d score %s nodes %d nps %d hashfull %d time %d pv %s\n",
		info.Depth, info.SelDepth, engine.FormatScore(info.Score), info.Nodes, info.NPS,
		info.HashFull, info.Time.Milliseconds(), strings.Join(pv, " "))
}

func (a *Adapter) printBestMove(root *chessmg.Position, res engine.Result) {
	if res.BestMove == chessmg.NullMove {
		a.println("bestmove 0000")
		return
	}
	if res.FromBook {
		a.println("info string book move")
	}
	if ponder := res.Ponder(); ponder != chessmg.NullMove {
		a.println("bestmove", root.MoveString(res.BestMove), "ponder", root.MoveString(ponder))
		return
	}
	a.println("bestmove", root.MoveString(res.BestMove))
}

// stopSearch cancels a running search and waits for its bestmove.
func (a *Adapter) stopSearch() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.searching.Wait()
}

// handleSetOption parses "name <words...> [value <words...>]".
func (a *Adapter) handleSetOption(args []string) {
	var name, value []string
	target := &name
	for i, tok := range args {
		switch {
		case i == 0 && strings.EqualFold(tok, "name"):
		case strings.EqualFold(tok, "value") && target == &name:
			target = &value
		default:
			*target = append(*target, tok)
		}
	}
	if len(name) == 0 {
		a.println("info string Malformed setoption command")
		return
	}

	n, v := strings.Join(name, " "), strings.Join(value, " ")
	if v == "<empty>" {
		v = ""
	}
	if err := a.eng.SetOption(n, v); err != nil {
		a.log.Warn().Err(err).Str("name", n).Str("value", v).Msg("setoption failed")
		a.println("info string", err)
		return
	}
	a.log.Info().Str("name", n).Str("value", v).Msg("option set")
}

func (a *Adapter) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 0 {
			a.println("info string Malformed perft depth")
			return
		}
		depth = d
	}

	start := time.Now()
	divide := chessmg.PerftDivide(a.pos, depth)
	moves := make([]string, 0, len(divide))
	for mv := range divide {
		moves = append(moves, mv)
	}
	sort.Strings(moves)

	var total uint64
	for _, mv := range moves {
		a.printf("%s: %d\n", mv, divide[mv])
		total += divide[mv]
	}
	if depth == 0 {
		total = 1
	}
	a.printf("\nNodes searched: %d (%v)\n", total, time.Since(start).Round(time.Millisecond))
}
