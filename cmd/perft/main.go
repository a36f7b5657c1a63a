package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"sort"
	"time"

	"github.com/dylhunn/dragontoothmg"

	"goosechess/chessmg"
)

func main() {
	fen := flag.String("fen", chessmg.FENStartPos, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	verify := flag.Bool("verify", false, "Cross-check the divide against dragontoothmg (standard chess only)")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report aggregate (for steadier timings)")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	cpuProf := flag.String("cpuprofile", "", "Write CPU profile to file during run")
	memProf := flag.String("memprofile", "", "Write heap profile to file after run")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	pos, err := chessmg.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *verify {
		if pos.Chess960() {
			fmt.Fprintln(os.Stderr, "-verify does not support Chess960 positions")
			os.Exit(2)
		}
		if !verifyDivide(*fen, pos, *depth) {
			os.Exit(1)
		}
		return
	}

	if *divide {
		div := chessmg.PerftDivide(pos, *depth)
		moves := make([]string, 0, len(div))
		var sum uint64
		for m, n := range div {
			moves = append(moves, m)
			sum += n
		}
		sort.Strings(moves)
		for _, m := range moves {
			fmt.Printf("%s: %d\n", m, div[m])
		}
		fmt.Printf("Total: %d\n", sum)
		return
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating cpuprofile: %v\n", err)
			os.Exit(2)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "start cpu profile: %v\n", err)
			os.Exit(2)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	var totalNodes uint64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		totalNodes += chessmg.Perft(pos, *depth)
	}
	elapsed := time.Since(start)
	nps := float64(totalNodes) / elapsed.Seconds()

	// Single line: Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%d \t\t%s \t%.0f\n", *label, *depth, totalNodes, elapsed, nps)

	if *memProf != "" {
		f, err := os.Create(*memProf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating memprofile: %v\n", err)
			os.Exit(2)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "write heap profile: %v\n", err)
			os.Exit(2)
		}
		_ = f.Close()
	}
}

// verifyDivide prints every root move whose subtree count differs from
// dragontoothmg and reports whether the two generators agree.
func verifyDivide(fen string, pos *chessmg.Position, depth int) bool {
	board := dragontoothmg.ParseFen(fen)
	want := make(map[string]uint64)
	for _, m := range board.GenerateLegalMoves() {
		undo := board.Apply(m)
		want[m.String()] = referencePerft(&board, depth-1)
		undo()
	}
	got := chessmg.PerftDivide(pos, depth)

	names := make([]string, 0, len(want)+len(got))
	for m := range want {
		names = append(names, m)
	}
	for m := range got {
		if _, ok := want[m]; !ok {
			names = append(names, m)
		}
	}
	sort.Strings(names)

	ok := true
	var total uint64
	for _, m := range names {
		g, inGot := got[m]
		w, inWant := want[m]
		total += g
		switch {
		case !inWant:
			fmt.Printf("%s: %d (not generated by reference)\n", m, g)
			ok = false
		case !inGot:
			fmt.Printf("%s: missing (reference %d)\n", m, w)
			ok = false
		case g != w:
			fmt.Printf("%s: %d (reference %d)\n", m, g, w)
			ok = false
		}
	}
	if ok {
		fmt.Printf("OK: %d root moves, %d nodes\n", len(got), total)
	}
	return ok
}

func referencePerft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for _, m := range moves {
		undo := b.Apply(m)
		n += referencePerft(b, depth-1)
		undo()
	}
	return n
}
