package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
)

// run executes a command and prints its combined output. Returns exit code.
func run(name string, args ...string) int {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	fmt.Print(out.String())
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "error running %s: %v\n", name, err)
	return 1
}

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func main() {
	// Usage: go run ./cmd/benchrun [-search]
	withSearch := flag.Bool("search", false, "also run the search benchmarks (slow)")
	benchtime := flag.String("benchtime", "1s", "value passed to -benchtime")
	flag.Parse()

	// Format: BenchmarkName  Iterations  ns/op  B/op  allocs/op
	fmt.Println("Columns: BENCHMARK  N  ns/op  B/op  allocs/op")
	code := run("go", "test", "./chessmg", "-run", "^$", "-bench", ".", "-benchmem", "-benchtime="+*benchtime)
	if code != 0 {
		os.Exit(code)
	}
	if *withSearch {
		code = run("go", "test", "./engine", "-run", "^$", "-bench", ".", "-benchmem", "-benchtime="+*benchtime)
		if code != 0 {
			os.Exit(code)
		}
	}

	fmt.Println("\nPerft Performance:")
	fmt.Println("TEST \t\tDepth \t\tNodes \t\tTime \tNPS")
	for depth := 3; depth <= 6; depth++ {
		run("go", "run", "./cmd/perft", "-depth", fmt.Sprint(depth), "-label", "Initial")
	}
	run("go", "run", "./cmd/perft", "-fen", kiwipete, "-depth", "3", "-label", "Kiwipete")
	run("go", "run", "./cmd/perft", "-fen", kiwipete, "-depth", "4", "-label", "Kiwipete")
}
