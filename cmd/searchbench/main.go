package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"goosechess/chessmg"
	"goosechess/engine"
	"goosechess/eval"
)

func main() {
	depthFlag := flag.Int("depth", 10, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", "", "FEN to search (empty = startpos)")
	threadsFlag := flag.Int("threads", 1, "search threads (Lazy SMP)")
	hashFlag := flag.Int("hash", engine.DefaultHashMB, "transposition table size in MB")
	evalFlag := flag.String("evalfile", "", "NNUE weight file (empty = PSQT evaluator)")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	logLevel := flag.String("loglevel", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -loglevel: %v\n", err)
		os.Exit(2)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	if *depthFlag <= 0 {
		logger.Fatal().Int("depth", *depthFlag).Msg("depth must be positive")
	}

	fen := chessmg.FENStartPos
	if *fenFlag != "" {
		fen = *fenFlag
	}
	pos, err := chessmg.ParseFEN(fen)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad -fen")
	}

	opts := engine.DefaultOptions()
	opts.Threads = *threadsFlag
	opts.HashMB = *hashFlag
	if *evalFlag != "" {
		opts.Evaluator = eval.KindNNUE
		opts.EvalFile = *evalFlag
	}
	eng, err := engine.New(opts, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("engine setup failed")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}

	fmt.Printf("searchbench: fen=%q depth=%d repeat=%d threads=%d\n", fen, *depthFlag, *repeatFlag, eng.Options().Threads)

	var totalNodes uint64
	startAll := time.Now()
	for i := 0; i < *repeatFlag; i++ {
		eng.NewGame()
		res := eng.Search(context.Background(), pos, nil, engine.Budget{Depth: *depthFlag}, nil)
		totalNodes += res.Nodes
		fmt.Printf("iteration %d: %v\n", i+1, res)
	}
	totalElapsed := time.Since(startAll)
	fmt.Printf("total time: %v  nodes: %d  nps: %.0f\n", totalElapsed, totalNodes, float64(totalNodes)/totalElapsed.Seconds())

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not create memory profile")
		}
		defer f.Close()

		runtime.GC() // get up-to-date heap info
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("could not write memory profile")
		}
	}
}
