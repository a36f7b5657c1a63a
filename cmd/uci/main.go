package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"goosechess/engine"
	"goosechess/eval"
	"goosechess/uci"
)

func main() {
	logLevel := flag.String("loglevel", "info", "log level on stderr (debug, info, warn, error, disabled)")
	hash := flag.Int("hash", engine.DefaultHashMB, "transposition table size in MB")
	threads := flag.Int("threads", 1, "search threads")
	evalFile := flag.String("evalfile", "", "NNUE weight file; selects the NNUE evaluator")
	book := flag.String("book", "", "opening book file")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad -loglevel: %v\n", err)
		os.Exit(2)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}).
		Level(level).With().Timestamp().Logger()

	opts := engine.DefaultOptions()
	opts.HashMB = *hash
	opts.Threads = *threads
	opts.BookFile = *book
	if *evalFile != "" {
		opts.Evaluator = eval.KindNNUE
		opts.EvalFile = *evalFile
	}

	eng, err := engine.New(opts, logger)
	if err != nil {
		logger.Error().Err(err).Msg("engine setup failed")
		os.Exit(1)
	}

	if err := uci.New(eng, os.Stdout, logger).Run(os.Stdin); err != nil {
		logger.Error().Err(err).Msg("reading stdin")
		os.Exit(1)
	}
}
