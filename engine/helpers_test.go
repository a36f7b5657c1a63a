package engine

import (
	"testing"

	"github.com/rs/zerolog"

	"goosechess/chessmg"
)

func mustFEN(t testing.TB, fen string) *chessmg.Position {
	t.Helper()
	pos, err := chessmg.ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse FEN %q: %v", fen, err)
	}
	return pos
}

func mustMove(t testing.TB, pos *chessmg.Position, s string) chessmg.Move {
	t.Helper()
	m, err := pos.ParseMove(s)
	if err != nil {
		t.Fatalf("parse move %q: %v", s, err)
	}
	return m
}

func mustSquare(t testing.TB, s string) chessmg.Square {
	t.Helper()
	sq, err := chessmg.ParseSquare(s)
	if err != nil {
		t.Fatalf("parse square %q: %v", s, err)
	}
	return sq
}

func newTestEngine(t testing.TB, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	opts.HashMB = 8
	if mutate != nil {
		mutate(&opts)
	}
	e, err := New(opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func isLegal(pos *chessmg.Position, m chessmg.Move) bool {
	for _, lm := range pos.LegalMoves() {
		if lm == m {
			return true
		}
	}
	return false
}
