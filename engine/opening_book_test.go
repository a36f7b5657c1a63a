package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goosechess/chessmg"
)

const testBook = `# name,eco,moves
Open Game,C20,1. e2e4 e7e5 2. g1f3
Open Game,C20,1. e2e4 e7e5 2. f1c4
Sicilian,B20,1. e2e4 c7c5
Queen's Pawn,D00,1. d2d4 d7d5
`

func TestLoadBook(t *testing.T) {
	book, err := LoadBook(strings.NewReader(testBook))
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if book.Lines() != 4 {
		t.Fatalf("lines: got %d want 4", book.Lines())
	}

	start := chessmg.NewPosition()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		m, ok := book.Probe(start)
		if !ok {
			t.Fatalf("start position must be in the book")
		}
		seen[start.MoveString(m)] = true
	}
	if len(seen) != 2 || !seen["e2e4"] || !seen["d2d4"] {
		t.Fatalf("unexpected book moves %v", seen)
	}

	pos := chessmg.NewPosition()
	for _, mv := range []string{"e2e4", "e7e5"} {
		if _, err := pos.PlayUCI(mv); err != nil {
			t.Fatal(err)
		}
	}
	m, ok := book.Probe(pos)
	if !ok {
		t.Fatalf("position after 1. e4 e5 must be in the book")
	}
	if s := pos.MoveString(m); s != "g1f3" && s != "f1c4" {
		t.Fatalf("unexpected reply %s", s)
	}

	if _, ok := book.Probe(mustFEN(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")); ok {
		t.Fatalf("unknown position found in the book")
	}
}

func TestLoadBookPlainLines(t *testing.T) {
	book, err := LoadBook(strings.NewReader("e2e4 e7e5\nc2c4\n"))
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	if book.Positions() != 2 {
		t.Fatalf("positions: got %d want 2", book.Positions())
	}
}

func TestLoadBookRejectsBadLines(t *testing.T) {
	_, err := LoadBook(strings.NewReader("x,y,1. e2e5\n"))
	if !errors.Is(err, chessmg.ErrIllegalMove) {
		t.Fatalf("illegal move: got %v", err)
	}
	_, err = LoadBook(strings.NewReader("x,y,1. e2e4 zz\n"))
	if !errors.Is(err, chessmg.ErrMalformedInput) {
		t.Fatalf("malformed move: got %v", err)
	}
}

func TestNilBookProbe(t *testing.T) {
	var book *Book
	if _, ok := book.Probe(chessmg.NewPosition()); ok {
		t.Fatalf("nil book must not answer")
	}
}

func TestSearchUsesBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	if err := os.WriteFile(path, []byte(testBook), 0o644); err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, func(o *Options) { o.BookFile = path })

	pos := chessmg.NewPosition()
	res := e.Search(context.Background(), pos, nil, Budget{Depth: 5}, nil)
	if !res.FromBook || res.Depth != 0 {
		t.Fatalf("expected a book move, got %v", res)
	}
	if s := pos.MoveString(res.BestMove); s != "e2e4" && s != "d2d4" {
		t.Fatalf("unexpected book move %s", s)
	}

	// Out of book the engine searches.
	res = e.Search(context.Background(), mustFEN(t, "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"), nil, Budget{Depth: 2}, nil)
	if res.FromBook || res.Depth != 2 {
		t.Fatalf("expected a searched move, got %v", res)
	}
}
