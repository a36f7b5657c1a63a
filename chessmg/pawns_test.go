package chessmg_test

import (
	"testing"

	"goosechess/chessmg"
)

func squares(t *testing.T, names ...string) uint64 {
	t.Helper()
	var b uint64
	for _, n := range names {
		sq, err := chessmg.ParseSquare(n)
		if err != nil {
			t.Fatalf("ParseSquare(%q): %v", n, err)
		}
		b |= 1 << uint(sq)
	}
	return b
}

func files(fs ...int) uint64 {
	var b uint64
	for _, f := range fs {
		b |= chessmg.FileMask(f)
	}
	return b
}

func TestDoubledPawnsAndIslands(t *testing.T) {
	tests := []struct {
		name    string
		pawns   []string
		doubled int
		islands int
	}{
		{"stacked a and f files", []string{"a5", "a4", "f4", "a2", "b2", "c2", "d2", "f2", "g2"}, 3, 2},
		{"one chain", []string{"h6", "c4", "f3", "g3", "a2", "b2", "d2", "e2"}, 0, 1},
		{"scattered", []string{"a2", "c2", "e2", "g2"}, 0, 4},
		{"none", nil, 0, 0},
	}
	for _, tt := range tests {
		own := squares(t, tt.pawns...)
		if got := chessmg.DoubledPawns(own); got != tt.doubled {
			t.Fatalf("%s: doubled got %d want %d", tt.name, got, tt.doubled)
		}
		if got := chessmg.PawnIslands(own); got != tt.islands {
			t.Fatalf("%s: islands got %d want %d", tt.name, got, tt.islands)
		}
	}
}

func TestIsolatedPawns(t *testing.T) {
	own := squares(t, "a2", "c3", "d2", "h4", "h2")
	want := squares(t, "a2", "h4", "h2")
	if got := chessmg.IsolatedPawns(own); got != want {
		t.Fatalf("isolated: got %#x want %#x", got, want)
	}
}

func TestPassedPawns(t *testing.T) {
	white := squares(t, "a5", "a3", "d5", "h2")
	black := squares(t, "c7", "h7", "f4")

	if got, want := chessmg.PassedPawns(chessmg.White, white, black), squares(t, "a5"); got != want {
		t.Fatalf("white passed: got %#x want %#x", got, want)
	}
	if got, want := chessmg.PassedPawns(chessmg.Black, black, white), squares(t, "f4"); got != want {
		t.Fatalf("black passed: got %#x want %#x", got, want)
	}
}

func TestOpenAndHalfOpenFiles(t *testing.T) {
	white := squares(t, "a2", "b2")
	black := squares(t, "b7", "c7")

	if got, want := chessmg.OpenFiles(white, black), files(3, 4, 5, 6, 7); got != want {
		t.Fatalf("open files: got %#x want %#x", got, want)
	}
	if got, want := chessmg.HalfOpenFiles(white, black), files(2); got != want {
		t.Fatalf("white half-open: got %#x want %#x", got, want)
	}
	if got, want := chessmg.HalfOpenFiles(black, white), files(0); got != want {
		t.Fatalf("black half-open: got %#x want %#x", got, want)
	}
}

func TestForwardFileMask(t *testing.T) {
	e4, _ := chessmg.ParseSquare("e4")
	if got, want := chessmg.ForwardFileMask(chessmg.White, e4), squares(t, "e5", "e6", "e7", "e8"); got != want {
		t.Fatalf("white ahead of e4: got %#x want %#x", got, want)
	}
	if got, want := chessmg.ForwardFileMask(chessmg.Black, e4), squares(t, "e3", "e2", "e1"); got != want {
		t.Fatalf("black ahead of e4: got %#x want %#x", got, want)
	}
}
