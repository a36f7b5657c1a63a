package chessmg_test

import (
	"sort"
	"testing"

	"goosechess/chessmg"
)

func mustFEN(t *testing.T, fen string) *chessmg.Position {
	t.Helper()
	pos, err := chessmg.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func moveStrings(pos *chessmg.Position, moves []chessmg.Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, pos.MoveString(m))
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func TestEnPassantHorizontalPinExcluded(t *testing.T) {
	// Capturing c6 would clear both pawns off the fifth rank and expose a5 to h5.
	pos := mustFEN(t, "8/8/8/KPp4r/8/8/8/4k3 w - c6 0 1")
	moves := moveStrings(pos, pos.LegalMoves())
	if contains(moves, "b5c6") {
		t.Fatalf("en passant b5c6 must be illegal, got %v", moves)
	}
	if len(moves) != 4 {
		t.Fatalf("legal moves: got %d want 4 (%v)", len(moves), moves)
	}
}

func TestEnPassantEvadesPawnCheck(t *testing.T) {
	// d5 pawn gives check after d7-d5; exd6 removes the checker.
	pos := mustFEN(t, "8/8/8/3pP3/4K3/8/8/k7 w - d6 0 1")
	if !pos.InCheck() {
		t.Fatalf("expected white in check from d5 pawn")
	}
	moves := moveStrings(pos, pos.LegalMoves())
	if !contains(moves, "e5d6") {
		t.Fatalf("expected en passant evasion e5d6 in %v", moves)
	}
}

func TestPinnedPieceMovesAlongLine(t *testing.T) {
	pos := mustFEN(t, "4r2k/8/8/8/8/8/4R3/4K3 w - - 0 1")
	for _, m := range pos.LegalMoves() {
		if m.From() == chessmg.SquareOf(4, 1) && m.To().File() != 4 {
			t.Fatalf("pinned rook left the e-file with %s", m)
		}
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	// Bishop b4 and rook a1 both hit e1.
	pos := mustFEN(t, "4k3/8/8/8/1b6/8/8/r3K2R w K - 0 1")
	if got := popcount(pos.Checkers()); got != 2 {
		t.Fatalf("expected double check, got %d checkers", got)
	}
	for _, m := range pos.LegalMoves() {
		if m.MovedPiece().Type() != chessmg.PieceTypeKing {
			t.Fatalf("non-king move %s in double check", m)
		}
		if m.IsCastle() {
			t.Fatalf("castling generated while in check")
		}
	}
}

func popcount(x uint64) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

func TestCastlingThroughAttackedSquare(t *testing.T) {
	// f1 is covered by the bishop on c4.
	pos := mustFEN(t, "4k3/8/8/8/2b5/8/8/4K2R w K - 0 1")
	moves := moveStrings(pos, pos.LegalMoves())
	if contains(moves, "e1g1") {
		t.Fatalf("castling through attacked f1 generated: %v", moves)
	}
	pos = mustFEN(t, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	moves = moveStrings(pos, pos.LegalMoves())
	if !contains(moves, "e1g1") {
		t.Fatalf("expected e1g1 in %v", moves)
	}
}

func TestChess960CastlingRookShield(t *testing.T) {
	// Queen-side castle puts the king on c1; the rook on b1 was shielding it from a1.
	pos := mustFEN(t, "1r2k3/8/8/8/8/8/8/qR1K4 w B - 0 1")
	if !pos.Chess960() {
		t.Fatalf("expected Chess960 flag for rook on b1 / king on d1")
	}
	for _, m := range pos.LegalMoves() {
		if m.IsCastle() {
			t.Fatalf("castling %s must be illegal: a1 queen attacks c1 once b1 is vacated", pos.MoveString(m))
		}
	}
}

func TestChess960CastlingEncoding(t *testing.T) {
	pos := mustFEN(t, "bqnb1rkr/pp3ppp/3ppn2/2p5/5P2/P2P4/NPP1P1PP/BQ1BNRKR w HFhf - 2 9")
	if !pos.Chess960() {
		t.Fatalf("expected Chess960 position")
	}
	if got := pos.FEN(); got != "bqnb1rkr/pp3ppp/3ppn2/2p5/5P2/P2P4/NPP1P1PP/BQ1BNRKR w HFhf - 2 9" {
		t.Fatalf("FEN round trip: got %q", got)
	}
	// King g1 and rook h1: kingside castling keeps the king on g1 and moves the rook to f1,
	// which is occupied by the other rook, so it is not available here.
	moves := moveStrings(pos, pos.LegalMoves())
	if contains(moves, "g1h1") {
		t.Fatalf("castling with f1 blocked generated: %v", moves)
	}

	pos = mustFEN(t, "4k3/8/8/8/8/8/8/6KR w H - 0 1")
	m, err := pos.ParseMove("g1h1")
	if err != nil {
		t.Fatalf("ParseMove g1h1: %v", err)
	}
	if !m.IsCastle() {
		t.Fatalf("expected g1h1 to be a castle move")
	}
	before := *pos
	st := pos.MakeMove(m)
	if pos.PieceAt(chessmg.SquareOf(6, 0)) != chessmg.WhiteKing || pos.PieceAt(chessmg.SquareOf(5, 0)) != chessmg.WhiteRook {
		t.Fatalf("unexpected placement after castling: %s", pos.FEN())
	}
	if pos.CastlingRights() != chessmg.CastleNone {
		t.Fatalf("castling rights not cleared: %v", pos.CastlingRights())
	}
	pos.UnmakeMove(m, st)
	if *pos != before {
		t.Fatalf("unmake of Chess960 castle did not restore the position")
	}
}

func TestNoisyAndQuietPartition(t *testing.T) {
	fens := []string{
		chessmg.FENStartPos,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"k7/8/8/3pP3/8/8/8/7K w - d6 0 2",
	}
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		all := moveStrings(pos, pos.LegalMoves())
		noisy := pos.GenerateNoisyInto(nil)
		quiet := pos.GenerateQuietsInto(nil)
		for _, m := range noisy {
			if !m.IsNoisy() {
				t.Fatalf("%s: quiet move %s in noisy list", fen, m)
			}
		}
		for _, m := range quiet {
			if m.IsNoisy() {
				t.Fatalf("%s: noisy move %s in quiet list", fen, m)
			}
		}
		merged := moveStrings(pos, append(noisy, quiet...))
		if len(merged) != len(all) {
			t.Fatalf("%s: noisy+quiet=%d, all=%d", fen, len(merged), len(all))
		}
		for i := range all {
			if merged[i] != all[i] {
				t.Fatalf("%s: partition mismatch at %d: %s vs %s", fen, i, merged[i], all[i])
			}
		}
	}
}

func TestPromotionsEnumerated(t *testing.T) {
	pos := mustFEN(t, "1n5k/P7/8/8/8/8/8/7K w - - 0 1")
	moves := moveStrings(pos, pos.LegalMoves())
	for _, want := range []string{"a7a8q", "a7a8r", "a7a8b", "a7a8n", "a7b8q", "a7b8r", "a7b8b", "a7b8n"} {
		if !contains(moves, want) {
			t.Fatalf("missing promotion %s in %v", want, moves)
		}
	}
}

func TestMoveOrderByPiece(t *testing.T) {
	pos := chessmg.NewPosition()
	last := chessmg.PieceTypePawn
	for _, m := range pos.LegalMoves() {
		pt := m.MovedPiece().Type()
		if pt < last {
			t.Fatalf("move %s out of piece order", m)
		}
		last = pt
	}
}

func TestMateAndStalemate(t *testing.T) {
	mate := mustFEN(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if !mate.IsCheckmate() {
		t.Fatalf("expected checkmate")
	}
	stale := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !stale.IsStalemate() {
		t.Fatalf("expected stalemate")
	}
	if stale.HasLegalMoves() {
		t.Fatalf("stalemate position reports legal moves")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	cases := []struct {
		fen  string
		want bool
	}{
		{"8/8/8/4k3/8/8/8/4K3 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/4KN2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/8/2B1KB2 w - - 0 1", false},
		{"8/8/8/4k3/8/8/8/4KB2 w - - 0 1", true},
		{"8/8/8/4k3/8/8/4P3/4K3 w - - 0 1", false},
	}
	for _, tc := range cases {
		if got := mustFEN(t, tc.fen).HasInsufficientMaterial(); got != tc.want {
			t.Fatalf("%s: got %v want %v", tc.fen, got, tc.want)
		}
	}
}

func TestGivesCheck(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/R3K3 w Q - 0 1")
	m, err := pos.ParseMove("a1a8")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !pos.GivesCheck(m) {
		t.Fatalf("a1a8 should give check")
	}
	key := pos.Hash()
	castle, err := pos.ParseMove("e1c1")
	if err != nil {
		t.Fatalf("ParseMove e1c1: %v", err)
	}
	if pos.GivesCheck(castle) {
		t.Fatalf("e1c1 should not give check")
	}
	if pos.Hash() != key {
		t.Fatalf("GivesCheck mutated the position")
	}
}
