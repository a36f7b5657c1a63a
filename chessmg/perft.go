package chessmg

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	pc := perftCtx{bufs: make([][]Move, depth+1)}
	return perftRec(p, depth, &pc)
}

// perftCtx keeps one move buffer per depth so the recursion does not allocate.
type perftCtx struct {
	bufs [][]Move
}

func (pc *perftCtx) bufFor(depth int) []Move {
	buf := pc.bufs[depth]
	if buf == nil {
		buf = make([]Move, 0, 256)
		pc.bufs[depth] = buf
	}
	return buf[:0]
}

func perftRec(p *Position, depth int, pc *perftCtx) uint64 {
	moves := p.GenerateMovesInto(pc.bufFor(depth))
	// Legal generation makes the last ply a plain count.
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		st := p.MakeMove(m)
		nodes += perftRec(p, depth-1, pc)
		p.UnmakeMove(m, st)
	}
	return nodes
}

// PerftDivide returns the perft count below each root move, keyed by the
// move's coordinate string in the position's castling convention.
func PerftDivide(p *Position, depth int) map[string]uint64 {
	result := make(map[string]uint64)
	if depth <= 0 {
		return result
	}
	for _, m := range p.LegalMoves() {
		name := p.MoveString(m)
		st := p.MakeMove(m)
		result[name] = Perft(p, depth-1)
		p.UnmakeMove(m, st)
	}
	return result
}
