package chessmg

import "fmt"

// MoveState stores the information needed to undo a move exactly.
type MoveState struct {
	move          Move
	prevCastling  CastlingRights
	prevEnPassant Square
	prevHalfmove  int
	prevFullmove  int
	prevZobrist   uint64
}

// Move returns the move this state undoes.
func (st MoveState) Move() Move { return st.move }

// NullState stores the minimal information needed to undo a null move.
type NullState struct {
	prevEnPassant Square
	prevHalfmove  int
	prevZobrist   uint64
}

// MakeMove applies m, which must be legal in the current position, and
// returns the state needed by UnmakeMove.
func (p *Position) MakeMove(m Move) MoveState {
	st := MoveState{
		move:          m,
		prevCastling:  p.castlingRights,
		prevEnPassant: p.enPassant,
		prevHalfmove:  p.halfmoveClock,
		prevFullmove:  p.fullmoveNumber,
		prevZobrist:   p.key,
	}

	us := p.sideToMove
	from, to := m.From(), m.To()
	pc := m.MovedPiece()

	p.key ^= zobristCastle[p.castlingRights]
	if p.enPassant != NoSquare {
		p.key ^= zobristEnPassant[p.enPassant.File()]
	}
	p.halfmoveClock++

	switch m.Flag() {
	case FlagCastleKing, FlagCastleQueen:
		kingTo, rookFrom, rookTo := p.CastleSquares(m)
		// Lift both pieces first; in Chess960 the squares may overlap.
		p.removePiece(from)
		rook := p.removePiece(rookFrom)
		p.addPiece(kingTo, pc)
		p.addPiece(rookTo, rook)
	case FlagEnPassant:
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		p.removePiece(capSq)
		p.movePiece(from, to)
		p.halfmoveClock = 0
	default:
		if m.IsCapture() {
			p.removePiece(to)
			p.halfmoveClock = 0
		}
		if promo := m.Promotion(); promo != PieceTypeNone {
			p.removePiece(from)
			p.addPiece(to, MakePiece(us, promo))
		} else {
			p.movePiece(from, to)
		}
		if pc.Type() == PieceTypePawn {
			p.halfmoveClock = 0
		}
	}

	p.castlingRights &^= p.castleMask[from] | p.castleMask[to]
	p.key ^= zobristCastle[p.castlingRights]

	if us == Black {
		p.fullmoveNumber++
	}
	p.sideToMove = us.Other()
	p.key ^= zobristSide

	p.enPassant = NoSquare
	if m.Flag() == FlagDoublePush {
		p.enPassant = p.capturableEnPassant((from + to) / 2)
		if p.enPassant != NoSquare {
			p.key ^= zobristEnPassant[p.enPassant.File()]
		}
	}
	return st
}

// UnmakeMove restores the position to the exact state before MakeMove(m).
func (p *Position) UnmakeMove(m Move, st MoveState) {
	p.sideToMove = p.sideToMove.Other()
	us := p.sideToMove
	from, to := m.From(), m.To()
	pc := m.MovedPiece()

	switch m.Flag() {
	case FlagCastleKing, FlagCastleQueen:
		kingTo, rookFrom, rookTo := p.CastleSquares(m)
		p.removePiece(kingTo)
		rook := p.removePiece(rookTo)
		p.addPiece(from, pc)
		p.addPiece(rookFrom, rook)
	case FlagEnPassant:
		capSq := to - 8
		if us == Black {
			capSq = to + 8
		}
		p.movePiece(to, from)
		p.addPiece(capSq, m.CapturedPiece())
	default:
		if m.IsPromotion() {
			p.removePiece(to)
			p.addPiece(from, pc)
		} else {
			p.movePiece(to, from)
		}
		if m.IsCapture() {
			p.addPiece(to, m.CapturedPiece())
		}
	}

	p.castlingRights = st.prevCastling
	p.enPassant = st.prevEnPassant
	p.halfmoveClock = st.prevHalfmove
	p.fullmoveNumber = st.prevFullmove
	p.key = st.prevZobrist
}

// MakeNullMove passes the turn. Callers must not use it while in check.
func (p *Position) MakeNullMove() NullState {
	st := NullState{
		prevEnPassant: p.enPassant,
		prevHalfmove:  p.halfmoveClock,
		prevZobrist:   p.key,
	}
	if p.enPassant != NoSquare {
		p.key ^= zobristEnPassant[p.enPassant.File()]
		p.enPassant = NoSquare
	}
	p.halfmoveClock++
	p.sideToMove = p.sideToMove.Other()
	p.key ^= zobristSide
	return st
}

// UnmakeNullMove reverts MakeNullMove.
func (p *Position) UnmakeNullMove(st NullState) {
	p.sideToMove = p.sideToMove.Other()
	p.enPassant = st.prevEnPassant
	p.halfmoveClock = st.prevHalfmove
	p.key = st.prevZobrist
}

// Play applies m after checking it against the legal move set. An illegal
// move leaves the position untouched and returns an error wrapping ErrIllegalMove.
func (p *Position) Play(m Move) (MoveState, error) {
	var buf [256]Move
	for _, legal := range p.generate(buf[:0], genAll) {
		if legal == m {
			return p.MakeMove(m), nil
		}
	}
	return MoveState{}, fmt.Errorf("%w: %s", ErrIllegalMove, p.MoveString(m))
}

// PlayUCI parses s and plays it.
func (p *Position) PlayUCI(s string) (MoveState, error) {
	m, err := p.ParseMove(s)
	if err != nil {
		return MoveState{}, err
	}
	return p.MakeMove(m), nil
}
