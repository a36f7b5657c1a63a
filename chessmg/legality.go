package chessmg

import "math/bits"

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers() != 0
}

// Checkers returns the enemy pieces giving check to the side to move.
func (p *Position) Checkers() uint64 {
	us := p.sideToMove
	return p.attackersTo(p.KingSquare(us), p.AllOccupancy()) & p.occupancy[us.Other()]
}

// IsLegal validates the position itself: the side that just moved must not
// have its king attacked.
func (p *Position) IsLegal() bool {
	them := p.sideToMove.Other()
	ksq := p.KingSquare(them)
	if ksq == NoSquare {
		return false
	}
	return !p.attackedBy(ksq, p.sideToMove, p.AllOccupancy())
}

// IsSquareAttacked reports whether side c attacks sq in the current position.
func (p *Position) IsSquareAttacked(sq Square, c Color) bool {
	return p.attackedBy(sq, c, p.AllOccupancy())
}

// AttackersTo returns the pieces of both colors attacking sq under occ.
func (p *Position) AttackersTo(sq Square, occ uint64) uint64 {
	return p.attackersTo(sq, occ)
}

// GivesCheck reports whether the legal move m checks the opponent.
func (p *Position) GivesCheck(m Move) bool {
	st := p.MakeMove(m)
	check := p.InCheck()
	p.UnmakeMove(m, st)
	return check
}

// IsCheckmate reports whether the side to move is mated.
func (p *Position) IsCheckmate() bool { return p.InCheck() && !p.HasLegalMoves() }

// IsStalemate reports whether the side to move has no moves but is not in check.
func (p *Position) IsStalemate() bool { return !p.InCheck() && !p.HasLegalMoves() }

// IsDrawBy50 reports the fifty-move rule. A mate delivered on the hundredth
// half-move still counts as mate.
func (p *Position) IsDrawBy50() bool {
	if p.halfmoveClock < 100 {
		return false
	}
	return !p.IsCheckmate()
}

// HasInsufficientMaterial reports the dead positions that no sequence of
// moves can turn into a mate: K vs K, K+minor vs K, and bishops all on one color.
func (p *Position) HasInsufficientMaterial() bool {
	if p.PiecesOfType(PieceTypePawn)|p.PiecesOfType(PieceTypeRook)|p.PiecesOfType(PieceTypeQueen) != 0 {
		return false
	}
	knights := p.PiecesOfType(PieceTypeKnight)
	bishops := p.PiecesOfType(PieceTypeBishop)
	minors := bits.OnesCount64(knights | bishops)
	if minors <= 1 {
		return true
	}
	if knights != 0 {
		return false
	}
	const darkSquares = 0xAA55AA55AA55AA55
	return bishops&darkSquares == 0 || bishops&^darkSquares == 0
}
