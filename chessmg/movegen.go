package chessmg

import "math/bits"

type genMode int

const (
	genAll    genMode = iota
	genNoisy          // captures, en passant and every promotion
	genQuiets         // everything genNoisy leaves out, castling included
)

// LegalMoves returns every legal move, ordered by piece: pawns, knights,
// bishops, rooks, queens, king, then castling.
func (p *Position) LegalMoves() []Move {
	return p.generate(make([]Move, 0, 64), genAll)
}

// GenerateMovesInto appends all legal moves to dst and returns it.
func (p *Position) GenerateMovesInto(dst []Move) []Move {
	return p.generate(dst, genAll)
}

// GenerateNoisyInto appends legal captures and promotions to dst.
// Used by quiescence search.
func (p *Position) GenerateNoisyInto(dst []Move) []Move {
	return p.generate(dst, genNoisy)
}

// GenerateQuietsInto appends legal non-capturing, non-promoting moves to dst.
func (p *Position) GenerateQuietsInto(dst []Move) []Move {
	return p.generate(dst, genQuiets)
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	var buf [256]Move
	return len(p.generate(buf[:0], genAll)) > 0
}

// attackersTo returns every piece of either color attacking sq under occupancy occ.
func (p *Position) attackersTo(sq Square, occ uint64) uint64 {
	w, b := &p.pieces[White], &p.pieces[Black]
	rq := w[PieceTypeRook] | w[PieceTypeQueen] | b[PieceTypeRook] | b[PieceTypeQueen]
	bq := w[PieceTypeBishop] | w[PieceTypeQueen] | b[PieceTypeBishop] | b[PieceTypeQueen]
	return pawnAttacks[Black][sq]&w[PieceTypePawn] |
		pawnAttacks[White][sq]&b[PieceTypePawn] |
		knightMoves[sq]&(w[PieceTypeKnight]|b[PieceTypeKnight]) |
		kingMoves[sq]&(w[PieceTypeKing]|b[PieceTypeKing]) |
		RookAttacks(sq, occ)&rq |
		BishopAttacks(sq, occ)&bq
}

// attackedBy reports whether side c attacks sq under occupancy occ.
func (p *Position) attackedBy(sq Square, c Color, occ uint64) bool {
	them := &p.pieces[c]
	if pawnAttacks[c.Other()][sq]&them[PieceTypePawn] != 0 ||
		knightMoves[sq]&them[PieceTypeKnight] != 0 ||
		kingMoves[sq]&them[PieceTypeKing] != 0 {
		return true
	}
	if RookAttacks(sq, occ)&(them[PieceTypeRook]|them[PieceTypeQueen]) != 0 {
		return true
	}
	return BishopAttacks(sq, occ)&(them[PieceTypeBishop]|them[PieceTypeQueen]) != 0
}

// pinnedPieces returns side c's pieces that are absolutely pinned to their king.
func (p *Position) pinnedPieces(c Color) uint64 {
	ksq := p.KingSquare(c)
	them := &p.pieces[c.Other()]
	occ := p.AllOccupancy()
	snipers := RookAttacks(ksq, 0)&(them[PieceTypeRook]|them[PieceTypeQueen]) |
		BishopAttacks(ksq, 0)&(them[PieceTypeBishop]|them[PieceTypeQueen])

	var pinned uint64
	for snipers != 0 {
		s := popLSB(&snipers)
		blockers := between[ksq][s] & occ
		if blockers != 0 && blockers&(blockers-1) == 0 {
			pinned |= blockers & p.occupancy[c]
		}
	}
	return pinned
}

// generate appends the legal moves selected by mode to dst.
func (p *Position) generate(dst []Move, mode genMode) []Move {
	us := p.sideToMove
	them := us.Other()
	ours := p.occupancy[us]
	theirs := p.occupancy[them]
	occ := ours | theirs
	ksq := p.KingSquare(us)

	checkers := p.attackersTo(ksq, occ) & theirs

	var target uint64
	switch mode {
	case genNoisy:
		target = theirs
	case genQuiets:
		target = ^occ
	default:
		target = ^ours
	}

	// Double check: only the king may move.
	if checkers&(checkers-1) == 0 {
		checkMask := ^uint64(0)
		if checkers != 0 {
			checkMask = between[ksq][bits.TrailingZeros64(checkers)] | checkers
		}
		pinned := p.pinnedPieces(us)

		dst = p.genPawnMoves(dst, mode, checkMask, pinned, ksq)
		for pt := PieceTypeKnight; pt <= PieceTypeQueen; pt++ {
			dst = p.genPieceMoves(dst, pt, target&checkMask, pinned, ksq)
		}
	}

	// King steps are tested against occupancy without the king so that it
	// cannot retreat along a checking ray.
	pc := MakePiece(us, PieceTypeKing)
	occNoKing := occ &^ bb(ksq)
	for tgts := kingMoves[ksq] & target; tgts != 0; {
		to := popLSB(&tgts)
		if !p.attackedBy(to, them, occNoKing) {
			dst = append(dst, NewMove(ksq, to, pc, p.board[to], PieceTypeNone, FlagNone))
		}
	}

	if mode != genNoisy && checkers == 0 {
		dst = p.genCastling(dst, us, ksq, occ)
	}
	return dst
}

func (p *Position) genPieceMoves(dst []Move, pt PieceType, target, pinned uint64, ksq Square) []Move {
	us := p.sideToMove
	pc := MakePiece(us, pt)
	occ := p.AllOccupancy()
	for froms := p.pieces[us][pt]; froms != 0; {
		from := popLSB(&froms)
		var attacks uint64
		switch pt {
		case PieceTypeKnight:
			// A pinned knight can never stay on the pin line.
			if pinned&bb(from) != 0 {
				continue
			}
			attacks = knightMoves[from]
		case PieceTypeBishop:
			attacks = BishopAttacks(from, occ)
		case PieceTypeRook:
			attacks = RookAttacks(from, occ)
		case PieceTypeQueen:
			attacks = QueenAttacks(from, occ)
		}
		attacks &= target
		if pinned&bb(from) != 0 {
			attacks &= line[ksq][from]
		}
		for attacks != 0 {
			to := popLSB(&attacks)
			dst = append(dst, NewMove(from, to, pc, p.board[to], PieceTypeNone, FlagNone))
		}
	}
	return dst
}

var promotionOrder = [4]PieceType{PieceTypeQueen, PieceTypeRook, PieceTypeBishop, PieceTypeKnight}

func appendPromotions(dst []Move, from, to Square, pc, captured Piece) []Move {
	for _, pt := range promotionOrder {
		dst = append(dst, NewMove(from, to, pc, captured, pt, FlagNone))
	}
	return dst
}

func (p *Position) genPawnMoves(dst []Move, mode genMode, checkMask, pinned uint64, ksq Square) []Move {
	us := p.sideToMove
	them := us.Other()
	pc := MakePiece(us, PieceTypePawn)
	occ := p.AllOccupancy()
	theirs := p.occupancy[them]

	forward := Square(8)
	if us == Black {
		forward = -8
	}

	for froms := p.pieces[us][PieceTypePawn]; froms != 0; {
		from := popLSB(&froms)
		allowed := checkMask
		if pinned&bb(from) != 0 {
			allowed &= line[ksq][from]
		}
		promoting := relativeRank(us, from) == 6

		// Pushes
		one := from + forward
		if occ&bb(one) == 0 {
			if promoting {
				if mode != genQuiets && allowed&bb(one) != 0 {
					dst = appendPromotions(dst, from, one, pc, NoPiece)
				}
			} else if mode != genNoisy {
				if allowed&bb(one) != 0 {
					dst = append(dst, NewMove(from, one, pc, NoPiece, PieceTypeNone, FlagNone))
				}
				two := one + forward
				if relativeRank(us, from) == 1 && occ&bb(two) == 0 && allowed&bb(two) != 0 {
					dst = append(dst, NewMove(from, two, pc, NoPiece, PieceTypeNone, FlagDoublePush))
				}
			}
		}

		if mode == genQuiets {
			continue
		}

		// Captures
		for caps := pawnAttacks[us][from] & theirs & allowed; caps != 0; {
			to := popLSB(&caps)
			if promoting {
				dst = appendPromotions(dst, from, to, pc, p.board[to])
			} else {
				dst = append(dst, NewMove(from, to, pc, p.board[to], PieceTypeNone, FlagNone))
			}
		}

		// En passant is verified by replaying the occupancy change, which covers
		// pins through either pawn, including the horizontal case on the fifth rank.
		if ep := p.enPassant; ep != NoSquare && pawnAttacks[us][from]&bb(ep) != 0 {
			capSq := ep - forward
			after := occ ^ bb(from) ^ bb(ep) ^ bb(capSq)
			if !p.attackedByExcept(ksq, them, after, bb(capSq)) {
				dst = append(dst, NewMove(from, ep, pc, MakePiece(them, PieceTypePawn), PieceTypeNone, FlagEnPassant))
			}
		}
	}
	return dst
}

// attackedByExcept is attackedBy with the pieces in removed ignored.
func (p *Position) attackedByExcept(sq Square, c Color, occ, removed uint64) bool {
	them := &p.pieces[c]
	if pawnAttacks[c.Other()][sq]&them[PieceTypePawn]&^removed != 0 ||
		knightMoves[sq]&them[PieceTypeKnight]&^removed != 0 ||
		kingMoves[sq]&them[PieceTypeKing] != 0 {
		return true
	}
	if RookAttacks(sq, occ)&(them[PieceTypeRook]|them[PieceTypeQueen])&^removed != 0 {
		return true
	}
	return BishopAttacks(sq, occ)&(them[PieceTypeBishop]|them[PieceTypeQueen])&^removed != 0
}

// genCastling emits the castling moves available to side us, which must not be in check.
// Standard positions encode the king's destination, Chess960 the rook's square.
func (p *Position) genCastling(dst []Move, us Color, ksq Square, occ uint64) []Move {
	rank := 0
	if us == Black {
		rank = 7
	}
	king := MakePiece(us, PieceTypeKing)
	for _, kingSide := range [2]bool{true, false} {
		idx := castleIndex(us, kingSide)
		if p.castlingRights&(1<<uint(idx)) == 0 {
			continue
		}
		rsq := p.castleRook[idx]
		kingTo, rookTo := SquareOf(2, rank), SquareOf(3, rank)
		flag := uint8(FlagCastleQueen)
		if kingSide {
			kingTo, rookTo = SquareOf(6, rank), SquareOf(5, rank)
			flag = FlagCastleKing
		}

		movers := bb(ksq) | bb(rsq)
		path := (between[ksq][kingTo] | bb(kingTo) | between[rsq][rookTo] | bb(rookTo)) &^ movers
		if path&occ != 0 {
			continue
		}

		// Attacks are evaluated with both castling pieces lifted; this also
		// catches a slider that the rook was shielding from the destination.
		lifted := occ &^ movers
		safe := true
		for walk := between[ksq][kingTo] | bb(kingTo); walk != 0; {
			if p.attackedBy(popLSB(&walk), us.Other(), lifted) {
				safe = false
				break
			}
		}
		if !safe {
			continue
		}

		to := kingTo
		if p.chess960 {
			to = rsq
		}
		dst = append(dst, NewMove(ksq, to, king, NoPiece, PieceTypeNone, flag))
	}
	return dst
}
