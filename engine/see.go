package engine

import (
	"math/bits"

	"goosechess/chessmg"
)

var SeePieceValue = [7]int{
	chessmg.PieceTypeKing:   5000,
	chessmg.PieceTypePawn:   100,
	chessmg.PieceTypeKnight: 300,
	chessmg.PieceTypeBishop: 300,
	chessmg.PieceTypeRook:   500,
	chessmg.PieceTypeQueen:  900}

// see returns the material balance of the capture sequence started by move
// on its destination square, both sides always recapturing with their least
// valuable attacker and free to stop. Sliders revealed behind a capturer join in.
func see(pos *chessmg.Position, move chessmg.Move) int {
	// Prepare values
	var gain [32]int
	depth := 0
	side := pos.SideToMove()

	initSquare := move.From()
	targetSquare := move.To()
	occ := pos.AllOccupancy()

	targetPiece := move.CapturedPiece().Type()
	if move.IsEnPassant() {
		targetPiece = chessmg.PieceTypePawn
		capSq := targetSquare - 8
		if side == chessmg.Black {
			capSq = targetSquare + 8
		}
		occ &^= 1 << uint(capSq)
	}
	attacker := move.MovedPiece().Type()
	gain[depth] = SeePieceValue[targetPiece]
	if promo := move.Promotion(); promo != chessmg.PieceTypeNone {
		gain[depth] += SeePieceValue[promo] - SeePieceValue[chessmg.PieceTypePawn]
		attacker = promo
	}

	attackerBB := uint64(1) << uint(initSquare)
	for attackerBB != 0 && depth < len(gain)-1 {
		depth++
		// Speculative: the piece that just captured is taken in turn.
		gain[depth] = SeePieceValue[attacker] - gain[depth-1]

		// If we're in a losing position after the last trade, we break
		if Max(-gain[depth-1], gain[depth]) < 0 {
			break
		}

		occ ^= attackerBB
		side = side.Other()
		attackerBB, attacker = minAttacker(pos, pos.AttackersTo(targetSquare, occ)&occ, side)
	}

	for depth--; depth > 0; depth-- {
		gain[depth-1] = -Max(-gain[depth-1], gain[depth])
	}
	return gain[0]
}

// minAttacker picks the least valuable piece of side among attackers.
func minAttacker(pos *chessmg.Position, attackers uint64, side chessmg.Color) (uint64, chessmg.PieceType) {
	attackers &= pos.Occupancy(side)
	if attackers == 0 {
		return 0, chessmg.PieceTypeNone
	}
	for pt := chessmg.PieceTypePawn; pt <= chessmg.PieceTypeKing; pt++ {
		if subset := attackers & pos.Pieces(side, pt); subset != 0 {
			return uint64(1) << uint(bits.TrailingZeros64(subset)), pt
		}
	}
	return 0, chessmg.PieceTypeNone
}

// seeGE reports whether the exchange on move's square nets at least threshold.
func seeGE(pos *chessmg.Position, move chessmg.Move, threshold int) bool {
	return see(pos, move) >= threshold
}
