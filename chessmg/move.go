package chessmg

import (
	"fmt"
	"strings"
)

// Move encodes a chess move in a 32-bit value. It is meaningful only
// relative to the position it was generated from.
type Move uint32

// Bitfield layout within Move (from LSB to MSB)
const (
	moveFromShift    = 0  // 6 bits
	moveToShift      = 6  // 6 bits
	movePieceShift   = 12 // 4 bits
	moveCaptureShift = 16 // 4 bits
	movePromoteShift = 20 // 4 bits
	moveFlagShift    = 24 // 3 bits
)

// Move flags. Captures and promotions are read from their own fields.
const (
	FlagNone        = 0
	FlagDoublePush  = 1
	FlagEnPassant   = 2
	FlagCastleKing  = 3
	FlagCastleQueen = 4
)

// NullMove is the zero move; it never appears in generated move lists.
const NullMove Move = 0

// NewMove constructs a Move value from components.
func NewMove(from, to Square, piece, captured Piece, promotion PieceType, flag uint8) Move {
	return Move(uint32(from&0x3F) |
		uint32(to&0x3F)<<moveToShift |
		uint32(piece&0xF)<<movePieceShift |
		uint32(captured&0xF)<<moveCaptureShift |
		uint32(promotion&0xF)<<movePromoteShift |
		uint32(flag&0x7)<<moveFlagShift)
}

func (m Move) From() Square { return Square((uint32(m) >> moveFromShift) & 0x3F) }

// To is the destination square; for Chess960 castling it is the rook square.
func (m Move) To() Square { return Square((uint32(m) >> moveToShift) & 0x3F) }

// MovedPiece returns the piece code that is moved.
func (m Move) MovedPiece() Piece { return Piece((uint32(m) >> movePieceShift) & 0xF) }

// CapturedPiece returns the captured piece code, NoPiece for non-captures.
func (m Move) CapturedPiece() Piece { return Piece((uint32(m) >> moveCaptureShift) & 0xF) }

// Promotion returns the promotion type, or PieceTypeNone.
func (m Move) Promotion() PieceType { return PieceType((uint32(m) >> movePromoteShift) & 0xF) }

func (m Move) Flag() uint8 { return uint8((uint32(m) >> moveFlagShift) & 0x7) }

func (m Move) IsCapture() bool { return m.CapturedPiece() != NoPiece }
func (m Move) IsPromotion() bool { return m.Promotion() != PieceTypeNone }
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }
func (m Move) IsDoublePush() bool { return m.Flag() == FlagDoublePush }
func (m Move) IsCastle() bool { return m.Flag() == FlagCastleKing || m.Flag() == FlagCastleQueen }
func (m Move) IsNoisy() bool { return m.IsCapture() || m.IsPromotion() }
func (m Move) IsQuiet() bool { return !m.IsNoisy() }

var promoChars = [7]byte{0, 0, 'n', 'b', 'r', 'q', 0}

// String produces the coordinate form ("e2e4", "e7e8q", "0000" for NullMove).
// Castling prints whatever destination the move was generated with.
func (m Move) String() string {
	if m == NullMove {
		return "0000"
	}
	buf := make([]byte, 0, 5)
	buf = append(buf, m.From().String()...)
	buf = append(buf, m.To().String()...)
	if pt := m.Promotion(); pt != PieceTypeNone {
		buf = append(buf, promoChars[pt])
	}
	return string(buf)
}

// MoveString is the coordinate form of m in this position's castling
// convention: king-takes-rook when Chess960 is on, king destination otherwise.
func (p *Position) MoveString(m Move) string {
	if !m.IsCastle() {
		return m.String()
	}
	kingTo, rookFrom := p.castleSquares(m)
	to := kingTo
	if p.chess960 {
		to = rookFrom
	}
	return m.From().String() + to.String()
}

// CastleSquares returns the king destination and the rook origin and
// destination of a castle move generated in this position.
func (p *Position) CastleSquares(m Move) (kingTo, rookFrom, rookTo Square) {
	kingTo, rookFrom = p.castleSquares(m)
	rookTo = kingTo - 1
	if m.Flag() == FlagCastleQueen {
		rookTo = kingTo + 1
	}
	return kingTo, rookFrom, rookTo
}

// castleSquares returns the king destination and the rook origin of a castle move.
func (p *Position) castleSquares(m Move) (kingTo, rookFrom Square) {
	c := m.MovedPiece().Color()
	kingSide := m.Flag() == FlagCastleKing
	rank := 0
	if c == Black {
		rank = 7
	}
	if kingSide {
		kingTo = SquareOf(6, rank)
	} else {
		kingTo = SquareOf(2, rank)
	}
	return kingTo, p.castleRook[castleIndex(c, kingSide)]
}

// ParseMove converts a coordinate string into the matching legal move.
// Both castling notations (king to destination, king to rook) are accepted.
// Syntax errors wrap ErrMalformedInput; well-formed but illegal moves wrap ErrIllegalMove.
func (p *Position) ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 4 || len(s) > 5 {
		return NullMove, fmt.Errorf("%w: invalid move length %q", ErrMalformedInput, s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NullMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NullMove, err
	}
	promo := PieceTypeNone
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = PieceTypeQueen
		case 'r':
			promo = PieceTypeRook
		case 'b':
			promo = PieceTypeBishop
		case 'n':
			promo = PieceTypeKnight
		default:
			return NullMove, fmt.Errorf("%w: invalid promotion piece in %q", ErrMalformedInput, s)
		}
	}

	legal := p.LegalMoves()
	for _, m := range legal {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	if promo == PieceTypeNone {
		for _, m := range legal {
			if !m.IsCastle() || m.From() != from {
				continue
			}
			kingTo, rookFrom := p.castleSquares(m)
			if to == kingTo || to == rookFrom {
				return m, nil
			}
		}
	}
	return NullMove, fmt.Errorf("%w: %s", ErrIllegalMove, s)
}
