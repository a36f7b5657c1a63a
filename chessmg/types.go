package chessmg

import "fmt"

// Piece is a colored piece code. White pieces are 1..6, black pieces carry bit 3.
type Piece uint8

const (
	NoPiece     Piece = 0
	WhitePawn   Piece = 1
	WhiteKnight Piece = 2
	WhiteBishop Piece = 3
	WhiteRook   Piece = 4
	WhiteQueen  Piece = 5
	WhiteKing   Piece = 6

	// piece & 7 gives the type, piece & 8 marks Black.
	BlackPawn   Piece = 1 | 8
	BlackKnight Piece = 2 | 8
	BlackBishop Piece = 3 | 8
	BlackRook   Piece = 4 | 8
	BlackQueen  Piece = 5 | 8
	BlackKing   Piece = 6 | 8
)

// PieceType is a colorless piece kind used for table lookups.
type PieceType uint8

const (
	PieceTypeNone   PieceType = 0
	PieceTypePawn   PieceType = 1
	PieceTypeKnight PieceType = 2
	PieceTypeBishop PieceType = 3
	PieceTypeRook   PieceType = 4
	PieceTypeQueen  PieceType = 5
	PieceTypeKing   PieceType = 6
)

// Type returns the colorless type of the piece.
func (p Piece) Type() PieceType { return PieceType(p & 7) }

// Color returns the side that owns the piece. NoPiece reports White.
func (p Piece) Color() Color {
	if p&8 != 0 {
		return Black
	}
	return White
}

// MakePiece combines a side and a colorless type.
func MakePiece(c Color, pt PieceType) Piece {
	if pt == PieceTypeNone {
		return NoPiece
	}
	return Piece(pt) | Piece(c)<<3
}

type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Other returns the opposing side.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// CastlingRights is a bit set of the four castling permissions.
type CastlingRights uint8

const (
	CastleWhiteKing CastlingRights = 1 << iota
	CastleWhiteQueen
	CastleBlackKing
	CastleBlackQueen

	CastleNone CastlingRights = 0
	CastleAll                 = CastleWhiteKing | CastleWhiteQueen | CastleBlackKing | CastleBlackQueen
)

// castleIndex maps a side and a wing to the bit position of the right.
func castleIndex(c Color, kingSide bool) int {
	idx := int(c) * 2
	if !kingSide {
		idx++
	}
	return idx
}

// Square is a board index, a1 = 0 ... h8 = 63.
type Square int

const NoSquare Square = -1

const (
	A1, B1, C1, D1, E1, F1, G1, H1 Square = 0, 1, 2, 3, 4, 5, 6, 7
	A8, B8, C8, D8, E8, F8, G8, H8 Square = 56, 57, 58, 59, 60, 61, 62, 63
)

// SquareOf builds a square from zero-based file and rank.
func SquareOf(file, rank int) Square { return Square(rank*8 + file) }

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 3 }

// String returns the coordinate name ("e4"), or "-" for NoSquare.
func (s Square) String() string {
	if s < 0 || s > 63 {
		return "-"
	}
	return string([]byte{'a' + byte(s.File()), '1' + byte(s.Rank())})
}

// ParseSquare converts a coordinate such as "e4" into a Square.
func ParseSquare(str string) (Square, error) {
	if len(str) != 2 {
		return NoSquare, fmt.Errorf("%w: invalid square %q", ErrMalformedInput, str)
	}
	file, rank := str[0], str[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return NoSquare, fmt.Errorf("%w: invalid square %q", ErrMalformedInput, str)
	}
	return SquareOf(int(file-'a'), int(rank-'1')), nil
}

// relativeRank returns the rank from the point of view of side c.
func relativeRank(c Color, sq Square) int {
	if c == White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}
