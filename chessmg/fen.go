package chessmg

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// FENStartPos is the FEN string for the standard initial chess position.
const FENStartPos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const pieceChars = " PNBRQK  pnbrqk"

// pieceFromChar converts a FEN character to the corresponding Piece constant.
func pieceFromChar(ch rune) Piece {
	if ch == ' ' {
		return NoPiece
	}
	if i := strings.IndexRune(pieceChars, ch); i > 0 {
		return Piece(i)
	}
	return NoPiece
}

// charFromPiece converts a Piece constant to its FEN character.
func charFromPiece(p Piece) byte {
	if int(p) < len(pieceChars) && pieceChars[p] != ' ' {
		return pieceChars[p]
	}
	return '?'
}

func fenError(format string, args ...any) error {
	return fmt.Errorf("%w: invalid FEN: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := ParseFEN(FENStartPos)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseFEN parses a FEN string and returns a new Position set up to that position.
// The castling field accepts KQkq (outermost rook) as well as Shredder-style
// rook files (HAha) for Chess960 setups. Clock fields are optional.
// Every error wraps ErrMalformedInput.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fenError("not enough fields")
	}

	p := &Position{enPassant: NoSquare, fullmoveNumber: 1}
	for i := range p.castleRook {
		p.castleRook[i] = NoSquare
	}

	// 1. Piece placement
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fenError("incorrect number of ranks")
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range rankStr {
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc := pieceFromChar(ch)
			if pc == NoPiece {
				return nil, fenError("unrecognized piece character %q", ch)
			}
			if file >= 8 {
				return nil, fenError("too many squares in rank %d", rank+1)
			}
			p.addPiece(SquareOf(file, rank), pc)
			file++
		}
		if file != 8 {
			return nil, fenError("rank %d does not have 8 columns", rank+1)
		}
	}

	// 2. Side to move
	switch fields[1] {
	case "w":
		p.sideToMove = White
	case "b":
		p.sideToMove = Black
	default:
		return nil, fenError("side to move must be 'w' or 'b'")
	}

	if err := p.validatePlacement(); err != nil {
		return nil, err
	}

	// 3. Castling rights
	if fields[2] != "-" {
		for _, ch := range fields[2] {
			if err := p.addCastlingRight(ch); err != nil {
				return nil, err
			}
		}
	}

	// 4. En passant target square
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fenError("invalid en passant square %q", fields[3])
		}
		if relativeRank(p.sideToMove, sq) != 5 {
			return nil, fenError("en passant square %s on wrong rank", fields[3])
		}
		p.enPassant = p.capturableEnPassant(sq)
	}

	// 5. Halfmove clock
	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fenError("halfmove clock %q is not a number", fields[4])
		}
		p.halfmoveClock = n
	}

	// 6. Fullmove number
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 0 {
			return nil, fenError("fullmove number %q is not a number", fields[5])
		}
		if n == 0 {
			n = 1
		}
		p.fullmoveNumber = n
	}

	p.key = p.ComputeZobrist()
	return p, nil
}

// validatePlacement enforces one king per side, no pawns on the back ranks and
// that the side not to move is not in check.
func (p *Position) validatePlacement() error {
	for _, c := range [2]Color{White, Black} {
		if bits.OnesCount64(p.pieces[c][PieceTypeKing]) != 1 {
			return fenError("side %s must have exactly one king", c)
		}
	}
	const backRanks = 0xFF000000000000FF
	if p.PiecesOfType(PieceTypePawn)&backRanks != 0 {
		return fenError("pawn on first or last rank")
	}
	if !p.IsLegal() {
		return fenError("side not to move is in check")
	}
	return nil
}

// addCastlingRight resolves one castling character to a rook square and
// updates the rights, the rook table and the castle masks.
func (p *Position) addCastlingRight(ch rune) error {
	c := White
	lower := ch
	if ch >= 'a' && ch <= 'z' {
		c = Black
	} else {
		lower = ch - 'A' + 'a'
	}
	rank := 0
	if c == Black {
		rank = 7
	}
	ksq := p.KingSquare(c)
	if ksq.Rank() != rank {
		// King off its back rank cannot castle; tolerate sloppy input.
		return nil
	}
	rook := MakePiece(c, PieceTypeRook)

	rsq := NoSquare
	switch lower {
	case 'k':
		for f := 7; f > ksq.File(); f-- {
			if p.board[SquareOf(f, rank)] == rook {
				rsq = SquareOf(f, rank)
				break
			}
		}
	case 'q':
		for f := 0; f < ksq.File(); f++ {
			if p.board[SquareOf(f, rank)] == rook {
				rsq = SquareOf(f, rank)
				break
			}
		}
	default:
		if lower < 'a' || lower > 'h' {
			return fenError("invalid castling rights character %q", ch)
		}
		sq := SquareOf(int(lower-'a'), rank)
		if p.board[sq] == rook && sq != ksq {
			rsq = sq
		}
	}
	if rsq == NoSquare {
		return nil
	}

	kingSide := rsq.File() > ksq.File()
	idx := castleIndex(c, kingSide)
	right := CastlingRights(1) << uint(idx)
	p.castlingRights |= right
	p.castleRook[idx] = rsq
	p.castleMask[rsq] |= right
	p.castleMask[ksq] |= right

	if ksq.File() != 4 || (rsq.File() != 0 && rsq.File() != 7) {
		p.chess960 = true
	}
	return nil
}

// capturableEnPassant returns sq if a pawn of the side to move can capture
// onto it, otherwise NoSquare. Only capturable targets enter the key, so that
// positions differing only by a dead en-passant square compare equal.
func (p *Position) capturableEnPassant(sq Square) Square {
	us := p.sideToMove
	them := us.Other()
	victim := sq - 8
	if us == Black {
		victim = sq + 8
	}
	if p.board[victim] != MakePiece(them, PieceTypePawn) {
		return NoSquare
	}
	if pawnAttacks[them][sq]&p.pieces[us][PieceTypePawn] == 0 {
		return NoSquare
	}
	return sq
}

// FEN produces the FEN string of the current position. Chess960 positions
// write castling rights as rook files (Shredder-FEN).
func (p *Position) FEN() string {
	var sb strings.Builder

	// 1. Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[SquareOf(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte('0' + byte(empty))
				empty = 0
			}
			sb.WriteByte(charFromPiece(pc))
		}
		if empty > 0 {
			sb.WriteByte('0' + byte(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	// 2. Side to move
	sb.WriteByte(' ')
	sb.WriteString(p.sideToMove.String())

	// 3. Castling rights
	sb.WriteByte(' ')
	if p.castlingRights == CastleNone {
		sb.WriteByte('-')
	} else {
		std := "KQkq"
		for idx := 0; idx < 4; idx++ {
			if p.castlingRights&(1<<uint(idx)) == 0 {
				continue
			}
			if !p.chess960 {
				sb.WriteByte(std[idx])
				continue
			}
			ch := 'A' + byte(p.castleRook[idx].File())
			if idx >= 2 {
				ch += 'a' - 'A'
			}
			sb.WriteByte(ch)
		}
	}

	// 4. En passant square
	sb.WriteByte(' ')
	sb.WriteString(p.enPassant.String())

	// 5-6. Clocks
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.halfmoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.fullmoveNumber))
	return sb.String()
}

// String renders the board as an 8x8 diagram followed by the FEN.
func (p *Position) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte('1' + byte(rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			pc := p.board[SquareOf(file, rank)]
			if pc == NoPiece {
				sb.WriteString(" .")
			} else {
				sb.WriteByte(' ')
				sb.WriteByte(charFromPiece(pc))
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a b c d e f g h\n")
	sb.WriteString("FEN: ")
	sb.WriteString(p.FEN())
	sb.WriteByte('\n')
	return sb.String()
}
