package chessmg

import "math/bits"

// Position is the full board state: placement, side to move, castling rights,
// en-passant target, move clocks and the incrementally maintained Zobrist key.
// It is mutated in place by MakeMove and restored exactly by UnmakeMove.
type Position struct {
	// Per-side piece bitboards indexed by PieceType (index 0 unused).
	pieces [2][7]uint64

	// Occupancy per side; the union is the full occupancy.
	occupancy [2]uint64

	// Mailbox view of the same placement.
	board [64]Piece

	sideToMove     Color
	castlingRights CastlingRights

	// Rook start squares per castling right (WK, WQ, BK, BQ), NoSquare when unknown.
	castleRook [4]Square

	// castleMask[sq] holds the rights lost when a move leaves or lands on sq.
	castleMask [64]CastlingRights

	chess960 bool

	// En-passant target square; only set when a pawn of the side to move can capture there.
	enPassant Square

	// Half-moves since the last capture or pawn move.
	halfmoveClock int

	// Starts at 1, incremented after Black's move.
	fullmoveNumber int

	key uint64
}

// SideToMove reports which side is to play.
func (p *Position) SideToMove() Color { return p.sideToMove }

// Hash returns the Zobrist key of the position.
func (p *Position) Hash() uint64 { return p.key }

func (p *Position) CastlingRights() CastlingRights { return p.castlingRights }
func (p *Position) EnPassantSquare() Square { return p.enPassant }
func (p *Position) HalfmoveClock() int { return p.halfmoveClock }
func (p *Position) FullmoveNumber() int { return p.fullmoveNumber }

// Chess960 reports whether castling moves are encoded king-to-rook.
func (p *Position) Chess960() bool { return p.chess960 }

// SetChess960 switches the castling move encoding. Standard start positions
// played under Chess960 rules use it; the placement is not touched.
func (p *Position) SetChess960(on bool) { p.chess960 = on }

// PieceAt returns the piece on sq.
func (p *Position) PieceAt(sq Square) Piece { return p.board[sq] }

// Pieces returns the bitboard of the given side and type.
func (p *Position) Pieces(c Color, pt PieceType) uint64 { return p.pieces[c][pt] }

// PiecesOfType returns the bitboard of a type for both sides.
func (p *Position) PiecesOfType(pt PieceType) uint64 { return p.pieces[White][pt] | p.pieces[Black][pt] }

// Occupancy returns the squares occupied by side c.
func (p *Position) Occupancy(c Color) uint64 { return p.occupancy[c] }

// AllOccupancy returns every occupied square.
func (p *Position) AllOccupancy() uint64 { return p.occupancy[White] | p.occupancy[Black] }

// KingSquare returns the square of side c's king, or NoSquare.
func (p *Position) KingSquare(c Color) Square {
	k := p.pieces[c][PieceTypeKing]
	if k == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(k))
}

// CastleRookSquare returns the start square of the rook used by castling right r.
func (p *Position) CastleRookSquare(r CastlingRights) Square {
	return p.castleRook[bits.TrailingZeros8(uint8(r))]
}

// HasNonPawnMaterial reports whether side c owns a knight, bishop, rook or queen.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	own := p.pieces[c]
	return own[PieceTypeKnight]|own[PieceTypeBishop]|own[PieceTypeRook]|own[PieceTypeQueen] != 0
}

// Copy returns an independent copy of the position.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// ==========================
// Bitboard helpers
// ==========================

func bb(sq Square) uint64 { return 1 << uint(sq) }

func popLSB(mask *uint64) Square {
	idx := bits.TrailingZeros64(*mask)
	*mask &= *mask - 1
	return Square(idx)
}

// ==========================
// Placement primitives
// ==========================

// addPiece places a piece on an empty square, keeping bitboards and key in sync.
func (p *Position) addPiece(sq Square, pc Piece) {
	c := pc.Color()
	p.board[sq] = pc
	p.pieces[c][pc.Type()] |= bb(sq)
	p.occupancy[c] |= bb(sq)
	p.key ^= zobristPiece[pc][sq]
}

// removePiece lifts whatever stands on sq and returns it.
func (p *Position) removePiece(sq Square) Piece {
	pc := p.board[sq]
	if pc == NoPiece {
		return NoPiece
	}
	c := pc.Color()
	p.board[sq] = NoPiece
	p.pieces[c][pc.Type()] &^= bb(sq)
	p.occupancy[c] &^= bb(sq)
	p.key ^= zobristPiece[pc][sq]
	return pc
}

// movePiece relocates a piece between two squares; the destination must be empty.
func (p *Position) movePiece(from, to Square) {
	pc := p.board[from]
	c := pc.Color()
	fromTo := bb(from) | bb(to)
	p.board[from] = NoPiece
	p.board[to] = pc
	p.pieces[c][pc.Type()] ^= fromTo
	p.occupancy[c] ^= fromTo
	p.key ^= zobristPiece[pc][from] ^ zobristPiece[pc][to]
}

// Validate cross-checks the mailbox, the bitboards and the Zobrist key.
func (p *Position) Validate() bool {
	var pieces [2][7]uint64
	var occ [2]uint64
	for sq := Square(0); sq < 64; sq++ {
		pc := p.board[sq]
		if pc == NoPiece {
			continue
		}
		pieces[pc.Color()][pc.Type()] |= bb(sq)
		occ[pc.Color()] |= bb(sq)
	}
	if pieces != p.pieces || occ != p.occupancy {
		return false
	}
	if occ[White]&occ[Black] != 0 {
		return false
	}
	return p.key == p.ComputeZobrist()
}

// ==========================
// Game helpers
// ==========================

// IsDrawByRepetition reports threefold repetition of the current position,
// counting its occurrences in history plus the current occurrence.
// history may end with the current key; it is not counted twice.
func (p *Position) IsDrawByRepetition(history []uint64) bool {
	end := len(history)
	if end > 0 && history[end-1] == p.key {
		end--
	}
	// Positions before the last irreversible move cannot repeat.
	start := end - p.halfmoveClock
	if start < 0 {
		start = 0
	}
	matches := 0
	for i := start; i < end; i++ {
		if history[i] == p.key {
			matches++
			if matches >= 2 {
				return true
			}
		}
	}
	return false
}

// PushMove plays a legal move, records its undo state and the resulting key.
// It returns ErrIllegalMove and changes nothing when m is not legal.
func (p *Position) PushMove(m Move, stack *[]MoveState, history *[]uint64) error {
	st, err := p.Play(m)
	if err != nil {
		return err
	}
	*stack = append(*stack, st)
	*history = append(*history, p.key)
	return nil
}

// PopMove undoes the last PushMove. It panics on an empty stack.
func (p *Position) PopMove(stack *[]MoveState, history *[]uint64) {
	n := len(*stack)
	if n == 0 {
		panic("chessmg: PopMove on empty stack")
	}
	st := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	p.UnmakeMove(st.move, st)
	if len(*history) > 0 {
		*history = (*history)[:len(*history)-1]
	}
}
