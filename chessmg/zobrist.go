package chessmg

import "math/rand"

var (
	zobristPiece     [16][64]uint64 // indexed by piece code
	zobristCastle    [16]uint64     // one key per castling-rights set
	zobristEnPassant [8]uint64      // per en-passant file
	zobristSide      uint64         // Black to move
)

func init() {
	initZobrist()
}

func initZobrist() {
	// Fixed seed keeps keys (and hence TT behaviour) reproducible between runs.
	rnd := rand.New(rand.NewSource(0xC0DE))

	for pc := range zobristPiece {
		for sq := range zobristPiece[pc] {
			zobristPiece[pc][sq] = rnd.Uint64()
		}
	}
	for cr := range zobristCastle {
		zobristCastle[cr] = rnd.Uint64()
	}
	for f := range zobristEnPassant {
		zobristEnPassant[f] = rnd.Uint64()
	}
	zobristSide = rnd.Uint64()
}

// ComputeZobrist recomputes the key from scratch.
func (p *Position) ComputeZobrist() uint64 {
	var key uint64
	for sq := Square(0); sq < 64; sq++ {
		if pc := p.board[sq]; pc != NoPiece {
			key ^= zobristPiece[pc][sq]
		}
	}
	if p.sideToMove == Black {
		key ^= zobristSide
	}
	key ^= zobristCastle[p.castlingRights]
	if p.enPassant != NoSquare {
		key ^= zobristEnPassant[p.enPassant.File()]
	}
	return key
}
