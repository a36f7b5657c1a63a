package eval

import (
	"math/rand"

	"goosechess/chessmg"
)

const (
	// 2 sides, 6 pieces, 64 squares.
	InputSize = 768

	// One hidden layer.
	HiddenSize = 128

	// Scale maps the network output to centipawns.
	Scale = 400

	// Quantisation of the hidden activation (clipped ReLU ceiling) and of
	// the output weights.
	QA = 255
	QB = 64
)

// Network holds the immutable weights. It is shared read-only between all
// evaluators cloned from the same NNUE.
type Network struct {
	// AccWeights[feature*HiddenSize+i] feeds hidden node i.
	AccWeights [InputSize * HiddenSize]int16
	AccBiases  [HiddenSize]int16
	OutWeights [HiddenSize]int16
	OutBias    int32
}

// featureIndex numbers (color, piece type, square) inputs as color*384 + type*64 + square.
func featureIndex(pc chessmg.Piece, sq chessmg.Square) int {
	return int(pc.Color())*6*64 + int(pc.Type()-1)*64 + int(sq)
}

// RandomNetwork returns a network with small deterministic weights. It has no
// playing strength and exists for tests and benchmarks.
func RandomNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	net := &Network{}
	for i := range net.AccWeights {
		net.AccWeights[i] = int16(rng.Intn(17) - 8)
	}
	for i := range net.AccBiases {
		net.AccBiases[i] = int16(rng.Intn(65))
	}
	for i := range net.OutWeights {
		net.OutWeights[i] = int16(rng.Intn(33) - 16)
	}
	net.OutBias = int32(rng.Intn(129) - 64)
	return net
}

type accumulator [HiddenSize]int32

// NNUE evaluates with an accumulator stack: every Push derives the child's
// hidden-layer inputs from the parent's by adding and removing the few
// features the move touches.
type NNUE struct {
	net   *Network
	stack []accumulator
	top   int
}

// NewNNUE returns an evaluator over net. Refresh must be called before the
// first Evaluate.
func NewNNUE(net *Network) *NNUE {
	return &NNUE{net: net, stack: make([]accumulator, 128)}
}

// Network returns the shared weights.
func (e *NNUE) Network() *Network { return e.net }

func (e *NNUE) Clone() Evaluator { return NewNNUE(e.net) }

// Refresh rebuilds the bottom accumulator from the full placement.
func (e *NNUE) Refresh(pos *chessmg.Position) {
	e.top = 0
	acc := &e.stack[0]
	for i := range acc {
		acc[i] = int32(e.net.AccBiases[i])
	}
	for sq := chessmg.Square(0); sq < 64; sq++ {
		if pc := pos.PieceAt(sq); pc != chessmg.NoPiece {
			e.add(acc, pc, sq)
		}
	}
}

func (e *NNUE) add(acc *accumulator, pc chessmg.Piece, sq chessmg.Square) {
	w := e.net.AccWeights[featureIndex(pc, sq)*HiddenSize:][:HiddenSize]
	for i := range acc {
		acc[i] += int32(w[i])
	}
}

func (e *NNUE) sub(acc *accumulator, pc chessmg.Piece, sq chessmg.Square) {
	w := e.net.AccWeights[featureIndex(pc, sq)*HiddenSize:][:HiddenSize]
	for i := range acc {
		acc[i] -= int32(w[i])
	}
}

// Push derives the accumulator after m from the current one. pos is the
// position before m is made. A NullMove pushes an unchanged copy.
func (e *NNUE) Push(pos *chessmg.Position, m chessmg.Move) {
	if e.top+1 >= len(e.stack) {
		e.stack = append(e.stack, make([]accumulator, len(e.stack))...)
	}
	e.stack[e.top+1] = e.stack[e.top]
	e.top++
	if m == chessmg.NullMove {
		return
	}
	acc := &e.stack[e.top]
	from, to := m.From(), m.To()
	pc := m.MovedPiece()

	switch {
	case m.IsCastle():
		kingTo, rookFrom, rookTo := pos.CastleSquares(m)
		rook := pos.PieceAt(rookFrom)
		e.sub(acc, pc, from)
		e.sub(acc, rook, rookFrom)
		e.add(acc, pc, kingTo)
		e.add(acc, rook, rookTo)
	case m.IsEnPassant():
		capSq := to - 8
		if pc.Color() == chessmg.Black {
			capSq = to + 8
		}
		e.sub(acc, pc, from)
		e.add(acc, pc, to)
		e.sub(acc, m.CapturedPiece(), capSq)
	default:
		e.sub(acc, pc, from)
		if m.IsCapture() {
			e.sub(acc, m.CapturedPiece(), to)
		}
		if promo := m.Promotion(); promo != chessmg.PieceTypeNone {
			e.add(acc, chessmg.MakePiece(pc.Color(), promo), to)
		} else {
			e.add(acc, pc, to)
		}
	}
}

func (e *NNUE) Pop() {
	if e.top > 0 {
		e.top--
	}
}

// forward runs the output layer on the current accumulator and returns the
// White-relative score in centipawns.
func (e *NNUE) forward() int {
	acc := &e.stack[e.top]
	var sum int64
	for i := range acc {
		v := acc[i]
		if v < 0 {
			v = 0
		} else if v > QA {
			v = QA
		}
		sum += int64(v) * int64(e.net.OutWeights[i])
	}
	sum += int64(e.net.OutBias)
	return int(sum * Scale / (QA * QB))
}

// Evaluate returns the side-to-move relative score.
func (e *NNUE) Evaluate(pos *chessmg.Position) int {
	score := e.forward()
	if pos.SideToMove() == chessmg.Black {
		score = -score
	}
	return clampEval(score)
}
