package engine

import "goosechess/chessmg"

type KillerStruct struct {
	KillerMoves [MaxPly + 1][2]chessmg.Move
}

// InsertKiller records a quiet move that caused a cutoff at ply.
func (k *KillerStruct) InsertKiller(move chessmg.Move, ply int) {
	if move != k.KillerMoves[ply][0] {
		k.KillerMoves[ply][1] = k.KillerMoves[ply][0]
		k.KillerMoves[ply][0] = move
	}
}

// IsKiller reports which slot holds move, 0 or 1, or -1.
func (k *KillerStruct) IsKiller(move chessmg.Move, ply int) int {
	switch move {
	case chessmg.NullMove:
		return -1
	case k.KillerMoves[ply][0]:
		return 0
	case k.KillerMoves[ply][1]:
		return 1
	}
	return -1
}
