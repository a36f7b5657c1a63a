package engine

func init() {
	InitLMRTable()
}

// LMR[depth][movesSearched] is the base late-move reduction.
var LMR = [MaxDepth + 1][100]int8{}

func InitLMRTable() {
	for d := 1; d < len(LMR); d++ {
		for m := 1; m < len(LMR[d]); m++ {
			r := 1 + d/8 + m/16 // gentle growth with depth & lateness
			if r > d-2 {
				r = d - 2
			} // keep depth-1-r >= 1
			if r < 0 {
				r = 0
			}
			LMR[d][m] = int8(r)
		}
	}
}
