package engine

import "fmt"

// Plies a single search line may reach, extensions and quiescence included.
const MaxPly = 128

// Deepest iteration the driver starts.
const MaxDepth = 100

// LMR tuning
var LMRDepthLimit int8 = 3
var LMRMoveLimit = 3
var LMRHistoryReductionScale int32 = 4000
var LMRHistoryLowThreshold int32 = -2000
var LMRLegalMovesLimit = 12

// Taken from Blunder chess engine and just slightly modified; works great though :)
func getMateOrCPScore(score int32) string {
	mateValue := MaxScore
	mateThreshold := Checkmate

	if score >= mateThreshold {
		pliesToMate := Max(mateValue-score, 0)
		mateInN := (pliesToMate + 1) / 2
		return fmt.Sprintf("mate %d", mateInN)
	} else if score <= -mateThreshold {
		pliesToMate := Max(mateValue+score, 0) // score is negative here
		mateInN := (pliesToMate + 1) / 2
		return fmt.Sprintf("mate %d", -mateInN)
	}

	return fmt.Sprintf("cp %d", score)
}

// FormatScore renders a search score the way UCI "info score" expects.
func FormatScore(score int) string { return getMateOrCPScore(int32(score)) }

// IsMateScore reports whether score encodes a forced mate for either side.
func IsMateScore(score int) bool { return Abs(score) > int(Checkmate) }

func computeLMRReduction(
	depth int8,
	legalMoves int,
	isPVNode bool,
	historyScore int32,
	improving bool,
	isKiller bool,
) int8 {
	// No reduction in these cases
	if depth < LMRDepthLimit || legalMoves < LMRMoveLimit {
		return 0
	}

	// Clamp depth index into LMR table
	d := Clamp(int(depth), 0, len(LMR)-1)
	row := LMR[d]
	m := Clamp(legalMoves-1, 0, len(row)-1)

	r := row[m]

	if isPVNode && r > 0 {
		r--
	}
	if isKiller && r > 0 {
		r--
	}
	if !improving {
		r++
	}

	// History bonus: good moves get less reduction
	if r > 0 && historyScore > 0 {
		bonus := int8(Min(historyScore/LMRHistoryReductionScale, 2))
		r -= Min(bonus, r)
	}

	// Really bad late moves get a bit more reduction
	if historyScore <= LMRHistoryLowThreshold && legalMoves > LMRLegalMovesLimit {
		r++
	}

	// Never drop straight into quiescence from a reduced search.
	return Clamp(r, 0, depth-2)
}
