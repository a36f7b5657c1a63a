package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"goosechess/eval"
)

// TTPolicy selects how a store picks and overwrites a slot in its cluster.
type TTPolicy int

const (
	// ReplaceAgedDepth keeps a deeper entry only while it belongs to the
	// current search; entries from older searches are always replaceable.
	ReplaceAgedDepth TTPolicy = iota

	// ReplaceDepthPreferred never overwrites a deeper entry, whatever its age.
	ReplaceDepthPreferred

	// ReplaceAlways overwrites unconditionally.
	ReplaceAlways
)

var ttPolicyNames = [...]string{
	ReplaceAgedDepth:      "aged-depth",
	ReplaceDepthPreferred: "depth-preferred",
	ReplaceAlways:         "always-replace",
}

func (p TTPolicy) String() string {
	if p < 0 || int(p) >= len(ttPolicyNames) {
		return fmt.Sprintf("TTPolicy(%d)", int(p))
	}
	return ttPolicyNames[p]
}

// ParseTTPolicy accepts the names printed by TTPolicy.String.
func ParseTTPolicy(s string) (TTPolicy, error) {
	for i, name := range ttPolicyNames {
		if strings.EqualFold(s, name) {
			return TTPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown TT policy %q", s)
}

// Options configures an Engine. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	HashMB       int
	Threads      int
	TTPolicy     TTPolicy
	Evaluator    eval.Kind
	EvalFile     string
	BookFile     string
	MoveOverhead time.Duration

	// Chess960 renders castling as king-takes-rook.
	Chess960 bool

	MaxDepth int
}

const (
	DefaultHashMB   = 64
	MaxHashMB       = 4096
	MaxThreads      = 256
	DefaultOverhead = 30 * time.Millisecond
)

func DefaultOptions() Options {
	return Options{
		HashMB:       DefaultHashMB,
		Threads:      1,
		TTPolicy:     ReplaceAgedDepth,
		Evaluator:    eval.KindPSQT,
		MoveOverhead: DefaultOverhead,
		MaxDepth:     MaxDepth,
	}
}

// Option names as they appear in "setoption name <X> value <Y>".
const (
	OptHash         = "Hash"
	OptThreads      = "Threads"
	OptTTPolicy     = "TTPolicy"
	OptEvaluator    = "Evaluator"
	OptEvalFile     = "EvalFile"
	OptBookFile     = "BookFile"
	OptMoveOverhead = "MoveOverhead"
	OptChess960     = "UCI_Chess960"
	OptMaxDepth     = "MaxDepth"
)

// apply parses value into the named field. Names are matched case-insensitively.
func (o *Options) apply(name, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(name) {
	case strings.ToLower(OptHash):
		n, err := parseIntIn(value, 1, MaxHashMB)
		if err != nil {
			return fmt.Errorf("option %s: %w", OptHash, err)
		}
		o.HashMB = n
	case strings.ToLower(OptThreads):
		n, err := parseIntIn(value, 1, MaxThreads)
		if err != nil {
			return fmt.Errorf("option %s: %w", OptThreads, err)
		}
		o.Threads = n
	case strings.ToLower(OptTTPolicy):
		p, err := ParseTTPolicy(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", OptTTPolicy, err)
		}
		o.TTPolicy = p
	case strings.ToLower(OptEvaluator):
		k := eval.Kind(strings.ToLower(value))
		if k != eval.KindPSQT && k != eval.KindNNUE {
			return fmt.Errorf("option %s: unknown evaluator %q", OptEvaluator, value)
		}
		o.Evaluator = k
	case strings.ToLower(OptEvalFile):
		o.EvalFile = value
	case strings.ToLower(OptBookFile):
		o.BookFile = value
	case strings.ToLower(OptMoveOverhead):
		n, err := parseIntIn(value, 0, 5000)
		if err != nil {
			return fmt.Errorf("option %s: %w", OptMoveOverhead, err)
		}
		o.MoveOverhead = time.Duration(n) * time.Millisecond
	case strings.ToLower(OptChess960):
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", OptChess960, err)
		}
		o.Chess960 = b
	case strings.ToLower(OptMaxDepth):
		n, err := parseIntIn(value, 1, MaxDepth)
		if err != nil {
			return fmt.Errorf("option %s: %w", OptMaxDepth, err)
		}
		o.MaxDepth = n
	default:
		return fmt.Errorf("unknown option %q", name)
	}
	return nil
}

func parseIntIn(s string, low, high int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < low || n > high {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, low, high)
	}
	return n, nil
}
