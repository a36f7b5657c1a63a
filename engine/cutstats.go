package engine

import "github.com/rs/zerolog"

// CutStatistics collects counts for each pruning/cutoff mechanism.
type CutStatistics struct {
	TTCutoffs         uint64
	NullMoveCutoffs   uint64
	StaticNullCutoffs uint64
	FutilityPrunes    uint64
	LateMovePrunes    uint64
	BetaCutoffs       uint64
	QStandPatCutoffs  uint64
	QBetaCutoffs      uint64
	QSeePrunes        uint64
}

func (cs *CutStatistics) add(o *CutStatistics) {
	cs.TTCutoffs += o.TTCutoffs
	cs.NullMoveCutoffs += o.NullMoveCutoffs
	cs.StaticNullCutoffs += o.StaticNullCutoffs
	cs.FutilityPrunes += o.FutilityPrunes
	cs.LateMovePrunes += o.LateMovePrunes
	cs.BetaCutoffs += o.BetaCutoffs
	cs.QStandPatCutoffs += o.QStandPatCutoffs
	cs.QBetaCutoffs += o.QBetaCutoffs
	cs.QSeePrunes += o.QSeePrunes
}

// MarshalZerologObject lets the statistics be attached to a log event.
func (cs *CutStatistics) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("tt", cs.TTCutoffs).
		Uint64("null_move", cs.NullMoveCutoffs).
		Uint64("static_null", cs.StaticNullCutoffs).
		Uint64("futility", cs.FutilityPrunes).
		Uint64("late_move", cs.LateMovePrunes).
		Uint64("beta", cs.BetaCutoffs).
		Uint64("q_stand_pat", cs.QStandPatCutoffs).
		Uint64("q_beta", cs.QBetaCutoffs).
		Uint64("q_see", cs.QSeePrunes)
}

func dumpCutStats(log zerolog.Logger, cs *CutStatistics) {
	log.Debug().Object("cuts", cs).Msg("cut statistics")
}
