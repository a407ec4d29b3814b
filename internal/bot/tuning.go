package bot

// PeggingTuning holds the tactical adjustments layered on top of immediate pegging points.
type PeggingTuning struct {
	// DangerTotals are running totals that hand the next player an easy 15 or 31.
	DangerTotals    []int
	DangerPenalty   int
	LeadFivePenalty int
	LeadFourBonus   int
	// PairTrapBonus rewards playing a rank we hold again, setting up a pair royal.
	PairTrapBonus int
}

// DefaultPeggingTuning is the heuristic used by every bot level that pegs tactically.
var DefaultPeggingTuning = PeggingTuning{
	DangerTotals:    []int{5, 21},
	DangerPenalty:   2,
	LeadFivePenalty: 2,
	LeadFourBonus:   1,
	PairTrapBonus:   1,
}
