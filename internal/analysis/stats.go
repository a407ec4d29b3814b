package analysis

import "cribbage/internal/domain"

// Stats summarizes a score distribution.
type Stats struct {
	Min       int              `json:"min"`
	Max       int              `json:"max"`
	Avg       float64          `json:"avg"`
	Breakdown AverageBreakdown `json:"breakdown"`
}

// AverageBreakdown is a ScoreBreakdown averaged over many samples.
type AverageBreakdown struct {
	Fifteens float64 `json:"fifteens"`
	Pairs    float64 `json:"pairs"`
	Runs     float64 `json:"runs"`
	Flush    float64 `json:"flush"`
	Nobs     float64 `json:"nobs"`
	Total    float64 `json:"total"`
}

type accumulator struct {
	n        int
	min, max int
	sum      domain.ScoreBreakdown
}

func newAccumulator() *accumulator {
	return &accumulator{min: 999}
}

func (a *accumulator) add(s domain.ScoreBreakdown) {
	a.n++
	if s.Total < a.min {
		a.min = s.Total
	}
	if s.Total > a.max {
		a.max = s.Total
	}
	a.sum.Fifteens += s.Fifteens
	a.sum.Pairs += s.Pairs
	a.sum.Runs += s.Runs
	a.sum.Flush += s.Flush
	a.sum.Nobs += s.Nobs
	a.sum.Total += s.Total
}

func (a *accumulator) stats() Stats {
	if a.n == 0 {
		return Stats{}
	}
	n := float64(a.n)
	return Stats{
		Min: a.min,
		Max: a.max,
		Avg: float64(a.sum.Total) / n,
		Breakdown: AverageBreakdown{
			Fifteens: float64(a.sum.Fifteens) / n,
			Pairs:    float64(a.sum.Pairs) / n,
			Runs:     float64(a.sum.Runs) / n,
			Flush:    float64(a.sum.Flush) / n,
			Nobs:     float64(a.sum.Nobs) / n,
			Total:    float64(a.sum.Total) / n,
		},
	}
}
