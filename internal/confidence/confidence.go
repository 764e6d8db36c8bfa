// Package confidence scores an aggregated forecast's reliability from
// statistical spread, model agreement, and forecast horizon, composing
// piecewise-linear factor functions into a single [0,1] score and a
// three-level bucket.
package confidence

import "github.com/weather-oracle/oracle/internal/domain"

// Weights are the static composition weights; spread dominates, then
// agreement, then horizon.
type Weights struct {
	Spread    float64
	Agreement float64
	Horizon   float64
}

// DefaultWeights weight spread most heavily, then agreement, then horizon.
var DefaultWeights = Weights{Spread: 0.5, Agreement: 0.3, Horizon: 0.2}

// lerp performs linear interpolation of x between (x0,y0) and (x1,y1),
// clamped to [y1,y0] (or [y0,y1] if y1 > y0) outside the domain.
func lerp(x, x0, y0, x1, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return y0 + t*(y1-y0)
}

// FromSpread maps a standard deviation to [0,1]: 1.0 at or below
// highThr, 0.3 at or above lowThr, linear in between.
func FromSpread(stdDev, highThr, lowThr float64) float64 {
	return lerp(stdDev, highThr, 1.0, lowThr, 0.3)
}

// FromRange applies the same shape as FromSpread to a max-min range.
func FromRange(rangeVal, highThr, lowThr float64) float64 {
	return lerp(rangeVal, highThr, 1.0, lowThr, 0.3)
}

// FromTimeHorizon decreases 0.05 per day ahead of the present, floored at
// 0.5 from day 10 onward.
func FromTimeHorizon(daysAhead float64) float64 {
	v := 1.0 - 0.05*daysAhead
	if v < 0.5 {
		v = 0.5
	}
	return v
}

// FromAgreement maps the fraction of non-outlier models into [0.3, 1.0].
func FromAgreement(modelsInAgreement, total int) float64 {
	if total == 0 {
		return 0.3
	}
	return 0.3 + 0.7*(float64(modelsInAgreement)/float64(total))
}

func level(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

// Level exposes the score-to-bucket mapping for callers (the aggregator's
// overall-confidence rollup) that derive a level from an already-composed
// score rather than calling Score itself.
func Level(score float64) string { return level(score) }

// Inputs bundles the raw signals Score composes.
type Inputs struct {
	SpreadStdDev      float64
	SpreadHighThr     float64
	SpreadLowThr      float64
	ModelsInAgreement int
	TotalModels       int
	DaysAhead         float64
	// SingleModel forces the spread factor to its minimum score rather
	// than a misleadingly perfect one: a single series has no spread to
	// measure agreement from.
	SingleModel bool
}

// Score composes the spread, agreement and time-horizon factor functions
// with the given weights into a
// ConfidenceLevel plus per-factor explainability.
func Score(in Inputs, w Weights) domain.ConfidenceLevel {
	spreadScore := FromSpread(in.SpreadStdDev, in.SpreadHighThr, in.SpreadLowThr)
	if in.SingleModel {
		spreadScore = 0
	}
	agreementScore := FromAgreement(in.ModelsInAgreement, in.TotalModels)
	horizonScore := FromTimeHorizon(in.DaysAhead)

	factors := []domain.ConfidenceFactor{
		{Name: "spread", Weight: w.Spread, Score: spreadScore, Contribution: w.Spread * spreadScore,
			Detail: "statistical spread of per-model values at this timestep"},
		{Name: "agreement", Weight: w.Agreement, Score: agreementScore, Contribution: w.Agreement * agreementScore,
			Detail: "fraction of contributing models not flagged as outliers"},
		{Name: "horizon", Weight: w.Horizon, Score: horizonScore, Contribution: w.Horizon * horizonScore,
			Detail: "forecast lead time in days"},
	}

	var total float64
	for _, f := range factors {
		total += f.Contribution
	}

	return domain.ConfidenceLevel{
		Score:        total,
		Level:        level(total),
		Contributors: factors,
	}
}
