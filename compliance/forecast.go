/*
forecast.go - Compliance trend projection

PURPOSE:
  Extrapolates the historical snapshot series into future periods. The
  model is ordinary least squares over the trailing window - deliberately
  simple, fully deterministic, and documented here rather than a black
  box:

    percent_k = intercept + slope * k

  where k indexes snapshots in the trailing window. Projected percentages
  are clamped to [0, 100].

CONFIDENCE:
  Each projected point carries a confidence band derived from the standard
  deviation of the regression residuals, widening linearly with forecast
  distance (band half-width = residual stddev * steps ahead, floored at
  one point). A history of length 0 or 1 cannot support a trend: the
  forecaster returns a flat projection flagged LowConfidence instead of
  failing.

BOUNDS:
  Both the trailing window (MaxForecastHistory) and the horizon
  (MaxForecastPeriods) are capped by policy so worst-case cost stays
  linear and small.

SEE ALSO:
  - calculator.go: StatusFor maps projected percentages onto statuses
  - engine.go: ForecastCompliance loads history and calls this
*/
package compliance

import (
	"math"

	"github.com/shopspring/decimal"
)

// ProjectedSnapshot is one future point of a compliance forecast.
type ProjectedSnapshot struct {
	Period int // 1-based steps ahead of the last snapshot
	AsOf   Date

	Percent decimal.Decimal
	Status  ComplianceStatus

	// Confidence band half-widths in percentage points. The band widens
	// with forecast distance.
	ConfidenceLow  decimal.Decimal
	ConfidenceHigh decimal.Decimal

	LowConfidence bool
}

// Forecaster projects compliance history forward.
type Forecaster struct {
	Policy Policy
}

// Forecast projects `periods` future points from the snapshot history,
// which must be ordered oldest-first. The organization supplies the
// threshold used to label projected statuses.
func (f Forecaster) Forecast(org Organization, history []ComplianceSnapshot, periods int) ([]ProjectedSnapshot, error) {
	if periods <= 0 {
		return nil, &InvalidInputError{Field: "periods", Reason: "must be positive"}
	}
	if periods > f.Policy.MaxForecastPeriods {
		periods = f.Policy.MaxForecastPeriods
	}
	if len(history) > f.Policy.MaxForecastHistory {
		history = history[len(history)-f.Policy.MaxForecastHistory:]
	}

	threshold := org.EffectiveThreshold(f.Policy)
	calc := Calculator{Policy: f.Policy}

	// Degenerate histories project flat.
	if len(history) <= 1 {
		level := decimal.Zero
		anchor := Today()
		if len(history) == 1 {
			level = history[0].Percent
			anchor = history[0].AsOf
		}
		out := make([]ProjectedSnapshot, periods)
		for k := 1; k <= periods; k++ {
			out[k-1] = ProjectedSnapshot{
				Period:         k,
				AsOf:           anchor.AddDays(k * defaultCadenceDays),
				Percent:        level,
				Status:         calc.StatusFor(level, threshold),
				ConfidenceLow:  clampPercent(level.Sub(decimal.NewFromInt(int64(k)))),
				ConfidenceHigh: clampPercent(level.Add(decimal.NewFromInt(int64(k)))),
				LowConfidence:  true,
			}
		}
		return out, nil
	}

	slope, intercept := fitTrend(history)
	residual := residualStddev(history, slope, intercept)
	cadence := cadenceDays(history)
	last := history[len(history)-1].AsOf
	n := len(history)

	out := make([]ProjectedSnapshot, periods)
	for k := 1; k <= periods; k++ {
		x := decimal.NewFromInt(int64(n - 1 + k))
		percent := clampPercent(intercept.Add(slope.Mul(x)))

		// Band half-width widens linearly with distance, never below 1pt.
		half := residual.Mul(decimal.NewFromInt(int64(k)))
		if half.LessThan(decimal.NewFromInt(1)) {
			half = decimal.NewFromInt(1)
		}

		out[k-1] = ProjectedSnapshot{
			Period:         k,
			AsOf:           last.AddDays(k * cadence),
			Percent:        percent,
			Status:         calc.StatusFor(percent, threshold),
			ConfidenceLow:  clampPercent(percent.Sub(half)),
			ConfidenceHigh: clampPercent(percent.Add(half)),
		}
	}
	return out, nil
}

const defaultCadenceDays = 30

// cadenceDays infers the snapshot cadence from the average day gap.
func cadenceDays(history []ComplianceSnapshot) int {
	span := DaysBetween(history[0].AsOf, history[len(history)-1].AsOf)
	gaps := len(history) - 1
	if gaps <= 0 || span <= 0 {
		return defaultCadenceDays
	}
	return span / gaps
}

// fitTrend runs ordinary least squares of percent against snapshot index.
func fitTrend(history []ComplianceSnapshot) (slope, intercept decimal.Decimal) {
	n := decimal.NewFromInt(int64(len(history)))

	var sumX, sumY, sumXY, sumXX decimal.Decimal
	for i, s := range history {
		x := decimal.NewFromInt(int64(i))
		sumX = sumX.Add(x)
		sumY = sumY.Add(s.Percent)
		sumXY = sumXY.Add(x.Mul(s.Percent))
		sumXX = sumXX.Add(x.Mul(x))
	}

	denom := n.Mul(sumXX).Sub(sumX.Mul(sumX))
	if denom.IsZero() {
		return decimal.Zero, sumY.Div(n)
	}
	slope = n.Mul(sumXY).Sub(sumX.Mul(sumY)).Div(denom)
	intercept = sumY.Sub(slope.Mul(sumX)).Div(n)
	return slope, intercept
}

// residualStddev measures how far the history strays from the fitted
// line. Computed through float64: the band is an indicator, not ledger
// arithmetic, and the inputs are the same every run so the result is
// still deterministic.
func residualStddev(history []ComplianceSnapshot, slope, intercept decimal.Decimal) decimal.Decimal {
	var sumSq float64
	for i, s := range history {
		fitted := intercept.Add(slope.Mul(decimal.NewFromInt(int64(i))))
		r, _ := s.Percent.Sub(fitted).Float64()
		sumSq += r * r
	}
	return decimal.NewFromFloat(math.Sqrt(sumSq / float64(len(history))))
}

func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
