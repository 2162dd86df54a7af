package fund

import "math"

const monthsPerYear = 12

// ComputeReturnStats derives the summary statistics of a monthly return
// series given in percent.
func ComputeReturnStats(monthly []Point) ReturnStats {
	n := len(monthly)
	if n == 0 {
		return ReturnStats{}
	}

	var sum, positive float64
	maxR, minR := math.Inf(-1), math.Inf(1)
	for _, p := range monthly {
		sum += p.Value
		if p.Value > 0 {
			positive++
		}
		maxR = math.Max(maxR, p.Value)
		minR = math.Min(minR, p.Value)
	}
	mean := sum / float64(n)

	var variance float64
	if n > 1 {
		for _, p := range monthly {
			d := p.Value - mean
			variance += d * d
		}
		variance /= float64(n - 1)
	}
	monthlyVol := math.Sqrt(variance)

	growth := 1.0
	for _, p := range monthly {
		growth *= 1 + p.Value/100
	}
	annualized := (math.Pow(growth, monthsPerYear/float64(n)) - 1) * 100
	annualVol := monthlyVol * math.Sqrt(monthsPerYear)

	var sharpe float64
	if annualVol > 0 {
		sharpe = annualized / annualVol
	}

	return ReturnStats{
		Months:              n,
		MeanMonthlyPct:      round(mean, 3),
		AnnualizedReturnPct: round(annualized, 2),
		AnnualizedVolPct:    round(annualVol, 2),
		Sharpe:              round(sharpe, 2),
		MaxReturnPct:        round(maxR, 2),
		MinReturnPct:        round(minR, 2),
		PctPositiveMonths:   round(positive/float64(n)*100, 1),
		MaxDrawdownPct:      round(MaxDrawdown(Compound(monthly, 100)), 2),
	}
}

// Compound turns monthly returns in percent into an index starting at base.
func Compound(monthly []Point, base float64) []Point {
	out := make([]Point, len(monthly))
	level := base
	for i, p := range monthly {
		level *= 1 + p.Value/100
		out[i] = Point{Date: p.Date, Value: round(level, 4)}
	}
	return out
}

// Drawdowns returns the percentage distance of each index level from its
// running peak.
func Drawdowns(index []Point) []Point {
	out := make([]Point, len(index))
	peak := math.Inf(-1)
	for i, p := range index {
		peak = math.Max(peak, p.Value)
		var dd float64
		if peak > 0 {
			dd = (p.Value/peak - 1) * 100
		}
		out[i] = Point{Date: p.Date, Value: dd}
	}
	return out
}

// MaxDrawdown is the deepest drawdown of index in percent (zero or negative).
func MaxDrawdown(index []Point) float64 {
	worst := 0.0
	for _, p := range Drawdowns(index) {
		worst = math.Min(worst, p.Value)
	}
	return worst
}

// RollingReturns compounds each trailing window of monthly returns.
func RollingReturns(monthly []Point, window int) []Point {
	if window <= 0 || len(monthly) < window {
		return nil
	}
	out := make([]Point, 0, len(monthly)-window+1)
	for end := window; end <= len(monthly); end++ {
		growth := 1.0
		for _, p := range monthly[end-window : end] {
			growth *= 1 + p.Value/100
		}
		out = append(out, Point{Date: monthly[end-1].Date, Value: round((growth-1)*100, 2)})
	}
	return out
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
