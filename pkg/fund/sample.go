package fund

import (
	"fmt"
	"math"
)

// Built-in sample fund ids.
const (
	SampleAlphaAggressive = "alpha_aggressive"
	SampleHorizonIncome   = "horizon_income"
)

const sampleMonths = 36

// SampleProfiles returns freshly built copies of the built-in sample funds.
func SampleProfiles() []*Profile {
	return []*Profile{alphaAggressive(), horizonIncome()}
}

func sampleDates(n int) []string {
	dates := make([]string, n)
	year, month := 2022, 1
	for i := 0; i < n; i++ {
		dates[i] = fmt.Sprintf("%04d-%02d", year, month)
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return dates
}

// waveSeries is a deterministic stand-in for market returns.
func waveSeries(dates []string, drift, amp, freq, phase float64) []Point {
	out := make([]Point, len(dates))
	for i, d := range dates {
		v := drift + amp*math.Sin(float64(i)*freq+phase) + amp/3*math.Cos(float64(i)*freq*2.7)
		out[i] = Point{Date: d, Value: round(v, 2)}
	}
	return out
}

func buildProfile(p *Profile, benchmarkMonthly []Point) *Profile {
	p.Returns = ComputeReturnStats(p.MonthlyReturns)
	p.Portfolio = Compound(p.MonthlyReturns, 100)
	p.Benchmark = Compound(benchmarkMonthly, 100)

	last := len(p.Portfolio) - 1
	if last >= 0 {
		port := p.Portfolio[last].Value - 100
		bench := p.Benchmark[last].Value - 100
		p.Performance = Performance{
			PortfolioTotalReturnPct: round(port, 2),
			BenchmarkTotalReturnPct: round(bench, 2),
			ExcessReturnPct:         round(port-bench, 2),
		}
	}
	return p
}

func alphaAggressive() *Profile {
	dates := sampleDates(sampleMonths)
	p := &Profile{
		FundID:         SampleAlphaAggressive,
		Name:           "Alpha Aggressive Growth Fund",
		Period:         dates[0] + " to " + dates[len(dates)-1],
		MonthlyReturns: waveSeries(dates, 1.1, 4.2, 0.9, 0.3),
		Holdings: []Holding{
			{Name: "NVIDIA", WeightPct: 9.4, ReturnPct: 61.2},
			{Name: "Microsoft", WeightPct: 8.1, ReturnPct: 22.5},
			{Name: "Amazon", WeightPct: 6.7, ReturnPct: 18.9},
			{Name: "ASML", WeightPct: 5.2, ReturnPct: -4.3},
			{Name: "Tesla", WeightPct: 4.8, ReturnPct: -12.6},
		},
		RiskScores: []RiskScore{
			{Category: "Volatility", Score: 8.2},
			{Category: "Liquidity", Score: 3.1},
			{Category: "Concentration", Score: 6.9},
			{Category: "Currency", Score: 4.4},
			{Category: "Credit", Score: 2.0},
		},
		Allocation: []Weight{
			{Name: "Equities", Pct: 88},
			{Name: "Derivatives", Pct: 7},
			{Name: "Cash", Pct: 5},
		},
		SectorExposure: []Weight{
			{Name: "Technology", Pct: 41.5},
			{Name: "Consumer Discretionary", Pct: 18.2},
			{Name: "Healthcare", Pct: 12.4},
			{Name: "Industrials", Pct: 11.0},
			{Name: "Financials", Pct: 9.6},
			{Name: "Other", Pct: 7.3},
		},
	}
	p.AllocationHistory = allocationHistory(dates, p.Allocation, 0.8)
	p.MonthlyPnL = make([]Point, len(p.MonthlyReturns))
	for i, r := range p.MonthlyReturns {
		p.MonthlyPnL[i] = Point{Date: r.Date, Value: round(r.Value*2.5, 2)}
	}
	return buildProfile(p, waveSeries(dates, 0.8, 3.1, 0.9, 0.1))
}

func horizonIncome() *Profile {
	dates := sampleDates(sampleMonths)
	p := &Profile{
		FundID:         SampleHorizonIncome,
		Name:           "Horizon Stable Income Fund",
		Period:         dates[0] + " to " + dates[len(dates)-1],
		MonthlyReturns: waveSeries(dates, 0.35, 0.9, 0.6, 1.1),
		Holdings: []Holding{
			{Name: "US Treasury 2030", WeightPct: 14.0, ReturnPct: 3.1},
			{Name: "Bund 2029", WeightPct: 11.5, ReturnPct: 2.4},
			{Name: "Apple 2028 Bond", WeightPct: 6.2, ReturnPct: 4.0},
			{Name: "EIB 2031", WeightPct: 5.8, ReturnPct: 2.9},
		},
		RiskScores: []RiskScore{
			{Category: "Volatility", Score: 2.1},
			{Category: "Liquidity", Score: 2.6},
			{Category: "Concentration", Score: 3.3},
			{Category: "Currency", Score: 1.8},
			{Category: "Credit", Score: 4.7},
		},
		Allocation: []Weight{
			{Name: "Government Bonds", Pct: 55},
			{Name: "Corporate Bonds", Pct: 35},
			{Name: "Cash", Pct: 10},
		},
		DurationBuckets: []Weight{
			{Name: "0-1y", Pct: 12},
			{Name: "1-3y", Pct: 28},
			{Name: "3-5y", Pct: 31},
			{Name: "5-10y", Pct: 21},
			{Name: "10y+", Pct: 8},
		},
	}
	p.AllocationHistory = allocationHistory(dates, p.Allocation, 0.3)
	for i, d := range dates {
		if i%3 == 2 {
			p.IncomeStream = append(p.IncomeStream, Point{Date: d, Value: round(1.05+0.02*float64(i/3), 3)})
		}
	}
	return buildProfile(p, waveSeries(dates, 0.3, 0.8, 0.6, 0.9))
}

// allocationHistory samples the allocation quarterly with a small drift.
func allocationHistory(dates []string, current []Weight, drift float64) []AllocationPoint {
	var out []AllocationPoint
	for i := 0; i < len(dates); i += 3 {
		weights := make([]Weight, len(current))
		shift := drift * math.Sin(float64(i)/4)
		var total float64
		for j, w := range current {
			v := w.Pct
			if j == 0 {
				v += shift
			} else if j == len(current)-1 {
				v -= shift
			}
			weights[j] = Weight{Name: w.Name, Pct: v}
			total += v
		}
		for j := range weights {
			weights[j].Pct = round(weights[j].Pct/total*100, 2)
		}
		out = append(out, AllocationPoint{Date: dates[i], Weights: weights})
	}
	return out
}
