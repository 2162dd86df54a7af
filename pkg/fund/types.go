package fund

import (
	"context"
	"errors"
)

// ErrNotFound is returned for unknown fund ids.
var ErrNotFound = errors.New("fund not found")

// Optional dataset names a profile may carry.
const (
	DatasetSectorExposure = "sector_exposure"
	DatasetIncomeStream   = "income_stream"
	DatasetDuration       = "duration_profile"
	DatasetMonthlyPnL     = "monthly_pnl"
)

// Point is one observation of a dated series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Weight is a labelled percentage.
type Weight struct {
	Name string  `json:"name"`
	Pct  float64 `json:"pct"`
}

// Holding is one position of the fund.
type Holding struct {
	Name      string  `json:"name"`
	WeightPct float64 `json:"weight_pct"`
	ReturnPct float64 `json:"return_pct"`
}

// RiskScore is a fund score on one risk dimension.
type RiskScore struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// AllocationPoint is the allocation mix at one date.
type AllocationPoint struct {
	Date    string   `json:"date"`
	Weights []Weight `json:"weights"`
}

// ReturnStats summarises the monthly return series.
type ReturnStats struct {
	Months              int     `json:"n_months"`
	MeanMonthlyPct      float64 `json:"mean_monthly_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	AnnualizedVolPct    float64 `json:"annualized_vol_pct"`
	Sharpe              float64 `json:"sharpe_ratio"`
	MaxReturnPct        float64 `json:"max_return_pct"`
	MinReturnPct        float64 `json:"min_return_pct"`
	PctPositiveMonths   float64 `json:"pct_positive_months"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
}

// Performance compares the portfolio against its benchmark.
type Performance struct {
	PortfolioTotalReturnPct float64 `json:"portfolio_total_return_pct"`
	BenchmarkTotalReturnPct float64 `json:"benchmark_total_return_pct"`
	ExcessReturnPct         float64 `json:"excess_return_pct"`
}

// Profile is the computed data profile of a fund. It is read-only to the
// orchestration core.
type Profile struct {
	FundID      string      `json:"fund_id"`
	Name        string      `json:"fund_name"`
	Period      string      `json:"period"`
	Returns     ReturnStats `json:"return_statistics"`
	Performance Performance `json:"performance_vs_benchmark"`

	Holdings          []Holding         `json:"holdings"`
	RiskScores        []RiskScore       `json:"risk_scores"`
	Allocation        []Weight          `json:"allocation"`
	AllocationHistory []AllocationPoint `json:"allocation_history,omitempty"`

	MonthlyReturns []Point `json:"monthly_returns"`
	Portfolio      []Point `json:"portfolio_index"`
	Benchmark      []Point `json:"benchmark_index"`

	SectorExposure  []Weight `json:"sector_exposure,omitempty"`
	IncomeStream    []Point  `json:"income_stream,omitempty"`
	DurationBuckets []Weight `json:"duration_buckets,omitempty"`
	MonthlyPnL      []Point  `json:"monthly_pnl,omitempty"`
}

// Volatility is the annualised volatility in percent.
func (p *Profile) Volatility() float64 { return p.Returns.AnnualizedVolPct }

// Drawdown is the maximum drawdown in percent (negative).
func (p *Profile) Drawdown() float64 { return p.Returns.MaxDrawdownPct }

// Sharpe is the annualised Sharpe ratio.
func (p *Profile) Sharpe() float64 { return p.Returns.Sharpe }

// Datasets lists the optional datasets present in the profile.
func (p *Profile) Datasets() []string {
	var out []string
	if len(p.SectorExposure) > 0 {
		out = append(out, DatasetSectorExposure)
	}
	if len(p.MonthlyPnL) > 0 {
		out = append(out, DatasetMonthlyPnL)
	}
	if len(p.IncomeStream) > 0 {
		out = append(out, DatasetIncomeStream)
	}
	if len(p.DurationBuckets) > 0 {
		out = append(out, DatasetDuration)
	}
	return out
}

// Summary identifies a fund in listings.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider supplies fund profiles.
type Provider interface {
	Profile(ctx context.Context, fundID string) (*Profile, error)
	Funds(ctx context.Context) ([]Summary, error)
}

// ChartCatalog lists the chart types whose data exists for a fund.
type ChartCatalog interface {
	AvailableCharts(ctx context.Context, fundID string) ([]ChartType, error)
}
