package toolexecutor

import (
	"context"

	"github.com/amatiych/llm-work/pkg/catalog"
	"github.com/amatiych/llm-work/pkg/fund"
	"github.com/amatiych/llm-work/pkg/report"
)

// Analysis is the analyze_fund result. Long series are left out; the model
// only needs the statistics to choose charts and write narrative.
type Analysis struct {
	FundID            string           `json:"fund_id"`
	Name              string           `json:"fund_name"`
	Period            string           `json:"period"`
	Returns           fund.ReturnStats `json:"return_statistics"`
	Performance       fund.Performance `json:"performance_vs_benchmark"`
	TopHoldings       []fund.Holding   `json:"top_holdings"`
	Top3Concentration float64          `json:"top3_concentration_pct"`
	RiskScores        []fund.RiskScore `json:"risk_scores"`
	Allocation        []fund.Weight    `json:"allocation"`
	SectorExposure    []fund.Weight    `json:"sector_exposure,omitempty"`
	DurationBuckets   []fund.Weight    `json:"duration_buckets,omitempty"`
	IncomeSummary     *IncomeSummary   `json:"income_summary,omitempty"`
	Datasets          []string         `json:"extra_datasets_available"`
}

// IncomeSummary condenses the income stream.
type IncomeSummary struct {
	Payments    int     `json:"payments"`
	Total       float64 `json:"total"`
	LastPayment float64 `json:"last_payment"`
	LastDate    string  `json:"last_date"`
}

// ChartSummary is one entry of list_available_charts.
type ChartSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const maxHoldings = 10

func (e *Executor) analyzeFund(ctx context.Context) (*Analysis, error) {
	p, err := e.Profile(ctx)
	if err != nil {
		return nil, dataError(string(catalog.AnalyzeFund), "fund data is unavailable", err)
	}
	return Analyze(p), nil
}

// Analyze builds the analyze_fund view of a profile.
func Analyze(p *fund.Profile) *Analysis {
	a := &Analysis{
		FundID:          p.FundID,
		Name:            p.Name,
		Period:          p.Period,
		Returns:         p.Returns,
		Performance:     p.Performance,
		RiskScores:      p.RiskScores,
		Allocation:      p.Allocation,
		SectorExposure:  p.SectorExposure,
		DurationBuckets: p.DurationBuckets,
		Datasets:        p.Datasets(),
	}
	if a.Datasets == nil {
		a.Datasets = []string{}
	}

	holdings := p.Holdings
	if len(holdings) > maxHoldings {
		holdings = holdings[:maxHoldings]
	}
	a.TopHoldings = holdings
	for i, h := range p.Holdings {
		if i == 3 {
			break
		}
		a.Top3Concentration += h.WeightPct
	}

	if n := len(p.IncomeStream); n > 0 {
		s := &IncomeSummary{Payments: n}
		for _, pt := range p.IncomeStream {
			s.Total += pt.Value
		}
		s.LastPayment = p.IncomeStream[n-1].Value
		s.LastDate = p.IncomeStream[n-1].Date
		a.IncomeSummary = s
	}
	return a
}

func (e *Executor) listCharts(ctx context.Context) (map[string]interface{}, error) {
	available, err := e.availableCharts(ctx)
	if err != nil {
		return nil, dataError(string(catalog.ListAvailableCharts), "chart catalog is unavailable", err)
	}
	charts := make([]ChartSummary, len(available))
	for i, c := range available {
		charts[i] = ChartSummary{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	return map[string]interface{}{"charts": charts}, nil
}

// acknowledge is the success payload of a mutating call; it echoes enough
// state for the model to plan its next call.
func acknowledge(state *report.State, name catalog.Name, artifact report.ChartArtifact) map[string]interface{} {
	ack := map[string]interface{}{
		"ok":            true,
		"section_count": state.SectionCount(),
		"charts":        state.ChartIDs(),
	}
	switch name {
	case catalog.GenerateChart:
		ack["chart_id"] = artifact.ID
	case catalog.SetTheme:
		ack["theme"] = state.ThemeID()
	case catalog.FinalizeReport:
		ack["title"] = state.Title()
		ack["terminal"] = true
	}
	return ack
}
