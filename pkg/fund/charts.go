package fund

import "context"

// Chart type ids understood by the renderers.
const (
	ChartHistogram      = "histogram"
	ChartLine           = "line_chart"
	ChartSpider         = "spider_chart"
	ChartStackedArea    = "stacked_area"
	ChartDrawdown       = "drawdown_chart"
	ChartPie            = "pie_chart"
	ChartRollingReturns = "rolling_returns"
	ChartContributorBar = "contributor_bar"
	ChartIncome         = "income_chart"
	ChartDurationBar    = "duration_bar"
	ChartSectorBar      = "sector_bar"
)

// ChartType describes one chart the renderers can draw and the data it needs.
type ChartType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SeriesRef   string `json:"series_ref"`
	Requires    string `json:"requires,omitempty"`

	available func(*Profile) bool
}

// Available reports whether p carries the data for this chart.
func (c ChartType) Available(p *Profile) bool {
	if p == nil {
		return false
	}
	if c.available == nil {
		return true
	}
	return c.available(p)
}

var chartTypes = []ChartType{
	{
		ID: ChartHistogram, Name: "Return Distribution",
		Description: "Histogram of monthly returns",
		SeriesRef:   "monthly_returns",
		available:   func(p *Profile) bool { return len(p.MonthlyReturns) > 0 },
	},
	{
		ID: ChartLine, Name: "Cumulative Performance",
		Description: "Portfolio index against benchmark over time",
		SeriesRef:   "portfolio_index",
		available:   func(p *Profile) bool { return len(p.Portfolio) > 0 },
	},
	{
		ID: ChartSpider, Name: "Risk Profile",
		Description: "Spider chart of risk scores by dimension",
		SeriesRef:   "risk_scores",
		available:   func(p *Profile) bool { return len(p.RiskScores) >= 3 },
	},
	{
		ID: ChartStackedArea, Name: "Allocation History",
		Description: "Stacked area of allocation weights over time",
		SeriesRef:   "allocation_history",
		available:   func(p *Profile) bool { return len(p.AllocationHistory) > 1 },
	},
	{
		ID: ChartDrawdown, Name: "Drawdown",
		Description: "Underwater curve of the portfolio index",
		SeriesRef:   "portfolio_index",
		available:   func(p *Profile) bool { return len(p.Portfolio) > 1 },
	},
	{
		ID: ChartPie, Name: "Current Allocation",
		Description: "Pie chart of the current allocation",
		SeriesRef:   "allocation",
		available:   func(p *Profile) bool { return len(p.Allocation) > 0 },
	},
	{
		ID: ChartRollingReturns, Name: "Rolling 12M Returns",
		Description: "Rolling twelve month return",
		SeriesRef:   "monthly_returns",
		available:   func(p *Profile) bool { return len(p.MonthlyReturns) >= 12 },
	},
	{
		ID: ChartContributorBar, Name: "Top Contributors",
		Description: "Bar chart of holding contributions",
		SeriesRef:   "holdings",
		available:   func(p *Profile) bool { return len(p.Holdings) > 0 },
	},
	{
		ID: ChartIncome, Name: "Income Stream",
		Description: "Distributed income per period",
		SeriesRef:   DatasetIncomeStream,
		Requires:    DatasetIncomeStream,
		available:   func(p *Profile) bool { return len(p.IncomeStream) > 0 },
	},
	{
		ID: ChartDurationBar, Name: "Duration Profile",
		Description: "Bar chart of duration buckets",
		SeriesRef:   DatasetDuration,
		Requires:    DatasetDuration,
		available:   func(p *Profile) bool { return len(p.DurationBuckets) > 0 },
	},
	{
		ID: ChartSectorBar, Name: "Sector Exposure",
		Description: "Bar chart of sector weights",
		SeriesRef:   DatasetSectorExposure,
		Requires:    DatasetSectorExposure,
		available:   func(p *Profile) bool { return len(p.SectorExposure) > 0 },
	},
}

// ChartTypes returns every known chart type in catalog order.
func ChartTypes() []ChartType {
	out := make([]ChartType, len(chartTypes))
	copy(out, chartTypes)
	return out
}

// LookupChart returns the chart type for id.
func LookupChart(id string) (ChartType, bool) {
	for _, c := range chartTypes {
		if c.ID == id {
			return c, true
		}
	}
	return ChartType{}, false
}

// AvailableCharts filters the chart catalog by the data present in p.
func AvailableCharts(p *Profile) []ChartType {
	var out []ChartType
	for _, c := range chartTypes {
		if c.Available(p) {
			out = append(out, c)
		}
	}
	return out
}

// AvailableChartIDs is AvailableCharts reduced to ids.
func AvailableChartIDs(p *Profile) []string {
	charts := AvailableCharts(p)
	ids := make([]string, len(charts))
	for i, c := range charts {
		ids[i] = c.ID
	}
	return ids
}

// AvailableCharts implements ChartCatalog.
func (r *Registry) AvailableCharts(ctx context.Context, fundID string) ([]ChartType, error) {
	p, err := r.Profile(ctx, fundID)
	if err != nil {
		return nil, err
	}
	return AvailableCharts(p), nil
}
