package models

// DashboardData is everything the dashboard renders for one selection.
// All parts are derived from the same filtered view.
type DashboardData struct {
	Selection  FilterSelection `json:"selection"`
	KPIs       KPISummary      `json:"kpis"`
	Table      TableData       `json:"table"`
	Charts     Charts          `json:"charts"`
	Highlights []HighlightRule `json:"highlights"`
}

type KPISummary struct {
	TotalSales      float64 `json:"total_sales"`
	TotalQuantity   float64 `json:"total_quantity"`
	AverageDiscount float64 `json:"average_discount"`
}

// TopItem is one (label, value) pair of a bar or pie dataset.
type TopItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type MonthlyItem struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// Waterfall measures, matching what chart libraries expect.
const (
	MeasureRelative = "relative"
	MeasureTotal    = "total"
)

// WaterfallStep is one bar of the sales contribution chart. Cumulative is the
// running total after this step; the final "total" step equals the grand total.
type WaterfallStep struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Cumulative float64 `json:"cumulative"`
	Measure    string  `json:"measure"`
}

// Chart is a categorical dataset (bar or pie).
type Chart struct {
	Title string    `json:"title"`
	Kind  string    `json:"kind"` // "bar", "pie"
	XAxis string    `json:"x_axis,omitempty"`
	YAxis string    `json:"y_axis,omitempty"`
	Data  []TopItem `json:"data"`
}

type WaterfallChart struct {
	Title string          `json:"title"`
	Steps []WaterfallStep `json:"steps"`
}

type TimeSeriesChart struct {
	Title  string        `json:"title"`
	YAxis  string        `json:"y_axis"`
	Points []MonthlyItem `json:"points"`
}

type Charts struct {
	SubCategory Chart           `json:"sub_category"`
	Region      Chart           `json:"region"`
	Waterfall   WaterfallChart  `json:"waterfall"`
	Monthly     TimeSeriesChart `json:"monthly"`
}

// TableData is the filtered row table. Every row has one key per Columns ID.
// Total counts every filtered row even when Rows holds a single page.
type TableData struct {
	Columns []Column   `json:"columns"`
	Rows    []TableRow `json:"rows"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

// FilterOptions are the values offered by the filter inputs.
type FilterOptions struct {
	Categories    []string `json:"categories"`
	Regions       []string `json:"regions"`
	SubCategories []string `json:"sub_categories"`
	Metrics       []Metric `json:"metrics"`
}
