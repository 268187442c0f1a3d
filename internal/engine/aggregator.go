package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"inventorydash/internal/models"
)

// WaterfallTotalLabel labels the closing bar of the waterfall.
const WaterfallTotalLabel = "Total"

var hundred = decimal.NewFromInt(100)

// AggregateResult holds every aggregate derived from one FilteredView.
type AggregateResult struct {
	KPIs models.KPISummary

	// SubCategoryRanking sums the selected metric per sub-category, descending.
	SubCategoryRanking []models.TopItem
	// RegionQuantity sums quantity per region, in first-seen order.
	RegionQuantity []models.TopItem
	// SalesRanking sums sales per sub-category, descending, whatever the metric.
	SalesRanking []models.TopItem
	// Waterfall is SalesRanking as running totals plus a closing total bar.
	Waterfall []models.WaterfallStep
	// MonthlyTrend sums the selected metric per month, ascending by month.
	MonthlyTrend []models.MonthlyItem
}

// groupSums accumulates decimal sums per key, remembering first-seen order.
type groupSums struct {
	index map[string]int
	keys  []string
	sums  []decimal.Decimal
}

func newGroupSums() *groupSums {
	return &groupSums{index: make(map[string]int)}
}

func (g *groupSums) add(key string, v decimal.Decimal) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.keys)
		g.index[key] = i
		g.keys = append(g.keys, key)
		g.sums = append(g.sums, decimal.Zero)
	}
	g.sums[i] = g.sums[i].Add(v)
}

type groupValue struct {
	key string
	sum decimal.Decimal
}

func (g *groupSums) values() []groupValue {
	out := make([]groupValue, len(g.keys))
	for i, k := range g.keys {
		out[i] = groupValue{key: k, sum: g.sums[i]}
	}
	return out
}

// sortedDesc orders groups by sum, largest first. Ties keep first-seen order.
func (g *groupSums) sortedDesc() []groupValue {
	vals := g.values()
	sort.SliceStable(vals, func(i, j int) bool { return vals[i].sum.GreaterThan(vals[j].sum) })
	return vals
}

func toTopItems(vals []groupValue) []models.TopItem {
	items := make([]models.TopItem, len(vals))
	for i, v := range vals {
		items[i] = models.TopItem{Name: v.key, Value: v.sum.InexactFloat64()}
	}
	return items
}

func metricValue(r models.OrderRecord, m models.Metric) decimal.Decimal {
	if m == models.MetricQuantity {
		return decimal.NewFromInt(int64(r.Quantity))
	}
	return decimal.NewFromFloat(r.Sales)
}

// Aggregate computes every aggregate for view. Only SubCategoryRanking and
// MonthlyTrend depend on metric; an empty metric means DefaultMetric.
func Aggregate(view *FilteredView, metric models.Metric) AggregateResult {
	if metric == "" {
		metric = models.DefaultMetric
	}

	// 1. Single pass over the view
	var (
		totalSales    = decimal.Zero
		totalQuantity int64
		totalDiscount = decimal.Zero
	)
	bySubMetric := newGroupSums()
	bySubSales := newGroupSums()
	byRegion := newGroupSums()
	byMonth := newGroupSums()

	n := view.Len()
	for i := 0; i < n; i++ {
		r := view.At(i)
		sales := decimal.NewFromFloat(r.Sales)
		qty := decimal.NewFromInt(int64(r.Quantity))

		totalSales = totalSales.Add(sales)
		totalQuantity += int64(r.Quantity)
		totalDiscount = totalDiscount.Add(decimal.NewFromFloat(r.Discount))

		bySubMetric.add(r.SubCategory, metricValue(r, metric))
		bySubSales.add(r.SubCategory, sales)
		byRegion.add(r.Region, qty)
		byMonth.add(r.Month, metricValue(r, metric))
	}

	// 2. KPIs (empty view: average discount is defined as 0)
	avgDiscount := decimal.Zero
	if n > 0 {
		avgDiscount = totalDiscount.Div(decimal.NewFromInt(int64(n))).Mul(hundred)
	}
	res := AggregateResult{
		KPIs: models.KPISummary{
			TotalSales:      totalSales.Round(2).InexactFloat64(),
			TotalQuantity:   decimal.NewFromInt(totalQuantity).Round(2).InexactFloat64(),
			AverageDiscount: avgDiscount.Round(2).InexactFloat64(),
		},
	}

	// 3. Groupings
	res.SubCategoryRanking = toTopItems(bySubMetric.sortedDesc())
	res.RegionQuantity = toTopItems(byRegion.values())

	salesRanking := bySubSales.sortedDesc()
	res.SalesRanking = toTopItems(salesRanking)
	res.Waterfall = buildWaterfall(salesRanking)

	months := byMonth.values()
	sort.Slice(months, func(i, j int) bool { return months[i].key < months[j].key })
	res.MonthlyTrend = make([]models.MonthlyItem, len(months))
	for i, m := range months {
		res.MonthlyTrend[i] = models.MonthlyItem{Month: m.key, Value: m.sum.InexactFloat64()}
	}

	return res
}

// buildWaterfall turns an ordered sales ranking into contribution steps.
// No steps are produced for an empty ranking.
func buildWaterfall(ranking []groupValue) []models.WaterfallStep {
	steps := make([]models.WaterfallStep, 0, len(ranking)+1)
	if len(ranking) == 0 {
		return steps
	}

	running := decimal.Zero
	for _, g := range ranking {
		running = running.Add(g.sum)
		steps = append(steps, models.WaterfallStep{
			Label:      g.key,
			Value:      g.sum.InexactFloat64(),
			Cumulative: running.InexactFloat64(),
			Measure:    models.MeasureRelative,
		})
	}
	steps = append(steps, models.WaterfallStep{
		Label:      WaterfallTotalLabel,
		Value:      running.InexactFloat64(),
		Cumulative: running.InexactFloat64(),
		Measure:    models.MeasureTotal,
	})
	return steps
}
