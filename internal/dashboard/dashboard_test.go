package dashboard

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorydash/internal/engine"
	"inventorydash/internal/exporter"
	"inventorydash/internal/models"
)

func order(date, category, region, sub string, sales float64, qty int, discount float64) models.OrderRecord {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return models.OrderRecord{
		OrderDate:   d,
		Month:       d.Format(models.MonthLayout),
		Category:    category,
		Region:      region,
		SubCategory: sub,
		Sales:       sales,
		Quantity:    qty,
		Discount:    discount,
	}
}

func testDataset() *engine.Dataset {
	return engine.NewDataset([]models.OrderRecord{
		order("2017-01-10", "Furniture", "East", "Chairs", 100, 5, 0.1),
		order("2017-02-03", "Furniture", "East", "Tables", 200, 20, 0.3),
		order("2017-02-21", "Office", "West", "Chairs", 50, 2, 0.0),
	})
}

type fakeRecorder struct {
	mu         sync.Mutex
	recomputes []int
	exports    []string
}

func (r *fakeRecorder) RecordRecompute(_ context.Context, _ models.Metric, rows int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recomputes = append(r.recomputes, rows)
}

func (r *fakeRecorder) RecordExport(_ context.Context, format string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, format)
}

func TestService_Recompute(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(testDataset(), WithRecorder(rec))

	data, err := svc.Recompute(context.Background(), models.FilterSelection{Categories: []string{"Furniture"}})
	require.NoError(t, err)

	assert.Equal(t, models.MetricSales, data.Selection.Metric)
	assert.Equal(t, models.KPISummary{TotalSales: 300, TotalQuantity: 25, AverageDiscount: 20}, data.KPIs)
	assert.Equal(t, 2, data.Table.Total)
	assert.Len(t, data.Table.Rows, 2)
	assert.Equal(t, models.OrderColumns, data.Table.Columns)

	assert.Equal(t, "bar", data.Charts.SubCategory.Kind)
	assert.Equal(t, "Sales by Sub-Category", data.Charts.SubCategory.Title)
	assert.Equal(t, []models.TopItem{{Name: "Tables", Value: 200}, {Name: "Chairs", Value: 100}}, data.Charts.SubCategory.Data)
	assert.Equal(t, []models.TopItem{{Name: "East", Value: 25}}, data.Charts.Region.Data)
	assert.Len(t, data.Charts.Waterfall.Steps, 3)
	assert.Len(t, data.Charts.Monthly.Points, 2)
	assert.Len(t, data.Highlights, 2)

	assert.Equal(t, []int{2}, rec.recomputes)
}

func TestService_RecomputeEmptyView(t *testing.T) {
	svc := NewService(testDataset())

	data, err := svc.Recompute(context.Background(), models.FilterSelection{Regions: []string{"North"}})
	require.NoError(t, err)

	assert.Equal(t, models.KPISummary{}, data.KPIs)
	assert.Equal(t, 0, data.Table.Total)
	assert.Empty(t, data.Table.Rows)
	assert.Empty(t, data.Charts.SubCategory.Data)
	assert.Empty(t, data.Charts.Region.Data)
	assert.Empty(t, data.Charts.Waterfall.Steps)
	assert.Empty(t, data.Charts.Monthly.Points)
	assert.Empty(t, data.Highlights)
}

func TestService_RecomputePage(t *testing.T) {
	svc := NewService(testDataset(), WithPageSize(1))

	data, err := svc.Recompute(context.Background(), models.FilterSelection{})
	require.NoError(t, err)
	assert.Equal(t, 3, data.Table.Total)
	require.Len(t, data.Table.Rows, 1)
	assert.Equal(t, 1, data.Table.Limit)

	data, err = svc.RecomputePage(context.Background(), models.FilterSelection{}, 2, 1)
	require.NoError(t, err)
	require.Len(t, data.Table.Rows, 2)
	assert.Equal(t, "Tables", data.Table.Rows[0][models.ColumnSubCategory])
	// Aggregates ignore paging
	assert.Equal(t, 350.0, data.KPIs.TotalSales)
}

func TestService_RecomputeErrors(t *testing.T) {
	svc := NewService(testDataset())

	_, err := svc.Recompute(context.Background(), models.FilterSelection{Metric: "Profit"})
	assert.ErrorIs(t, err, models.ErrInvalidMetric)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Recompute(ctx, models.FilterSelection{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_RecomputeDoesNotAliasSelection(t *testing.T) {
	svc := NewService(testDataset())
	sel := models.FilterSelection{Categories: []string{"Furniture"}}

	data, err := svc.Recompute(context.Background(), sel)
	require.NoError(t, err)
	sel.Categories[0] = "Office"

	assert.Equal(t, []string{"Furniture"}, data.Selection.Categories)
}

// byName keys each data line of a CSV export by its header.
func byName(records [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(records))
	for _, line := range records[1:] {
		m := make(map[string]string, len(line))
		for i, v := range line {
			m[records[0][i]] = v
		}
		out = append(out, m)
	}
	return out
}

func TestService_Export(t *testing.T) {
	rec := &fakeRecorder{}
	svc := NewService(testDataset(), WithRecorder(rec))

	sel := models.FilterSelection{Categories: []string{"Furniture"}, Metric: models.MetricQuantity}
	exp, err := svc.Export(context.Background(), sel, exporter.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "filtered_inventory.csv", exp.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", exp.ContentType)
	assert.Equal(t, 2, exp.Rows)

	records, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, models.ColumnNames(models.OrderColumns), records[0])
	lines := byName(records)
	assert.Equal(t, "Chairs", lines[0][models.ColumnSubCategory])
	assert.Equal(t, "Tables", lines[1][models.ColumnSubCategory])

	assert.Equal(t, []string{"csv"}, rec.exports)
}

func TestService_ExportOfficeWithQuantityMetric(t *testing.T) {
	svc := NewService(testDataset())

	sel := models.FilterSelection{Categories: []string{"Office"}, Metric: models.MetricQuantity}
	exp, err := svc.Export(context.Background(), sel, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, exp.Rows)

	records, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	require.NoError(t, err)
	lines := byName(records)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "Office", line[models.ColumnCategory])
	assert.Equal(t, "West", line[models.ColumnRegion])
	assert.Equal(t, "Chairs", line[models.ColumnSubCategory])
	assert.Equal(t, "2017-02-21", line[models.ColumnOrderDate])
	assert.Equal(t, "50", line[models.ColumnSales])
	assert.Equal(t, "2", line[models.ColumnQuantity])
	assert.Equal(t, "0", line[models.ColumnDiscount])
}

const sourceWithExtras = `Row ID,Order Date,Ship Mode,Customer Name,Category,Region,Sub-Category,Sales,Quantity,Discount
1,1/10/2017,Second Class,Claire Gute,Furniture,East,Chairs,100,5,0.1
2,2/3/2017,Standard Class,Darrin Van Huff,Furniture,East,Tables,200,20,0.3
`

func TestService_SourceColumns(t *testing.T) {
	columns, records, err := engine.Parse(strings.NewReader(sourceWithExtras))
	require.NoError(t, err)
	svc := NewService(engine.NewDatasetWithColumns(columns, records))

	data, err := svc.Recompute(context.Background(), models.FilterSelection{})
	require.NoError(t, err)

	want := []string{
		"Row ID", "Order Date", "Ship Mode", "Customer Name", "Category", "Region",
		"Sub-Category", "Sales", "Quantity", "Discount", "Month",
	}
	assert.Equal(t, want, models.ColumnNames(data.Table.Columns))

	require.Len(t, data.Table.Rows, 2)
	require.NotEmpty(t, data.Highlights)
	for _, row := range data.Table.Rows {
		assert.Len(t, row, len(data.Table.Columns))
		for _, c := range data.Table.Columns {
			assert.Contains(t, row, c.ID)
		}
		for _, h := range data.Highlights {
			assert.Contains(t, row, h.ColumnID)
		}
		// No Profit column in the source, so none in the table
		assert.NotContains(t, row, models.ColumnProfit)
	}
	assert.Equal(t, "Claire Gute", data.Table.Rows[0]["Customer Name"])
	assert.Equal(t, "2017-01-10", data.Table.Rows[0][models.ColumnOrderDate])
	assert.Equal(t, 20, data.Table.Rows[1][models.ColumnQuantity])

	exp, err := svc.Export(context.Background(), models.FilterSelection{}, exporter.FormatCSV)
	require.NoError(t, err)
	exported, err := csv.NewReader(bytes.NewReader(exp.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, exported, 3)
	assert.Equal(t, want, exported[0])
	assert.Equal(t, []string{
		"2", "2017-02-03", "Standard Class", "Darrin Van Huff", "Furniture", "East",
		"Tables", "200", "20", "0.3", "2017-02",
	}, exported[2])
}

func TestService_RecomputePageOverflow(t *testing.T) {
	svc := NewService(testDataset())

	data, err := svc.RecomputePage(context.Background(), models.FilterSelection{}, math.MaxInt, 1)
	require.NoError(t, err)
	assert.Len(t, data.Table.Rows, 2)
	assert.Equal(t, 3, data.Table.Total)
}

func TestService_ExportEmptyAndXLSX(t *testing.T) {
	svc := NewService(testDataset(), WithExportFile("orders.csv", true))

	exp, err := svc.Export(context.Background(), models.FilterSelection{Regions: []string{"North"}}, exporter.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 0, exp.Rows)
	assert.True(t, bytes.HasPrefix(exp.Data, []byte{0xEF, 0xBB, 0xBF}))

	exp, err = svc.Export(context.Background(), models.FilterSelection{}, exporter.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "orders.xlsx", exp.FileName)
	assert.Equal(t, 3, exp.Rows)
	assert.NotEmpty(t, exp.Data)

	_, err = svc.Export(context.Background(), models.FilterSelection{}, "pdf")
	assert.ErrorIs(t, err, exporter.ErrUnsupportedFormat)
}
