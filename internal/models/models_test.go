package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricSales, m)

	m, err = ParseMetric("Quantity")
	require.NoError(t, err)
	assert.Equal(t, MetricQuantity, m)

	_, err = ParseMetric("quantity")
	assert.ErrorIs(t, err, ErrInvalidMetric)
	_, err = ParseMetric("Profit")
	assert.ErrorIs(t, err, ErrInvalidMetric)

	assert.True(t, MetricSales.Valid())
	assert.False(t, Metric("").Valid())
}

func TestFilterSelection(t *testing.T) {
	var sel FilterSelection
	assert.True(t, sel.IsEmpty())
	assert.Equal(t, MetricSales, sel.MetricOrDefault())

	sel = FilterSelection{Regions: []string{"East"}}
	assert.False(t, sel.IsEmpty())
	assert.Equal(t, MetricQuantity, sel.WithMetric(MetricQuantity).MetricOrDefault())
	assert.Equal(t, Metric(""), sel.Metric)

	clone := sel.Clone()
	clone.Regions[0] = "West"
	assert.Equal(t, []string{"East"}, sel.Regions)
	assert.Nil(t, clone.Categories)
}

func TestOrderRecord_Row(t *testing.T) {
	r := OrderRecord{
		OrderID:     "CA-2017-1",
		OrderDate:   time.Date(2017, 3, 5, 0, 0, 0, 0, time.UTC),
		Month:       "2017-03",
		Category:    "Technology",
		Region:      "South",
		SubCategory: "Phones",
		ProductName: "Headset",
		Sales:       99.95,
		Quantity:    3,
		Discount:    0.2,
		Profit:      -4.5,
	}

	assert.Equal(t, []string{
		"CA-2017-1", "2017-03-05", "Technology", "South", "Phones",
		"Headset", "99.95", "3", "0.2", "-4.5", "2017-03",
	}, r.Row(OrderColumns))
	assert.Len(t, r.Values(OrderColumns), len(OrderColumns))
	assert.Equal(t, ColumnOrderID, ColumnNames(OrderColumns)[0])

	row := r.TableRow(OrderColumns)
	assert.Len(t, row, len(OrderColumns))
	assert.Equal(t, "2017-03-05", row[ColumnOrderDate])
	assert.Equal(t, 3, row[ColumnQuantity])
	assert.Equal(t, 0.2, row[ColumnDiscount])
}

func TestOrderRecord_ExtraColumns(t *testing.T) {
	r := OrderRecord{Region: "West", Sales: 12, Extra: []string{"Los Angeles", "90036"}}
	columns := []Column{
		ExtraColumn("City", 0),
		{ID: ColumnRegion, Name: ColumnRegion},
		ExtraColumn("Postal Code", 1),
		ExtraColumn("Missing", 5),
		{ID: ColumnSales, Name: ColumnSales},
	}

	assert.Equal(t, []string{"Los Angeles", "West", "90036", "", "12"}, r.Row(columns))
	assert.Equal(t, TableRow{
		"City": "Los Angeles", ColumnRegion: "West", "Postal Code": "90036", "Missing": "", ColumnSales: 12.0,
	}, r.TableRow(columns))
}

func TestLookupColumn(t *testing.T) {
	c, ok := LookupColumn("sub-category")
	require.True(t, ok)
	assert.Equal(t, ColumnSubCategory, c.ID)

	_, ok = LookupColumn("Ship Mode")
	assert.False(t, ok)
}

func TestHighlightRule_Matches(t *testing.T) {
	low := HighlightRule{Field: ColumnQuantity, Operator: "<", Threshold: 10}
	high := HighlightRule{Field: ColumnDiscount, Operator: ">", Threshold: 0.2}
	sales := HighlightRule{Field: ColumnSales, Operator: ">", Threshold: 100}

	assert.True(t, low.Matches(OrderRecord{Quantity: 9}))
	assert.False(t, low.Matches(OrderRecord{Quantity: 10}))
	assert.True(t, high.Matches(OrderRecord{Discount: 0.3}))
	assert.False(t, high.Matches(OrderRecord{Discount: 0.2}))
	assert.True(t, sales.Matches(OrderRecord{Sales: 100.5}))

	unknown := HighlightRule{Field: "Order ID", Operator: "<", Threshold: 1}
	assert.False(t, unknown.Matches(OrderRecord{}))
}
