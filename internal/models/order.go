package models

import (
	"strconv"
	"strings"
	"time"
)

// MonthLayout is the layout of the month bucket ("2017-03").
const MonthLayout = "2006-01"

// DateLayout is used when an order date leaves the process (table, export).
const DateLayout = "2006-01-02"

// OrderRecord is one row of the order dataset. Values are never modified after load.
// Extra holds the source columns without a typed field, in the order of the
// dataset's extra columns.
type OrderRecord struct {
	OrderID     string    `json:"order_id,omitempty"`
	OrderDate   time.Time `json:"order_date"`
	Month       string    `json:"month"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	SubCategory string    `json:"sub_category"`
	ProductName string    `json:"product_name,omitempty"`
	Sales       float64   `json:"sales"`
	Quantity    int       `json:"quantity"`
	Discount    float64   `json:"discount"`
	Profit      float64   `json:"profit"`
	Extra       []string  `json:"-"`
}

// Column describes one column of the order table. ID is the key of the cell in
// every TableRow.
type Column struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"` // "text", "date", "number"
	Align string `json:"align"`

	extra int // 1-based position in OrderRecord.Extra, 0 for typed fields
}

// Column ids referenced by highlight rules and renderers.
const (
	ColumnOrderID     = "Order ID"
	ColumnOrderDate   = "Order Date"
	ColumnMonth       = "Month"
	ColumnCategory    = "Category"
	ColumnRegion      = "Region"
	ColumnSubCategory = "Sub-Category"
	ColumnProductName = "Product Name"
	ColumnSales       = "Sales"
	ColumnQuantity    = "Quantity"
	ColumnDiscount    = "Discount"
	ColumnProfit      = "Profit"
)

// OrderColumns are the typed columns in their default order. Datasets loaded
// from a source use the source header order instead, with Month last.
var OrderColumns = []Column{
	{ID: ColumnOrderID, Name: ColumnOrderID, Type: "text", Align: "left"},
	{ID: ColumnOrderDate, Name: ColumnOrderDate, Type: "date", Align: "left"},
	{ID: ColumnCategory, Name: ColumnCategory, Type: "text", Align: "left"},
	{ID: ColumnRegion, Name: ColumnRegion, Type: "text", Align: "left"},
	{ID: ColumnSubCategory, Name: ColumnSubCategory, Type: "text", Align: "left"},
	{ID: ColumnProductName, Name: ColumnProductName, Type: "text", Align: "left"},
	{ID: ColumnSales, Name: ColumnSales, Type: "number", Align: "right"},
	{ID: ColumnQuantity, Name: ColumnQuantity, Type: "number", Align: "right"},
	{ID: ColumnDiscount, Name: ColumnDiscount, Type: "number", Align: "right"},
	{ID: ColumnProfit, Name: ColumnProfit, Type: "number", Align: "right"},
	{ID: ColumnMonth, Name: ColumnMonth, Type: "text", Align: "left"},
}

// LookupColumn returns the typed column whose name matches name, ignoring case.
func LookupColumn(name string) (Column, bool) {
	for _, c := range OrderColumns {
		if strings.EqualFold(c.ID, name) {
			return c, true
		}
	}
	return Column{}, false
}

// ExtraColumn describes a source column kept verbatim at position i of
// OrderRecord.Extra.
func ExtraColumn(name string, i int) Column {
	return Column{ID: name, Name: name, Type: "text", Align: "left", extra: i + 1}
}

// ColumnNames returns the header row for columns.
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// TableRow is one record keyed by Column.ID.
type TableRow map[string]interface{}

// Value returns the typed cell of c. Dates use DateLayout.
func (r OrderRecord) Value(c Column) interface{} {
	if c.extra > 0 {
		if c.extra > len(r.Extra) {
			return ""
		}
		return r.Extra[c.extra-1]
	}
	switch c.ID {
	case ColumnOrderID:
		return r.OrderID
	case ColumnOrderDate:
		return r.OrderDate.Format(DateLayout)
	case ColumnMonth:
		return r.Month
	case ColumnCategory:
		return r.Category
	case ColumnRegion:
		return r.Region
	case ColumnSubCategory:
		return r.SubCategory
	case ColumnProductName:
		return r.ProductName
	case ColumnSales:
		return r.Sales
	case ColumnQuantity:
		return r.Quantity
	case ColumnDiscount:
		return r.Discount
	case ColumnProfit:
		return r.Profit
	}
	return ""
}

// Cell renders the cell of c as text.
func (r OrderRecord) Cell(c Column) string {
	switch v := r.Value(c).(type) {
	case float64:
		return formatFloat(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	}
	return ""
}

// Row renders the record as strings in columns order.
func (r OrderRecord) Row(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r.Cell(c)
	}
	return out
}

// Values is Row with typed cells, for spreadsheet writers.
func (r OrderRecord) Values(columns []Column) []interface{} {
	out := make([]interface{}, len(columns))
	for i, c := range columns {
		out[i] = r.Value(c)
	}
	return out
}

// TableRow keys the typed cells of columns by Column.ID.
func (r OrderRecord) TableRow(columns []Column) TableRow {
	row := make(TableRow, len(columns))
	for _, c := range columns {
		row[c.ID] = r.Value(c)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
