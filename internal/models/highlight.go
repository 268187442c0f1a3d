package models

// CellStyle is applied to the cell a HighlightRule selects.
type CellStyle struct {
	BackgroundColor string `json:"background_color"`
	Color           string `json:"color"`
}

// HighlightRule is a declarative per-row predicate. Renderers evaluate it against
// each row; the rule never lists matching rows itself.
type HighlightRule struct {
	ColumnID    string    `json:"column_id"`
	Field       string    `json:"field"`
	Operator    string    `json:"operator"` // "<" or ">"
	Threshold   float64   `json:"threshold"`
	FilterQuery string    `json:"filter_query"`
	Style       CellStyle `json:"style"`
}

// Matches evaluates the rule against one record.
func (h HighlightRule) Matches(r OrderRecord) bool {
	var v float64
	switch h.Field {
	case ColumnQuantity:
		v = float64(r.Quantity)
	case ColumnDiscount:
		v = r.Discount
	case ColumnSales:
		v = r.Sales
	case ColumnProfit:
		v = r.Profit
	default:
		return false
	}

	switch h.Operator {
	case "<":
		return v < h.Threshold
	case ">":
		return v > h.Threshold
	}
	return false
}
