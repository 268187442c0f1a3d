package engine

import "inventorydash/internal/models"

// Thresholds of the fixed highlight rules.
const (
	LowQuantityThreshold  = 10
	HighDiscountThreshold = 0.2
)

var highlightRules = []models.HighlightRule{
	{
		ColumnID:    models.ColumnQuantity,
		Field:       models.ColumnQuantity,
		Operator:    "<",
		Threshold:   LowQuantityThreshold,
		FilterQuery: "{Quantity} < 10",
		Style:       models.CellStyle{BackgroundColor: "#ffcccc", Color: "black"},
	},
	{
		ColumnID:    models.ColumnDiscount,
		Field:       models.ColumnDiscount,
		Operator:    ">",
		Threshold:   HighDiscountThreshold,
		FilterQuery: "{Discount} > 0.2",
		Style:       models.CellStyle{BackgroundColor: "#ffedcc", Color: "black"},
	},
}

// HighlightRules returns the conditional formatting rules for view.
// An empty view has no rows to style and gets no rules.
func HighlightRules(view *FilteredView) []models.HighlightRule {
	if view.Len() == 0 {
		return []models.HighlightRule{}
	}
	rules := make([]models.HighlightRule, len(highlightRules))
	copy(rules, highlightRules)
	return rules
}
