package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorydash/internal/models"
)

func TestHighlightRules_FurnitureScenario(t *testing.T) {
	view := Evaluate(threeOrders(), models.FilterSelection{Categories: []string{"Furniture"}})
	rules := HighlightRules(view)
	require.Len(t, rules, 2)

	qtyRule, discRule := rules[0], rules[1]
	assert.Equal(t, models.ColumnQuantity, qtyRule.ColumnID)
	assert.Equal(t, "{Quantity} < 10", qtyRule.FilterQuery)
	assert.Equal(t, "#ffcccc", qtyRule.Style.BackgroundColor)
	assert.Equal(t, models.ColumnDiscount, discRule.ColumnID)
	assert.Equal(t, "{Discount} > 0.2", discRule.FilterQuery)
	assert.Equal(t, "#ffedcc", discRule.Style.BackgroundColor)

	chairs, tables := view.At(0), view.At(1)
	require.Equal(t, "Tables", tables.SubCategory)

	// Tables: quantity 20 is not low, discount 0.3 is high
	assert.False(t, qtyRule.Matches(tables))
	assert.True(t, discRule.Matches(tables))

	// Chairs: quantity 5 is low, discount 0.1 is not high
	assert.True(t, qtyRule.Matches(chairs))
	assert.False(t, discRule.Matches(chairs))
}

func TestHighlightRules_Boundaries(t *testing.T) {
	rules := HighlightRules(Evaluate(threeOrders(), models.FilterSelection{}))
	require.Len(t, rules, 2)

	assert.False(t, rules[0].Matches(models.OrderRecord{Quantity: 10}))
	assert.True(t, rules[0].Matches(models.OrderRecord{Quantity: 9}))
	assert.False(t, rules[1].Matches(models.OrderRecord{Discount: 0.2}))
	assert.True(t, rules[1].Matches(models.OrderRecord{Discount: 0.21}))
}

func TestHighlightRules_EmptyView(t *testing.T) {
	view := Evaluate(threeOrders(), models.FilterSelection{Regions: []string{"North"}})
	rules := HighlightRules(view)
	assert.Empty(t, rules)
	assert.NotNil(t, rules)
}

func TestHighlightRules_ReturnsCopy(t *testing.T) {
	view := Evaluate(threeOrders(), models.FilterSelection{})
	rules := HighlightRules(view)
	rules[0].Threshold = 1000

	assert.Equal(t, float64(LowQuantityThreshold), HighlightRules(view)[0].Threshold)
}
