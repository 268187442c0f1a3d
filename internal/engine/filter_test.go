package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventorydash/internal/models"
)

func subCategories(v *FilteredView) []string {
	out := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		out = append(out, v.At(i).SubCategory)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	ds := threeOrders()

	tests := []struct {
		name string
		sel  models.FilterSelection
		want []string
	}{
		{name: "no filters", sel: models.FilterSelection{}, want: []string{"Chairs", "Tables", "Chairs"}},
		{name: "empty sets are unrestricted", sel: models.FilterSelection{Categories: []string{}, Regions: []string{}}, want: []string{"Chairs", "Tables", "Chairs"}},
		{name: "category", sel: models.FilterSelection{Categories: []string{"Furniture"}}, want: []string{"Chairs", "Tables"}},
		{name: "values within a dimension are OR-ed", sel: models.FilterSelection{Regions: []string{"West", "East"}}, want: []string{"Chairs", "Tables", "Chairs"}},
		{name: "dimensions are AND-ed", sel: models.FilterSelection{Categories: []string{"Furniture"}, SubCategories: []string{"Chairs"}}, want: []string{"Chairs"}},
		{name: "exact match only", sel: models.FilterSelection{Categories: []string{"furniture"}}, want: []string{}},
		{name: "no substring match", sel: models.FilterSelection{Categories: []string{"Furn"}}, want: []string{}},
		{name: "unknown region", sel: models.FilterSelection{Regions: []string{"Atlantis"}}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Evaluate(ds, tt.sel)
			assert.Equal(t, tt.want, subCategories(view))
		})
	}
}

func TestEvaluate_Conjunction(t *testing.T) {
	ds := threeOrders()
	selections := []models.FilterSelection{
		{},
		{Categories: []string{"Office"}},
		{Regions: []string{"East"}, SubCategories: []string{"Tables", "Chairs"}},
		{Categories: []string{"Furniture", "Office"}, Regions: []string{"West"}},
	}

	in := func(set []string, v string) bool {
		if len(set) == 0 {
			return true
		}
		for _, s := range set {
			if s == v {
				return true
			}
		}
		return false
	}

	for _, sel := range selections {
		view := Evaluate(ds, sel)
		var want []models.OrderRecord
		for i := 0; i < ds.Len(); i++ {
			r := ds.At(i)
			if in(sel.Categories, r.Category) && in(sel.Regions, r.Region) && in(sel.SubCategories, r.SubCategory) {
				want = append(want, r)
			}
		}
		if want == nil {
			want = []models.OrderRecord{}
		}
		assert.Equal(t, want, view.Records(), "selection %+v", sel)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	ds := threeOrders()
	sel := models.FilterSelection{Regions: []string{"East", "West"}}

	first := Evaluate(ds, sel).Records()
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Evaluate(ds, sel).Records())
	}
}

func TestEvaluate_IgnoresMetric(t *testing.T) {
	ds := threeOrders()
	sales := Evaluate(ds, models.FilterSelection{Categories: []string{"Office"}, Metric: models.MetricSales})
	qty := Evaluate(ds, models.FilterSelection{Categories: []string{"Office"}, Metric: models.MetricQuantity})
	assert.Equal(t, sales.Records(), qty.Records())
}

func TestFilteredView_Page(t *testing.T) {
	view := Evaluate(threeOrders(), models.FilterSelection{})

	assert.Len(t, view.Page(0, 0), 3)
	assert.Len(t, view.Page(2, 0), 2)

	page := view.Page(2, 2)
	require.Len(t, page, 1)
	assert.Equal(t, "Office", page[0].Category)

	assert.Empty(t, view.Page(10, 3))
	assert.NotNil(t, view.Page(10, 3))
}

func TestFilteredView_PageLargeLimit(t *testing.T) {
	view := Evaluate(threeOrders(), models.FilterSelection{})

	page := view.Page(math.MaxInt, 1)
	require.Len(t, page, 2)
	assert.Equal(t, "Office", page[1].Category)
	assert.Len(t, view.Page(math.MaxInt-1, 2), 1)
	assert.Len(t, view.Page(1, -5), 1)
}
