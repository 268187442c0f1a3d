package engine

import "inventorydash/internal/models"

// FilteredView is the subset of a Dataset that passed a FilterSelection.
// It stores row indices into the dataset, in source order.
type FilteredView struct {
	ds   *Dataset
	rows []int
}

// Len returns the number of matching records.
func (v *FilteredView) Len() int { return len(v.rows) }

// At returns the i-th matching record.
func (v *FilteredView) At(i int) models.OrderRecord { return v.ds.records[v.rows[i]] }

// Records copies the matching records out of the dataset.
func (v *FilteredView) Records() []models.OrderRecord {
	out := make([]models.OrderRecord, len(v.rows))
	for i, r := range v.rows {
		out[i] = v.ds.records[r]
	}
	return out
}

// Page returns at most limit records starting at offset. A non-positive limit
// returns everything from offset on. A negative offset counts as zero.
func (v *FilteredView) Page(limit, offset int) []models.OrderRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(v.rows) {
		return []models.OrderRecord{}
	}
	end := len(v.rows)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]models.OrderRecord, 0, end-offset)
	for _, r := range v.rows[offset:end] {
		out = append(out, v.ds.records[r])
	}
	return out
}

// stringSet is nil for an unrestricted dimension.
type stringSet map[string]struct{}

func newStringSet(values []string) stringSet {
	if len(values) == 0 {
		return nil
	}
	set := make(stringSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func (s stringSet) allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// Evaluate returns the records that pass every active dimension of sel.
// Values within a dimension are OR-combined, dimensions are AND-combined, and
// matching is exact. The metric does not take part in filtering.
func Evaluate(ds *Dataset, sel models.FilterSelection) *FilteredView {
	categories := newStringSet(sel.Categories)
	regions := newStringSet(sel.Regions)
	subCategories := newStringSet(sel.SubCategories)

	rows := make([]int, 0, len(ds.records))
	for i, r := range ds.records {
		if categories.allows(r.Category) &&
			regions.allows(r.Region) &&
			subCategories.allows(r.SubCategory) {
			rows = append(rows, i)
		}
	}
	return &FilteredView{ds: ds, rows: rows}
}
