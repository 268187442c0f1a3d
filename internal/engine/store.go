package engine

import "inventorydash/internal/models"

// Dataset holds the order records loaded at startup. It is read-only once built,
// so any number of requests may read it without locking.
type Dataset struct {
	records []models.OrderRecord
	columns []models.Column

	// Dictionaries (first-seen order), used for the filter inputs
	categoryDict    []string
	regionDict      []string
	subCategoryDict []string
}

// NewDataset copies records into a new immutable Dataset with the typed
// OrderColumns.
func NewDataset(records []models.OrderRecord) *Dataset {
	return NewDatasetWithColumns(models.OrderColumns, records)
}

// NewDatasetWithColumns is NewDataset for records read from a source whose
// header defines the table columns.
func NewDatasetWithColumns(columns []models.Column, records []models.OrderRecord) *Dataset {
	ds := &Dataset{
		records: make([]models.OrderRecord, len(records)),
		columns: append([]models.Column(nil), columns...),
	}
	copy(ds.records, records)

	seenC := make(map[string]struct{})
	seenR := make(map[string]struct{})
	seenS := make(map[string]struct{})
	for _, r := range ds.records {
		ds.categoryDict = appendUnique(ds.categoryDict, seenC, r.Category)
		ds.regionDict = appendUnique(ds.regionDict, seenR, r.Region)
		ds.subCategoryDict = appendUnique(ds.subCategoryDict, seenS, r.SubCategory)
	}
	return ds
}

func appendUnique(dict []string, seen map[string]struct{}, v string) []string {
	if _, ok := seen[v]; ok {
		return dict
	}
	seen[v] = struct{}{}
	return append(dict, v)
}

// Len returns the number of records.
func (ds *Dataset) Len() int { return len(ds.records) }

// At returns the i-th record in source order.
func (ds *Dataset) At(i int) models.OrderRecord { return ds.records[i] }

// Columns returns the table columns in display and export order.
func (ds *Dataset) Columns() []models.Column {
	return append([]models.Column(nil), ds.columns...)
}

// Options returns the distinct values of each filter dimension.
func (ds *Dataset) Options() models.FilterOptions {
	return models.FilterOptions{
		Categories:    append([]string(nil), ds.categoryDict...),
		Regions:       append([]string(nil), ds.regionDict...),
		SubCategories: append([]string(nil), ds.subCategoryDict...),
		Metrics:       append([]models.Metric(nil), models.Metrics...),
	}
}
