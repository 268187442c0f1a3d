package models

import (
	"errors"
	"fmt"
)

// Metric selects the numeric field summed by the bar and trend views.
type Metric string

const (
	MetricSales    Metric = "Sales"
	MetricQuantity Metric = "Quantity"
)

// DefaultMetric is used when no metric was chosen.
const DefaultMetric = MetricSales

// Metrics lists the selectable metrics in display order.
var Metrics = []Metric{MetricSales, MetricQuantity}

// ErrInvalidMetric is returned for a metric outside Metrics.
var ErrInvalidMetric = errors.New("invalid metric")

// ParseMetric maps user input to a Metric. Empty input yields DefaultMetric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case "":
		return DefaultMetric, nil
	case MetricSales, MetricQuantity:
		return Metric(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMetric, s)
}

// Valid reports whether m is one of Metrics.
func (m Metric) Valid() bool {
	return m == MetricSales || m == MetricQuantity
}

// FilterSelection is the user's current choice of filters and metric.
// A nil or empty dimension slice means the dimension is unrestricted.
type FilterSelection struct {
	Categories    []string `json:"categories,omitempty"`
	Regions       []string `json:"regions,omitempty"`
	SubCategories []string `json:"sub_categories,omitempty"`
	Metric        Metric   `json:"metric"`
}

// IsEmpty reports whether no dimension restricts the dataset.
func (s FilterSelection) IsEmpty() bool {
	return len(s.Categories) == 0 && len(s.Regions) == 0 && len(s.SubCategories) == 0
}

// MetricOrDefault returns the selected metric, falling back to DefaultMetric.
func (s FilterSelection) MetricOrDefault() Metric {
	if s.Metric == "" {
		return DefaultMetric
	}
	return s.Metric
}

// WithMetric returns a copy of s using metric m.
func (s FilterSelection) WithMetric(m Metric) FilterSelection {
	s.Metric = m
	return s
}

// Clone returns a deep copy so callers can keep a selection across events.
func (s FilterSelection) Clone() FilterSelection {
	return FilterSelection{
		Categories:    cloneStrings(s.Categories),
		Regions:       cloneStrings(s.Regions),
		SubCategories: cloneStrings(s.SubCategories),
		Metric:        s.Metric,
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
