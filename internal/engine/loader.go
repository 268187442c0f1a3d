package engine

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"inventorydash/internal/models"
)

var (
	// ErrEmptySource is returned when the source has a header but no rows.
	ErrEmptySource = errors.New("dataset source has no records")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("required column missing")
)

// LoadError reports a malformed value in the source.
type LoadError struct {
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("line %d, column %q: %v", e.Line, e.Column, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// dateLayouts are tried in order when parsing "Order Date".
var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var requiredColumns = []string{
	models.ColumnOrderDate,
	models.ColumnCategory,
	models.ColumnRegion,
	models.ColumnSubCategory,
	models.ColumnSales,
	models.ColumnQuantity,
	models.ColumnDiscount,
}

type loadConfig struct {
	client *http.Client
	logger *slog.Logger
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) LoadOption {
	return func(cfg *loadConfig) { cfg.client = c }
}

// WithLogger sets the logger used to report load progress.
func WithLogger(l *slog.Logger) LoadOption {
	return func(cfg *loadConfig) { cfg.logger = l }
}

// --- 1. SOURCE ---

// Load reads the whole dataset from source, a local path or an http(s) URL.
// Any error is fatal for the caller: a partially loaded dataset is never returned.
func Load(ctx context.Context, source string, opts ...LoadOption) (*Dataset, error) {
	cfg := &loadConfig{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	cfg.logger.InfoContext(ctx, "loading dataset", slog.String("source", source))

	rc, err := openSource(ctx, cfg.client, source)
	if err != nil {
		return nil, fmt.Errorf("open dataset source: %w", err)
	}
	defer rc.Close()

	columns, records, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", source, err)
	}

	ds := NewDatasetWithColumns(columns, records)
	cfg.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("rows", ds.Len()),
		slog.Int("columns", len(columns)),
		slog.Int("categories", len(ds.categoryDict)),
		slog.Int("regions", len(ds.regionDict)),
		slog.Int("sub_categories", len(ds.subCategoryDict)),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

func openSource(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// --- 2. PARSER ---

// header maps the source header onto table columns.
type header struct {
	columns []models.Column
	typed   map[string]int // typed column id -> field index
	extra   []int          // field index of each extra column
}

// parseHeader keeps every source column in header order. Names matching a
// typed column (case-insensitively) use its canonical id; the rest are kept
// verbatim as extra columns. Month is appended unless the source has one.
func parseHeader(fields []string) (*header, error) {
	h := &header{typed: make(map[string]int, len(models.OrderColumns))}
	used := make(map[string]int, len(fields))

	for i, f := range fields {
		name := strings.TrimSpace(strings.TrimPrefix(f, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}

		if c, ok := models.LookupColumn(name); ok {
			if _, dup := h.typed[c.ID]; !dup {
				h.typed[c.ID] = i
				used[c.ID]++
				h.columns = append(h.columns, c)
				continue
			}
			name = c.ID
		}

		// Duplicate names get a numeric suffix so row keys stay unique
		if n := used[name]; n > 0 {
			used[name]++
			name = fmt.Sprintf("%s.%d", name, n)
		}
		used[name]++
		h.columns = append(h.columns, models.ExtraColumn(name, len(h.extra)))
		h.extra = append(h.extra, i)
	}

	for _, name := range requiredColumns {
		if _, ok := h.typed[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	if _, ok := h.typed[models.ColumnMonth]; !ok {
		c, _ := models.LookupColumn(models.ColumnMonth)
		h.columns = append(h.columns, c)
	}
	return h, nil
}

// Parse reads CSV order data with a header row. It returns the table columns
// in source order and one record per data row.
func Parse(r io.Reader) ([]models.Column, []models.OrderRecord, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	fields, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmptySource
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	h, err := parseHeader(fields)
	if err != nil {
		return nil, nil, err
	}

	var records []models.OrderRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, nil, &LoadError{Line: pe.Line, Err: pe.Err}
			}
			return nil, nil, err
		}
		line, _ := reader.FieldPos(0)

		rec, perr := parseRow(row, h)
		if perr != nil {
			perr.Line = line
			return nil, nil, perr
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, nil, ErrEmptySource
	}
	return h.columns, records, nil
}

func parseRow(row []string, h *header) (models.OrderRecord, *LoadError) {
	get := func(name string) string {
		i, ok := h.typed[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	fail := func(column string, err error) *LoadError {
		return &LoadError{Column: column, Err: err}
	}

	var rec models.OrderRecord

	date, err := parseDate(get(models.ColumnOrderDate))
	if err != nil {
		return rec, fail(models.ColumnOrderDate, err)
	}
	rec.OrderDate = date
	rec.Month = date.Format(models.MonthLayout)

	rec.OrderID = get(models.ColumnOrderID)
	rec.Category = get(models.ColumnCategory)
	rec.Region = get(models.ColumnRegion)
	rec.SubCategory = get(models.ColumnSubCategory)
	rec.ProductName = get(models.ColumnProductName)

	if rec.Sales, err = parseNumber(get(models.ColumnSales)); err != nil {
		return rec, fail(models.ColumnSales, err)
	}
	if rec.Sales < 0 {
		return rec, fail(models.ColumnSales, fmt.Errorf("negative value %v", rec.Sales))
	}

	if rec.Quantity, err = parseQuantity(get(models.ColumnQuantity)); err != nil {
		return rec, fail(models.ColumnQuantity, err)
	}

	if rec.Discount, err = parseNumber(get(models.ColumnDiscount)); err != nil {
		return rec, fail(models.ColumnDiscount, err)
	}
	if rec.Discount < 0 || rec.Discount > 1 {
		return rec, fail(models.ColumnDiscount, fmt.Errorf("value %v outside [0,1]", rec.Discount))
	}

	if s := get(models.ColumnProfit); s != "" {
		if rec.Profit, err = parseNumber(s); err != nil {
			return rec, fail(models.ColumnProfit, err)
		}
	}

	if len(h.extra) > 0 {
		rec.Extra = make([]string, len(h.extra))
		for j, i := range h.extra {
			rec.Extra[j] = row[i]
		}
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseQuantity accepts "3" and integral floats such as "3.0".
func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative quantity %d", n)
		}
		return n, nil
	}
	f, err := parseNumber(s)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative quantity %v", f)
	}
	return int(f), nil
}
