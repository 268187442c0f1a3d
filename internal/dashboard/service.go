package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"inventorydash/internal/engine"
	"inventorydash/internal/exporter"
	"inventorydash/internal/models"
)

// DefaultPageSize is the number of table rows in a snapshot unless configured.
const DefaultPageSize = 10

// DefaultExportFileName is the base name of export downloads unless configured.
const DefaultExportFileName = "filtered_inventory.csv"

// Recorder receives dashboard telemetry. A nil Recorder records nothing.
type Recorder interface {
	RecordRecompute(ctx context.Context, metric models.Metric, rows int, d time.Duration)
	RecordExport(ctx context.Context, format string, rows int)
}

// Export is a rendered download.
type Export struct {
	FileName    string
	ContentType string
	Rows        int
	Data        []byte
}

// Service computes dashboard snapshots and exports over one immutable dataset.
// It holds no per-client state and is safe for concurrent use.
type Service struct {
	ds        *engine.Dataset
	logger    *slog.Logger
	recorder  Recorder
	pageSize  int
	fileName  string
	exportBOM bool
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithPageSize sets the default number of table rows per snapshot.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithExportFile sets the export base name and whether CSV exports start with
// a UTF-8 BOM.
func WithExportFile(name string, bom bool) Option {
	return func(s *Service) {
		if name != "" {
			s.fileName = name
		}
		s.exportBOM = bom
	}
}

// NewService creates a Service over ds.
func NewService(ds *engine.Dataset, opts ...Option) *Service {
	s := &Service{
		ds:       ds,
		logger:   slog.Default(),
		pageSize: DefaultPageSize,
		fileName: DefaultExportFileName,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "dashboard"))
	return s
}

// Options returns the values offered by the filter inputs.
func (s *Service) Options() models.FilterOptions {
	return s.ds.Options()
}

// Rows returns the size of the loaded dataset.
func (s *Service) Rows() int { return s.ds.Len() }

// PageSize returns the default table page size.
func (s *Service) PageSize() int { return s.pageSize }

// Recompute builds the full snapshot for sel with the first table page.
func (s *Service) Recompute(ctx context.Context, sel models.FilterSelection) (*models.DashboardData, error) {
	return s.RecomputePage(ctx, sel, s.pageSize, 0)
}

// RecomputePage builds the snapshot for sel. limit and offset page the table rows
// only; KPIs, charts and highlights always cover the whole filtered view.
func (s *Service) RecomputePage(ctx context.Context, sel models.FilterSelection, limit, offset int) (*models.DashboardData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metric, err := models.ParseMetric(string(sel.Metric))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	sel = sel.Clone().WithMetric(metric)

	// One view feeds every output so they can never disagree
	view := engine.Evaluate(s.ds, sel)
	agg := engine.Aggregate(view, metric)

	columns := s.ds.Columns()
	page := view.Page(limit, offset)
	rows := make([]models.TableRow, len(page))
	for i, r := range page {
		rows[i] = r.TableRow(columns)
	}

	data := &models.DashboardData{
		Selection: sel,
		KPIs:      agg.KPIs,
		Table: models.TableData{
			Columns: columns,
			Rows:    rows,
			Total:   view.Len(),
			Limit:   limit,
			Offset:  offset,
		},
		Charts: models.Charts{
			SubCategory: models.Chart{
				Title: fmt.Sprintf("%s by Sub-Category", metric),
				Kind:  "bar",
				XAxis: models.ColumnSubCategory,
				YAxis: string(metric),
				Data:  agg.SubCategoryRanking,
			},
			Region: models.Chart{
				Title: "Quantity Distribution by Region",
				Kind:  "pie",
				Data:  agg.RegionQuantity,
			},
			Waterfall: models.WaterfallChart{
				Title: "Sales Flow by Sub-Category",
				Steps: agg.Waterfall,
			},
			Monthly: models.TimeSeriesChart{
				Title:  fmt.Sprintf("Monthly %s Trend", metric),
				YAxis:  string(metric),
				Points: agg.MonthlyTrend,
			},
		},
		Highlights: engine.HighlightRules(view),
	}

	elapsed := time.Since(start)
	s.logger.DebugContext(ctx, "dashboard recomputed",
		slog.String("metric", string(metric)),
		slog.Int("rows", view.Len()),
		slog.Duration("duration", elapsed))
	if s.recorder != nil {
		s.recorder.RecordRecompute(ctx, metric, view.Len(), elapsed)
	}
	return data, nil
}

// Export renders every record passing the dimension filters of sel. The metric
// is not consulted.
func (s *Service) Export(ctx context.Context, sel models.FilterSelection, format exporter.Format) (*Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	view := engine.Evaluate(s.ds, sel)
	rows := view.Records()
	columns := s.ds.Columns()

	var buf bytes.Buffer
	var err error
	switch format {
	case exporter.FormatCSV:
		err = exporter.WriteCSV(&buf, columns, rows, exporter.WriteOptions{BOMPrefix: s.exportBOM})
	case exporter.FormatXLSX:
		err = exporter.WriteXLSX(&buf, columns, rows)
	default:
		return nil, fmt.Errorf("%w: %q", exporter.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	s.logger.InfoContext(ctx, "export generated",
		slog.String("format", string(format)),
		slog.Int("rows", len(rows)),
		slog.Int("bytes", buf.Len()))
	if s.recorder != nil {
		s.recorder.RecordExport(ctx, string(format), len(rows))
	}

	return &Export{
		FileName:    exporter.FileName(s.fileName, format),
		ContentType: format.ContentType(),
		Rows:        len(rows),
		Data:        buf.Bytes(),
	}, nil
}
