package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"inventorydash/internal/exporter"
	"inventorydash/internal/models"
)

// ErrUnknownEvent is returned by Dispatch for an unrecognized event type.
var ErrUnknownEvent = errors.New("unknown event")

// EventType names a user interaction.
type EventType string

const (
	EventSetCategories    EventType = "set_categories"
	EventSetRegions       EventType = "set_regions"
	EventSetSubCategories EventType = "set_sub_categories"
	EventSetMetric        EventType = "set_metric"
	EventRefresh          EventType = "refresh"
	EventExport           EventType = "export"
)

// Event is one interaction sent to a Session.
type Event struct {
	Type   EventType `json:"type" validate:"required"`
	Values []string  `json:"values,omitempty"`
	Metric string    `json:"metric,omitempty"`
	Format string    `json:"format,omitempty"`
	Limit  int       `json:"limit,omitempty" validate:"gte=0"`
	Offset int       `json:"offset,omitempty" validate:"gte=0"`
}

// Result is what a Dispatch produced: a snapshot for state events, an export
// for EventExport.
type Result struct {
	Snapshot *models.DashboardData
	Export   *Export
}

// State of a Session.
type State int32

const (
	StateIdle State = iota
	StateRecomputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecomputing:
		return "recomputing"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Session is the reactive state of one connected client. Events are applied
// one at a time; the selection and its snapshot always change together.
type Session struct {
	ID string

	svc   *Service
	state atomic.Int32

	mu        sync.Mutex
	selection models.FilterSelection
	snapshot  *models.DashboardData
}

// NewSession starts a session with no filters and the default metric.
func NewSession(svc *Service) *Session {
	return &Session{
		ID:        uuid.NewString(),
		svc:       svc,
		selection: models.FilterSelection{Metric: models.DefaultMetric},
	}
}

// State reports whether a recomputation is in flight.
func (s *Session) State() State { return State(s.state.Load()) }

// Selection returns a copy of the current selection.
func (s *Session) Selection() models.FilterSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Clone()
}

// Snapshot returns the last computed snapshot, or nil before the first event.
func (s *Session) Snapshot() *models.DashboardData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Dispatch applies ev. A failed event leaves the session unchanged.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Type == EventExport {
		format, err := exporter.ParseFormat(ev.Format)
		if err != nil {
			return Result{}, err
		}
		exp, err := s.svc.Export(ctx, s.selection, format)
		if err != nil {
			return Result{}, err
		}
		return Result{Export: exp}, nil
	}

	next := s.selection.Clone()
	switch ev.Type {
	case EventSetCategories:
		next.Categories = cleanValues(ev.Values)
	case EventSetRegions:
		next.Regions = cleanValues(ev.Values)
	case EventSetSubCategories:
		next.SubCategories = cleanValues(ev.Values)
	case EventSetMetric:
		m, err := models.ParseMetric(ev.Metric)
		if err != nil {
			return Result{}, err
		}
		next.Metric = m
	case EventRefresh:
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}

	s.state.Store(int32(StateRecomputing))
	defer s.state.Store(int32(StateIdle))

	data, err := s.svc.RecomputePage(ctx, next, ev.Limit, ev.Offset)
	if err != nil {
		return Result{}, err
	}
	s.selection = next
	s.snapshot = data
	return Result{Snapshot: data}, nil
}

// cleanValues drops blank entries; an empty result clears the dimension.
func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
