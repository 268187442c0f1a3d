package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"inventorydash/internal/config"
	"inventorydash/internal/dashboard"
	"inventorydash/internal/exporter"
	"inventorydash/internal/models"
)

// DashboardRequest is the selection accepted by /api/dashboard and /api/export.
type DashboardRequest struct {
	Categories    []string `json:"categories" validate:"max=100"`
	Regions       []string `json:"regions" validate:"max=100"`
	SubCategories []string `json:"sub_categories" validate:"max=100"`
	Metric        string   `json:"metric" validate:"omitempty,oneof=Sales Quantity"`
	Limit         int      `json:"limit" validate:"gte=0"`
	Offset        int      `json:"offset" validate:"gte=0"`
}

func (r DashboardRequest) selection() models.FilterSelection {
	return models.FilterSelection{
		Categories:    cleanValues(r.Categories),
		Regions:       cleanValues(r.Regions),
		SubCategories: cleanValues(r.SubCategories),
		Metric:        models.Metric(r.Metric),
	}
}

type Handler struct {
	svc       *dashboard.Service
	logger    *slog.Logger
	validator *requestValidator

	upgrader   websocket.Upgrader
	pingPeriod time.Duration
	pongWait   time.Duration
}

// NewHandler creates the API handlers. allowedOrigins is the CORS list; the
// websocket upgrade enforces the same list.
func NewHandler(svc *dashboard.Service, wsCfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		logger:    logger.With(slog.String("component", "api")),
		validator: newRequestValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsCfg.ReadBufferSize,
			WriteBufferSize: wsCfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		pingPeriod: wsCfg.PingPeriod,
		pongWait:   wsCfg.PongWait,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/options", h.GetOptions)
	api.GET("/dashboard", h.GetDashboard)
	api.POST("/dashboard", h.PostDashboard)
	api.GET("/export", h.GetExport)
	api.GET("/ws", h.ServeSession)
}

// originChecker allows requests without an Origin header (non-browser
// clients), any origin when the list holds "*", and otherwise exact matches.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get(echo.HeaderOrigin)
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// selectionFromQuery reads repeated category, region and sub_category params.
func selectionFromQuery(c echo.Context) DashboardRequest {
	q := c.QueryParams()
	return DashboardRequest{
		Categories:    q["category"],
		Regions:       q["region"],
		SubCategories: q["sub_category"],
		Metric:        c.QueryParam("metric"),
	}
}

// cleanValues drops blank entries, so "?category=" leaves the dimension open.
func cleanValues(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rows":   h.svc.Rows(),
	})
}

func (h *Handler) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Options())
}

// GetDashboard computes the snapshot for the query selection. limit and offset
// page the table rows only.
func (h *Handler) GetDashboard(c echo.Context) error {
	req := selectionFromQuery(c)
	req.Limit, req.Offset = getPaginationParams(c, h.svc.PageSize())
	return h.dashboard(c, req)
}

func (h *Handler) PostDashboard(c echo.Context) error {
	var req DashboardRequest
	if err := c.Bind(&req); err != nil {
		return NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Request body contains invalid JSON")
	}
	return h.dashboard(c, req)
}

func (h *Handler) dashboard(c echo.Context, req DashboardRequest) error {
	if err := c.Validate(&req); err != nil {
		return err
	}
	data, err := h.svc.RecomputePage(c.Request().Context(), req.selection(), req.Limit, req.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, data)
}

// GetExport downloads every row passing the dimension filters. The metric, if
// given, is ignored.
func (h *Handler) GetExport(c echo.Context) error {
	format, err := exporter.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return invalidParameter(err)
	}
	req := selectionFromQuery(c)
	req.Metric = ""
	if err := c.Validate(&req); err != nil {
		return err
	}

	exp, err := h.svc.Export(c.Request().Context(), req.selection(), format)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exp.FileName))
	return c.Blob(http.StatusOK, exp.ContentType, exp.Data)
}
