package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"inventorydash/internal/dashboard"
	"inventorydash/internal/exporter"
	"inventorydash/internal/models"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

func invalidParameter(err error) *APIError {
	return NewAPIError(http.StatusBadRequest, "INVALID_PARAMETER", err.Error())
}

// toAPIError maps any handler error onto the response it should produce.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return NewAPIError(he.Code, httpErrorCode(he.Code), fmt.Sprint(he.Message))
	}

	switch {
	case errors.Is(err, models.ErrInvalidMetric),
		errors.Is(err, exporter.ErrUnsupportedFormat),
		errors.Is(err, dashboard.ErrUnknownEvent):
		return invalidParameter(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewAPIError(http.StatusServiceUnavailable, "REQUEST_CANCELLED", "Request was cancelled")
	}
	return NewAPIError(http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}

// HTTPErrorHandler renders every error as {"success": false, "error": {...}}.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := toAPIError(err)
		ctx := c.Request().Context()
		if apiErr.StatusCode >= 500 {
			logger.ErrorContext(ctx, "request failed",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
		} else {
			logger.DebugContext(ctx, "request rejected",
				slog.String("path", c.Path()),
				slog.String("error_code", apiErr.ErrorCode),
				slog.String("error", err.Error()))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(apiErr.StatusCode)
		} else {
			err = c.JSON(apiErr.StatusCode, errorResponse{Success: false, Error: apiErr})
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to write error response", slog.String("error", err.Error()))
		}
	}
}
