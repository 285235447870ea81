package util

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/apperr"
)

// TraceIDKey is the gin context key under which the trace middleware stores
// the per-request trace id.
const TraceIDKey = "traceID"

// StatusClientClosedRequest is the non-standard status for a request whose
// client went away (nginx's 499); gin has no named constant for it.
const StatusClientClosedRequest = 499

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Detail  string `json:"detail"`
	TraceID string `json:"traceId"`
}

// Problem writes a problem-details response.
func Problem(c *gin.Context, status int, title, detail string) {
	c.JSON(status, ProblemDetails{
		Type:    "about:blank",
		Title:   title,
		Status:  status,
		Detail:  detail,
		TraceID: c.GetString(TraceIDKey),
	})
}

// ProblemFromErr maps an error to its problem-details response: domain
// validation errors to 400, missing entities to 404, client cancellation to
// 499 (not logged as an error), anything else to a logged 500.
func ProblemFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled) || c.Request.Context().Err() == context.Canceled:
		Problem(c, StatusClientClosedRequest, "Client Closed Request", "the request was canceled")
	case apperr.IsNotFound(err) || errors.Is(err, gorm.ErrRecordNotFound):
		Problem(c, http.StatusNotFound, "Not Found", err.Error())
	case apperr.IsValidation(err):
		Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		slog.Error("unhandled error", "error", err, "trace_id", c.GetString(TraceIDKey),
			"method", c.Request.Method, "path", c.Request.URL.Path)
		Problem(c, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
	}
}
