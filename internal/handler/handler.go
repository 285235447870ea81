// Package handler implements the HTTP API on top of the domain services.
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"homebudget/internal/apperr"
	"homebudget/internal/config"
)

// Pagination is parsed from ?page= and ?page_size= query parameters.
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

func parsePagination(c *gin.Context) Pagination {
	defaultSize := 20
	if cfg := config.Get(); cfg != nil && cfg.App.PageSize > 0 {
		defaultSize = cfg.App.PageSize
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if size < 1 {
		size = defaultSize
	}
	if size > 100 {
		size = 100
	}
	return Pagination{Page: page, PageSize: size}
}

func defaultCurrency() string {
	if cfg := config.Get(); cfg != nil && cfg.App.DefaultCurrency != "" {
		return cfg.App.DefaultCurrency
	}
	return "USD"
}

func errInvalidQuery(name, value string) error {
	return apperr.Validationf("invalid %s %q", name, value)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validationf("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Validationf("invalid %s %q (want YYYY-MM-DD)", name, raw)
	}
	return &t, nil
}
