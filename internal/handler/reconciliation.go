package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/reconcile"
	"homebudget/internal/util"
)

// ReconciliationHandler serves the matching pass and match review.
type ReconciliationHandler struct {
	db      *gorm.DB
	matcher *reconcile.Matcher
}

func NewReconciliationHandler(db *gorm.DB, matcher *reconcile.Matcher) *ReconciliationHandler {
	return &ReconciliationHandler{db: db, matcher: matcher}
}

// Run executes one matching pass over the request's scope.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	res, err := h.matcher.Run(c.Request.Context(), middleware.ScopedQuery(c))
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// List returns matches in the request's scope, optionally filtered by
// ?status= and ?confidence=.
func (h *ReconciliationHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Scopes(middleware.ScopedQuery(c))
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if conf := c.Query("confidence"); conf != "" {
		q = q.Where("confidence_level = ?", conf)
	}

	var matches []models.ReconciliationMatch
	if err := q.Order("created_at DESC").Find(&matches).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

// Accept confirms a suggested match and links the imported transaction to
// its schedule. Resolving an already-resolved match is a 400.
func (h *ReconciliationHandler) Accept(c *gin.Context) {
	match, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.matcher.Accept(c.Request.Context(), match); err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// Reject marks a suggested match as wrong.
func (h *ReconciliationHandler) Reject(c *gin.Context) {
	match, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.matcher.Reject(c.Request.Context(), match); err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *ReconciliationHandler) find(c *gin.Context) (*models.ReconciliationMatch, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var match models.ReconciliationMatch
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&match, id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}
