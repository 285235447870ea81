package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/models"
	"homebudget/internal/util"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	db *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{db: db}
}

// List returns audit entries, newest first, paginated.
func (h *AuditHandler) List(c *gin.Context) {
	p := parsePagination(c)

	var total int64
	if err := h.db.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var entries []models.AuditLog
	if err := h.db.Order("created_at DESC").
		Offset(p.Offset()).Limit(p.PageSize).
		Find(&entries).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":  entries,
		"total":    total,
		"page":     p.Page,
		"pageSize": p.PageSize,
	})
}
