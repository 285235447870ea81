package middleware

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/models"
)

// Audit records every mutating request to the audit log after the handler
// has run. Reads are not audited.
func Audit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.Method == "GET" || c.Request.Method == "HEAD" {
			return
		}

		entry := models.AuditLog{
			Method:    c.Request.Method,
			Path:      c.FullPath(),
			Action:    fmt.Sprintf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond)),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if user := CurrentUser(c); user != nil {
			id := user.ID
			entry.UserID = &id
		}

		if err := db.Create(&entry).Error; err != nil {
			slog.Warn("audit log write failed", "error", err)
		}
	}
}

// RequestLogger logs each request with method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).Round(time.Microsecond),
			"ip", c.ClientIP(),
		)
	}
}
