package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homebudget/internal/util"
)

// Trace assigns every request a trace id, honoring one supplied by the
// client, and echoes it back in the response header.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(util.TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)
		c.Next()
	}
}
