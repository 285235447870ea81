package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/config"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

const currentUserKey = "currentUser"

// Auth verifies the JWT and loads the authenticated user into the context.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			util.Problem(c, http.StatusUnauthorized, "Unauthorized", "missing token")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(config.Get().JWT.Secret, tokenStr)
		if err != nil {
			util.Problem(c, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			util.Problem(c, http.StatusUnauthorized, "Unauthorized", "user no longer exists")
			c.Abort()
			return
		}

		c.Set(currentUserKey, &user)
		c.Next()
	}
}

// WithUser injects a user directly, bypassing token verification. Used by
// tests that exercise protected routes.
func WithUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil on public routes.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if token, err := c.Cookie("token"); err == nil {
		return token
	}
	return ""
}
