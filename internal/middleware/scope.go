package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/models"
)

const scopeKey = "budgetScope"

// Selection is the scope the request operates in, parsed from the
// X-Budget-Scope header. Absent header means ALL.
type Selection struct {
	All   bool
	Scope models.Scope
}

// Scope parses the X-Budget-Scope header (SHARED, PERSONAL or ALL) and
// stores the selection for handlers. Absent or unrecognized values select ALL.
func Scope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.ToUpper(strings.TrimSpace(c.GetHeader("X-Budget-Scope")))
		switch raw {
		case string(models.ScopeShared):
			c.Set(scopeKey, Selection{Scope: models.ScopeShared})
		case string(models.ScopePersonal):
			c.Set(scopeKey, Selection{Scope: models.ScopePersonal})
		default:
			c.Set(scopeKey, Selection{All: true})
		}
		c.Next()
	}
}

// ScopeSelection returns the request's parsed scope selection.
func ScopeSelection(c *gin.Context) Selection {
	v, ok := c.Get(scopeKey)
	if !ok {
		return Selection{All: true}
	}
	sel, _ := v.(Selection)
	return sel
}

// ScopedQuery returns a gorm scope restricting rows to what the caller may
// see. Other users' personal rows are never visible, regardless of header.
func ScopedQuery(c *gin.Context) func(*gorm.DB) *gorm.DB {
	sel := ScopeSelection(c)
	user := CurrentUser(c)
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case sel.All && user != nil:
			return db.Where("scope = ? OR (scope = ? AND owner_id = ?)",
				models.ScopeShared, models.ScopePersonal, user.ID)
		case sel.All:
			return db.Where("scope = ?", models.ScopeShared)
		case sel.Scope == models.ScopePersonal && user != nil:
			return db.Where("scope = ? AND owner_id = ?", models.ScopePersonal, user.ID)
		case sel.Scope == models.ScopePersonal:
			// personal without an authenticated user matches nothing
			return db.Where("1 = 0")
		default:
			return db.Where("scope = ?", models.ScopeShared)
		}
	}
}

// WriteTarget resolves the scope and owner new records are created under.
// ALL writes land in SHARED.
func WriteTarget(c *gin.Context) (models.Scope, *uint) {
	sel := ScopeSelection(c)
	if sel.All || sel.Scope == models.ScopeShared {
		return models.ScopeShared, nil
	}
	user := CurrentUser(c)
	if user == nil {
		return models.ScopePersonal, nil
	}
	id := user.ID
	return models.ScopePersonal, &id
}
