package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// CategoryHandler serves category CRUD.
type CategoryHandler struct {
	db *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=income expense"`
}

// List returns categories visible in the request scope, optionally filtered
// by ?type=income|expense.
func (h *CategoryHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Scopes(middleware.ScopedQuery(c))
	if t := c.Query("type"); t != "" {
		q = q.Where("type = ?", t)
	}

	var categories []models.Category
	if err := q.Order("name").Find(&categories).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Create adds a category in the request's write scope.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	scope, ownerID := middleware.WriteTarget(c)
	var count int64
	if err := h.db.Model(&models.Category{}).
		Where("name = ? AND type = ? AND scope = ?", req.Name, req.Type, scope).
		Count(&count).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if count > 0 {
		util.Problem(c, http.StatusConflict, "Conflict", "category already exists")
		return
	}

	cat := models.Category{Name: req.Name, Type: req.Type, Scope: scope, OwnerID: ownerID}
	if err := h.db.Create(&cat).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// Update renames a category.
func (h *CategoryHandler) Update(c *gin.Context) {
	cat, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	cat.Name = req.Name
	cat.Type = req.Type
	if err := h.db.Save(cat).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Delete removes a category; transactions keep a null category afterwards.
func (h *CategoryHandler) Delete(c *gin.Context) {
	cat, err := h.find(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if err := h.db.Delete(cat).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CategoryHandler) find(c *gin.Context) (*models.Category, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	var cat models.Category
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}
