package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"homebudget/internal/config"
	"homebudget/internal/middleware"
	"homebudget/internal/util"
)

// ProfileHandler serves the authenticated user's own record.
type ProfileHandler struct {
	db *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// Me returns the current user.
func (h *ProfileHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
}

// Update changes the display name.
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user := middleware.CurrentUser(c)
	user.DisplayName = req.DisplayName
	if err := h.db.Save(user).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ChangePassword verifies the old password and stores a new hash.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := util.ValidatePassword(req.NewPassword); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user := middleware.CurrentUser(c)
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		util.Problem(c, http.StatusUnauthorized, "Unauthorized", "old password is wrong")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), config.Get().Security.BcryptCost)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	user.PasswordHash = string(hash)
	if err := h.db.Save(user).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
