package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"homebudget/internal/config"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

// Register creates a household member account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := util.ValidateUsername(req.Username); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var count int64
	if err := h.db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	if count > 0 {
		util.Problem(c, http.StatusConflict, "Conflict", "username already taken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), config.Get().Security.BcryptCost)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}
	if user.DisplayName == "" {
		user.DisplayName = req.Username
	}
	if err := h.db.Create(&user).Error; err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(&user))
}

// Login verifies credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	var user models.User
	err := h.db.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Problem(c, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
		return
	}
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		util.Problem(c, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
		return
	}

	cfg := config.Get()
	token, err := util.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, user.ID,
		time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserResponse(&user),
	})
}
