package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homebudget/internal/apperr"
	"homebudget/internal/importer"
	"homebudget/internal/middleware"
	"homebudget/internal/models"
	"homebudget/internal/util"
)

// ImportHandler serves CSV statement import: preview, one-shot import, and
// commit of caller-edited rows.
type ImportHandler struct {
	db  *gorm.DB
	svc *importer.Service
}

func NewImportHandler(db *gorm.DB, svc *importer.Service) *ImportHandler {
	return &ImportHandler{db: db, svc: svc}
}

// Preview parses an uploaded CSV and flags duplicates without writing.
// Multipart form: file=<csv>, account_id=<id>.
func (h *ImportHandler) Preview(c *gin.Context) {
	target, file, err := h.uploadTarget(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	defer file.Close()

	res, err := h.svc.Preview(c.Request.Context(), file, target)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Import parses an uploaded CSV and persists every valid non-duplicate row.
func (h *ImportHandler) Import(c *gin.Context) {
	target, file, err := h.uploadTarget(c)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	defer file.Close()

	res, err := h.svc.Import(c.Request.Context(), file, target)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type commitRequest struct {
	AccountID uint                 `json:"accountId" binding:"required"`
	Rows      []importer.CommitRow `json:"rows" binding:"required"`
}

// Commit persists rows the caller reviewed and possibly edited after a
// preview. Duplicates are skipped unless the row's forceImport is set.
func (h *ImportHandler) Commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if len(req.Rows) == 0 {
		util.ProblemFromErr(c, apperr.Validationf("no rows to commit"))
		return
	}

	target, err := h.target(c, req.AccountID)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}

	res, err := h.svc.Commit(c.Request.Context(), req.Rows, target)
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// uploadTarget resolves the account and opens the CSV payload: a multipart
// "file" field, or the raw request body when the upload is not multipart
// (account_id then comes from the query string).
func (h *ImportHandler) uploadTarget(c *gin.Context) (importer.Target, io.ReadCloser, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		target, err := h.queryTarget(c)
		if err != nil {
			return importer.Target{}, nil, err
		}
		return target, c.Request.Body, nil
	}

	raw := c.PostForm("account_id")
	accountID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || accountID == 0 {
		return importer.Target{}, nil, apperr.Validationf("invalid account_id %q", raw)
	}

	target, err := h.target(c, uint(accountID))
	if err != nil {
		return importer.Target{}, nil, err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return importer.Target{}, nil, apperr.Validationf("missing CSV upload: %v", err)
	}
	file, err := fh.Open()
	if err != nil {
		return importer.Target{}, nil, err
	}
	return target, file, nil
}

func (h *ImportHandler) queryTarget(c *gin.Context) (importer.Target, error) {
	raw := c.Query("account_id")
	accountID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || accountID == 0 {
		return importer.Target{}, apperr.Validationf("invalid account_id %q", raw)
	}
	return h.target(c, uint(accountID))
}

func (h *ImportHandler) target(c *gin.Context, accountID uint) (importer.Target, error) {
	var acct models.Account
	if err := h.db.WithContext(c.Request.Context()).
		Scopes(middleware.ScopedQuery(c)).
		First(&acct, accountID).Error; err != nil {
		return importer.Target{}, err
	}
	scope, ownerID := middleware.WriteTarget(c)
	return importer.Target{Account: &acct, Scope: scope, OwnerID: ownerID}, nil
}
