package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homebudget/internal/chat"
	"homebudget/internal/middleware"
	"homebudget/internal/util"
)

// ChatHandler serves the natural-language assistant.
type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Post sends one message to the assistant. Backend failures come back as an
// unsuccessful body, not an error status; client cancellation is a 499.
func (h *ChatHandler) Post(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Problem(c, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	scope, ownerID := middleware.WriteTarget(c)
	res, err := h.svc.Handle(c.Request.Context(), req.Message, chat.Target{Scope: scope, OwnerID: ownerID})
	if err != nil {
		util.ProblemFromErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
