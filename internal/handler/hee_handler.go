package handler

import (
	"net/http"

	"mamane/internal/middleware"
	"mamane/internal/service"

	"github.com/gin-gonic/gin"
)

type HeeHandler struct {
	svc *service.ReactionService
}

func NewHeeHandler(svc *service.ReactionService) *HeeHandler {
	return &HeeHandler{svc: svc}
}

type postIDReq struct {
	PostID string `json:"postId" binding:"required"`
}

// React is POST /api/hee.
func (h *HeeHandler) React(c *gin.Context) {
	var req postIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.svc.React(c.Request.Context(), req.PostID, middleware.UserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status is GET /api/hee?postId=. Anonymous callers have not reacted.
func (h *HeeHandler) Status(c *gin.Context) {
	reacted, err := h.svc.HasReacted(c.Request.Context(), c.Query("postId"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasReacted": reacted})
}

func (h *HeeHandler) Count(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context(), c.Query("postId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
