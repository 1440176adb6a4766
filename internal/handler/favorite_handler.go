package handler

import (
	"net/http"

	"mamane/internal/middleware"
	"mamane/internal/service"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	svc *service.FavoriteService
}

func NewFavoriteHandler(svc *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

func (h *FavoriteHandler) Toggle(c *gin.Context) {
	var req postIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	on, err := h.svc.Toggle(c.Request.Context(), req.PostID, middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": on})
}

// Get answers either ?postId= for the caller or ?userId= for a user's list.
func (h *FavoriteHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	if postID := c.Query("postId"); postID != "" {
		on, err := h.svc.IsFavorited(ctx, postID, middleware.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorited": on})
		return
	}
	if userID := c.Query("userId"); userID != "" {
		list, err := h.svc.List(ctx, userID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "postId or userId is required"})
}
