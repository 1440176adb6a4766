package handler

import (
	"net/http"

	"mamane/internal/middleware"
	"mamane/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler reports dependency failures with details; the caller is an authenticated admin.
type AdminHandler struct {
	svc *service.ModerationService
}

func NewAdminHandler(svc *service.ModerationService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type banReq struct {
	UserID   string `json:"userId"`
	IsBanned *bool  `json:"isBanned"`
}

func (h *AdminHandler) Ban(c *gin.Context) {
	var req banReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.IsBanned == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and boolean isBanned are required"})
		return
	}
	if err := h.svc.SetBanned(c.Request.Context(), middleware.UserID(c), req.UserID, *req.IsBanned); err != nil {
		writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "isBanned": *req.IsBanned})
}

func (h *AdminHandler) DeleteTrivia(c *gin.Context) {
	var req struct {
		TriviaID string `json:"triviaId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), middleware.UserID(c), req.TriviaID); err != nil {
		writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	if err := h.svc.VerifyEmail(c.Request.Context(), middleware.UserID(c), req.UserID); err != nil {
		writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) Users(c *gin.Context) {
	list, err := h.svc.ListUsers(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

type categoryReq struct {
	Name      string `json:"name" binding:"required,max=64"`
	Slug      string `json:"slug" binding:"required,max=64"`
	Icon      string `json:"icon" binding:"max=32"`
	Color     string `json:"color" binding:"max=32"`
	SortOrder int    `json:"sort_order"`
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), middleware.UserID(c), service.CategoryInput{
		Name:      req.Name,
		Slug:      req.Slug,
		Icon:      req.Icon,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cat})
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	if err := h.svc.DeleteCategory(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
