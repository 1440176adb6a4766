package handler

import (
	"net/http"

	"mamane/internal/model"
	"mamane/internal/service"

	"github.com/gin-gonic/gin"
)

// NotifyHandler is the server-to-server delivery endpoint.
type NotifyHandler struct {
	notifier service.IntentNotifier
}

func NewNotifyHandler(n service.IntentNotifier) *NotifyHandler {
	return &NotifyHandler{notifier: n}
}

func (h *NotifyHandler) Notify(c *gin.Context) {
	var intent model.Intent
	if err := c.ShouldBindJSON(&intent); err != nil {
		writeBindError(c, err)
		return
	}
	out, err := h.notifier.Notify(c.Request.Context(), intent)
	if err != nil {
		writeError(c, err)
		return
	}
	if out.Skipped() {
		c.JSON(http.StatusOK, gin.H{"success": true, "skipped": true, "reason": out.Reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messageId": out.MessageID})
}
