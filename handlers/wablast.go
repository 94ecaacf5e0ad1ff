package handlers

import (
	"net/http"

	"booking-svc/wablast"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WABlastHandler struct {
	wa     *wablast.Client
	logger *zap.Logger
}

func NewWABlastHandler(wa *wablast.Client, logger *zap.Logger) *WABlastHandler {
	return &WABlastHandler{wa: wa, logger: logger}
}

// GetStatus reports whether the WhatsApp session is connected.
func (h *WABlastHandler) GetStatus(c *gin.Context) {
	if !h.wa.IsConfigured() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"configured": false, "connected": false},
		})
		return
	}

	status := h.wa.GetSessionStatus(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"configured": true,
			"connected":  status.Connected,
			"status":     status.Status,
			"message":    status.Detail,
		},
	})
}

type sendTestRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendTest sends a plain text message, used from the admin panel to verify
// the WhatsApp session before going live.
func (h *WABlastHandler) SendTest(c *gin.Context) {
	var req sendTestRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Phone and message are required"})
		return
	}

	result := h.wa.SendMessage(c.Request.Context(), req.Phone, req.Message)
	if !result.Success {
		h.logger.Warn("Test message failed", zap.String("phone", req.Phone), zap.String("error", result.Error))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": result.Error})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message sent"})
}
