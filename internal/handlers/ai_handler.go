package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	op, ok := operator(c)
	if !ok {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Message is required")
		return
	}

	if h.Assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured (GEMINI_API_KEY)"})
		return
	}

	response, err := h.Assistant.Ask(c.Request.Context(), op, req.Message)
	if err != nil {
		log.Printf("❌ assistant: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant failed to answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": response})
}
