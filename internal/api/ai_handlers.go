package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/ai"
)

func (s *Server) handleGeneratePalette(c *gin.Context) {
	var params ai.MoodParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid mood parameters."})
		return
	}

	palette, err := s.deps.Palettes.Generate(params)
	if err != nil {
		s.logger.Error("palette generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to generate palette"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"palette": palette})
}

func (s *Server) handleGenerateImageQuery(c *gin.Context) {
	var params ai.MoodParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid mood parameters."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": s.deps.Queries.Generate(params)})
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": s.deps.Assistant.Chat(c.Request.Context(), req.Message)})
}
