package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type SuggestionHandler struct {
	suggestionService *services.SuggestionService
}

func NewSuggestionHandler(suggestionService *services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		suggestionService: suggestionService,
	}
}

// GenerateSuggestions returns AI-drafted event values for an episode's
// score-entry form. Nothing is persisted; the commissioner reviews and
// submits through the normal scoring endpoint.
func (h *SuggestionHandler) GenerateSuggestions(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	episodeID, ok := paramID(c, "episodeID")
	if !ok {
		return
	}

	var req services.GenerateSuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions, err := h.suggestionService.GenerateSuggestions(seasonID, episodeID, req.RecapText)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestions)
}
