package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type EpisodeHandler struct {
	episodeService *services.EpisodeService
	scoringService *services.ScoringService
	hub            *services.Hub
}

func NewEpisodeHandler(episodeService *services.EpisodeService, scoringService *services.ScoringService, hub *services.Hub) *EpisodeHandler {
	return &EpisodeHandler{
		episodeService: episodeService,
		scoringService: scoringService,
		hub:            hub,
	}
}

func (h *EpisodeHandler) CreateEpisode(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.CreateEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	episode, err := h.episodeService.CreateEpisode(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, episode)
}

func (h *EpisodeHandler) ListEpisodes(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	episodes, err := h.episodeService.ListEpisodes(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, episodes)
}

func (h *EpisodeHandler) GetEpisode(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	episodeID, ok := paramID(c, "episodeID")
	if !ok {
		return
	}

	episode, err := h.episodeService.GetEpisode(seasonID, episodeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, episode)
}

func (h *EpisodeHandler) UpdateEpisode(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	episodeID, ok := paramID(c, "episodeID")
	if !ok {
		return
	}

	var req services.UpdateEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	episode, err := h.episodeService.UpdateEpisode(seasonID, episodeID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, episode)
}

func (h *EpisodeHandler) DeleteEpisode(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	episodeID, ok := paramID(c, "episodeID")
	if !ok {
		return
	}

	if err := h.episodeService.DeleteEpisode(seasonID, episodeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Episode deleted successfully"})
}

func (h *EpisodeHandler) GetScoringTemplate(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	episodeID, ok := paramID(c, "episodeID")
	if !ok {
		return
	}

	template, err := h.episodeService.GetScoringTemplate(seasonID, episodeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

func (h *EpisodeHandler) SubmitScores(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	episodeID, ok := paramID(c, "episodeID")
	if !ok {
		return
	}

	var req services.SubmitScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.episodeService.SubmitScores(seasonID, episodeID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastStandings(seasonID)
	c.JSON(http.StatusOK, result)
}

// broadcastStandings pushes the fresh leaderboard to websocket subscribers
// after a score-changing write.
func (h *EpisodeHandler) broadcastStandings(seasonID uint) {
	if h.hub == nil {
		return
	}
	leaderboard, err := h.scoringService.Leaderboard(seasonID)
	if err != nil {
		return
	}
	h.hub.BroadcastToSeason(seasonID, "standings_update", leaderboard)
}
