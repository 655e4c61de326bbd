package handlers

import (
	"net/http"
	"strconv"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	scoringService *services.ScoringService
}

func NewLeaderboardHandler(scoringService *services.ScoringService) *LeaderboardHandler {
	return &LeaderboardHandler{
		scoringService: scoringService,
	}
}

func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	leaderboard, err := h.scoringService.Leaderboard(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, leaderboard)
}

func (h *LeaderboardHandler) CastawayRankings(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	rankings, err := h.scoringService.CastawayRankings(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rankings)
}

func (h *LeaderboardHandler) WeeklyRecap(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	episodeNumber, err := strconv.Atoi(c.Param("episodeNumber"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid episode number"})
		return
	}

	recap, err := h.scoringService.WeeklyRecap(seasonID, episodeNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recap)
}
