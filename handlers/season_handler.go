package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type SeasonHandler struct {
	seasonService *services.SeasonService
}

func NewSeasonHandler(seasonService *services.SeasonService) *SeasonHandler {
	return &SeasonHandler{
		seasonService: seasonService,
	}
}

func (h *SeasonHandler) CreateSeason(c *gin.Context) {
	var req services.CreateSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	season, err := h.seasonService.CreateSeason(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, season)
}

func (h *SeasonHandler) ListSeasons(c *gin.Context) {
	seasons, err := h.seasonService.ListSeasons()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, seasons)
}

func (h *SeasonHandler) GetSeason(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	season, err := h.seasonService.GetSeason(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, season)
}

func (h *SeasonHandler) UpdateSeason(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.UpdateSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	season, err := h.seasonService.UpdateSeason(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, season)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *SeasonHandler) UpdateStatus(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	season, err := h.seasonService.UpdateStatus(seasonID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, season)
}

func (h *SeasonHandler) DeleteSeason(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	if err := h.seasonService.DeleteSeason(seasonID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Season deleted successfully"})
}
