package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type RosterHandler struct {
	rosterService *services.RosterService
}

func NewRosterHandler(rosterService *services.RosterService) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
	}
}

func (h *RosterHandler) DraftPick(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.DraftPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.rosterService.DraftPick(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *RosterHandler) FreeAgentPickup(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.FreeAgentPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.rosterService.FreeAgentPickup(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *RosterHandler) ListRosters(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	rosters, err := h.rosterService.ListRosters(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rosters)
}

func (h *RosterHandler) GetPlayerRoster(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	playerID, ok := paramID(c, "playerID")
	if !ok {
		return
	}

	roster, err := h.rosterService.GetPlayerRoster(seasonID, playerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}

func (h *RosterHandler) ToggleEntry(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	rosterID, ok := paramID(c, "rosterID")
	if !ok {
		return
	}

	entry, err := h.rosterService.ToggleEntry(seasonID, rosterID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
