package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type CastawayHandler struct {
	castawayService *services.CastawayService
}

func NewCastawayHandler(castawayService *services.CastawayService) *CastawayHandler {
	return &CastawayHandler{
		castawayService: castawayService,
	}
}

func (h *CastawayHandler) CreateCastaway(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.CreateCastawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	castaway, err := h.castawayService.CreateCastaway(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, castaway)
}

func (h *CastawayHandler) BulkCreateCastaways(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.BulkCreateCastawaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	castaways, err := h.castawayService.BulkCreateCastaways(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, castaways)
}

func (h *CastawayHandler) ListCastaways(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	castaways, err := h.castawayService.ListCastaways(seasonID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, castaways)
}

func (h *CastawayHandler) GetCastaway(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	castawayID, ok := paramID(c, "castawayID")
	if !ok {
		return
	}

	castaway, err := h.castawayService.GetCastaway(seasonID, castawayID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, castaway)
}

func (h *CastawayHandler) UpdateCastaway(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	castawayID, ok := paramID(c, "castawayID")
	if !ok {
		return
	}

	var req services.UpdateCastawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	castaway, err := h.castawayService.UpdateCastaway(seasonID, castawayID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, castaway)
}

func (h *CastawayHandler) DeleteCastaway(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	castawayID, ok := paramID(c, "castawayID")
	if !ok {
		return
	}

	if err := h.castawayService.DeleteCastaway(seasonID, castawayID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Castaway deleted successfully"})
}
