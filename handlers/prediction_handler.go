package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type PredictionHandler struct {
	predictionService *services.PredictionService
}

func NewPredictionHandler(predictionService *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
	}
}

func (h *PredictionHandler) CreatePrediction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.CreatePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prediction, err := h.predictionService.CreatePrediction(seasonID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, prediction)
}

func (h *PredictionHandler) ListPredictions(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	predictions, err := h.predictionService.ListPredictions(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, predictions)
}

func (h *PredictionHandler) MyPredictions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	predictions, err := h.predictionService.ListPlayerPredictions(seasonID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, predictions)
}

func (h *PredictionHandler) ResolvePrediction(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	predictionID, ok := paramID(c, "predictionID")
	if !ok {
		return
	}

	var req services.ResolvePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prediction, err := h.predictionService.ResolvePrediction(seasonID, predictionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}
