package handlers

import (
	"net/http"

	"torchtally/services"

	"github.com/gin-gonic/gin"
)

type RuleHandler struct {
	ruleService    *services.RuleService
	scoringService *services.ScoringService
	hub            *services.Hub
}

func NewRuleHandler(ruleService *services.RuleService, scoringService *services.ScoringService, hub *services.Hub) *RuleHandler {
	return &RuleHandler{
		ruleService:    ruleService,
		scoringService: scoringService,
		hub:            hub,
	}
}

func (h *RuleHandler) ListRules(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	rules, err := h.ruleService.ListRules(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

func (h *RuleHandler) CreateRule(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	var req services.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.ruleService.CreateRule(seasonID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastStandings(seasonID)
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) UpdateRule(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	ruleID, ok := paramID(c, "ruleID")
	if !ok {
		return
	}

	var req services.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.ruleService.UpdateRule(seasonID, ruleID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastStandings(seasonID)
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) DeleteRule(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}
	ruleID, ok := paramID(c, "ruleID")
	if !ok {
		return
	}

	if err := h.ruleService.DeleteRule(seasonID, ruleID); err != nil {
		respondError(c, err)
		return
	}

	h.broadcastStandings(seasonID)
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted successfully"})
}

// RescoreSeason recomputes every persisted score against the current rule
// set. Exposed for manual use; rule mutations already trigger it.
func (h *RuleHandler) RescoreSeason(c *gin.Context) {
	seasonID, ok := paramID(c, "seasonID")
	if !ok {
		return
	}

	result, err := h.scoringService.RescoreSeason(seasonID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.broadcastStandings(seasonID)
	c.JSON(http.StatusOK, result)
}

func (h *RuleHandler) broadcastStandings(seasonID uint) {
	if h.hub == nil {
		return
	}
	leaderboard, err := h.scoringService.Leaderboard(seasonID)
	if err != nil {
		return
	}
	h.hub.BroadcastToSeason(seasonID, "standings_update", leaderboard)
}
