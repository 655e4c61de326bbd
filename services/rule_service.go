package services

import (
	"errors"
	"fmt"

	"torchtally/models"

	"gorm.io/gorm"
)

// RuleService manages a season's scoring rules. Every mutation triggers a
// full season rescore so persisted scores always reflect the current rule
// set.
type RuleService struct {
	db      *gorm.DB
	scoring *ScoringService
}

func NewRuleService(db *gorm.DB, scoring *ScoringService) *RuleService {
	return &RuleService{db: db, scoring: scoring}
}

type CreateRuleRequest struct {
	RuleKey     string  `json:"rule_key" binding:"required,max=50"`
	RuleName    string  `json:"rule_name" binding:"required,max=100"`
	Points      float64 `json:"points"`
	Multiplier  string  `json:"multiplier" binding:"required"`
	Phase       string  `json:"phase"`
	Description string  `json:"description"`
	IsActive    *bool   `json:"is_active"`
	SortOrder   int     `json:"sort_order"`
}

type UpdateRuleRequest struct {
	RuleName    *string  `json:"rule_name"`
	Points      *float64 `json:"points"`
	Multiplier  *string  `json:"multiplier"`
	Phase       *string  `json:"phase"`
	Description *string  `json:"description"`
	IsActive    *bool    `json:"is_active"`
	SortOrder   *int     `json:"sort_order"`
}

// ListRules returns all rules for a season in display order, including
// inactive ones.
func (s *RuleService) ListRules(seasonID uint) ([]models.ScoringRule, error) {
	if err := s.seasonExists(seasonID); err != nil {
		return nil, err
	}
	var rules []models.ScoringRule
	err := s.db.Where("season_id = ?", seasonID).
		Order("sort_order, id").
		Find(&rules).Error
	return rules, err
}

// CreateRule adds a rule to a season and rescores existing events against
// the new rule set.
func (s *RuleService) CreateRule(seasonID uint, req *CreateRuleRequest) (*models.ScoringRule, error) {
	if err := s.seasonExists(seasonID); err != nil {
		return nil, err
	}
	if !models.ValidMultiplier(req.Multiplier) {
		return nil, fmt.Errorf("invalid multiplier %q: %w", req.Multiplier, models.ErrValidation)
	}
	phase := req.Phase
	if phase == "" {
		phase = models.PhaseAny
	}
	if !models.ValidPhase(phase) {
		return nil, fmt.Errorf("invalid phase %q: %w", phase, models.ErrValidation)
	}

	var existing models.ScoringRule
	err := s.db.Where("season_id = ? AND rule_key = ?", seasonID, req.RuleKey).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("rule key %q already exists for this season: %w", req.RuleKey, models.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := models.ScoringRule{
		SeasonID:    seasonID,
		RuleKey:     req.RuleKey,
		RuleName:    req.RuleName,
		Points:      req.Points,
		Multiplier:  req.Multiplier,
		Phase:       phase,
		Description: req.Description,
		IsActive:    isActive,
		SortOrder:   req.SortOrder,
	}
	// Rule creation and the rescore commit together: if any existing event
	// fails validation under the new rule, the rule is not created.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
		_, err := s.scoring.RescoreSeasonTx(tx, seasonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return &rule, nil
}

// UpdateRule applies partial updates to a rule, then rescores the season.
func (s *RuleService) UpdateRule(seasonID, ruleID uint, req *UpdateRuleRequest) (*models.ScoringRule, error) {
	rule, err := s.findRule(seasonID, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Multiplier != nil {
		if !models.ValidMultiplier(*req.Multiplier) {
			return nil, fmt.Errorf("invalid multiplier %q: %w", *req.Multiplier, models.ErrValidation)
		}
		rule.Multiplier = *req.Multiplier
	}
	if req.Phase != nil {
		if !models.ValidPhase(*req.Phase) {
			return nil, fmt.Errorf("invalid phase %q: %w", *req.Phase, models.ErrValidation)
		}
		rule.Phase = *req.Phase
	}
	if req.RuleName != nil {
		rule.RuleName = *req.RuleName
	}
	if req.Points != nil {
		rule.Points = *req.Points
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.SortOrder != nil {
		rule.SortOrder = *req.SortOrder
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(rule).Error; err != nil {
			return err
		}
		_, err := s.scoring.RescoreSeasonTx(tx, seasonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return rule, nil
}

// DeleteRule removes a rule and rescores the season. Event rows keep any
// stale keys for the deleted rule; the engine ignores them from here on.
func (s *RuleService) DeleteRule(seasonID, ruleID uint) error {
	rule, err := s.findRule(seasonID, ruleID)
	if err != nil {
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(rule).Error; err != nil {
			return err
		}
		_, err := s.scoring.RescoreSeasonTx(tx, seasonID)
		return err
	})
	if err != nil {
		return err
	}

	s.scoring.InvalidateStandings(seasonID)
	return nil
}

func (s *RuleService) findRule(seasonID, ruleID uint) (*models.ScoringRule, error) {
	var rule models.ScoringRule
	err := s.db.Where("id = ? AND season_id = ?", ruleID, seasonID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rule %d: %w", ruleID, models.ErrNotFound)
		}
		return nil, err
	}
	return &rule, nil
}

func (s *RuleService) seasonExists(seasonID uint) error {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return err
	}
	return nil
}
