package services

import (
	"errors"
	"fmt"

	"torchtally/models"

	"gorm.io/gorm"
)

type PredictionService struct {
	db      *gorm.DB
	scoring *ScoringService
}

func NewPredictionService(db *gorm.DB, scoring *ScoringService) *PredictionService {
	return &PredictionService{db: db, scoring: scoring}
}

type CreatePredictionRequest struct {
	PredictionType string `json:"prediction_type" binding:"required,max=50"`
	CastawayID     uint   `json:"castaway_id" binding:"required"`
}

type ResolvePredictionRequest struct {
	IsCorrect   bool    `json:"is_correct"`
	BonusPoints float64 `json:"bonus_points"`
}

type PredictionResponse struct {
	ID              uint    `json:"id"`
	SeasonID        uint    `json:"season_id"`
	FantasyPlayerID uint    `json:"fantasy_player_id"`
	PlayerName      string  `json:"player_name"`
	PredictionType  string  `json:"prediction_type"`
	CastawayID      uint    `json:"castaway_id"`
	CastawayName    string  `json:"castaway_name"`
	IsCorrect       *bool   `json:"is_correct"`
	BonusPoints     float64 `json:"bonus_points"`
}

// CreatePrediction records a player's pre-season call. Allowed only during
// setup or drafting; one prediction per type per player.
func (s *PredictionService) CreatePrediction(seasonID, playerID uint, req *CreatePredictionRequest) (*PredictionResponse, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}
	if season.Status != models.SeasonSetup && season.Status != models.SeasonDrafting {
		return nil, fmt.Errorf("predictions can only be made during setup or drafting: %w", models.ErrState)
	}

	var castaway models.Castaway
	if err := s.db.Where("id = ? AND season_id = ?", req.CastawayID, seasonID).
		First(&castaway).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("castaway %d: %w", req.CastawayID, models.ErrNotFound)
		}
		return nil, err
	}

	var existing models.Prediction
	err = s.db.Where("season_id = ? AND fantasy_player_id = ? AND prediction_type = ?",
		seasonID, playerID, req.PredictionType).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("prediction of type %q already exists: %w", req.PredictionType, models.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prediction := models.Prediction{
		SeasonID:        seasonID,
		FantasyPlayerID: playerID,
		PredictionType:  req.PredictionType,
		CastawayID:      req.CastawayID,
	}
	if err := s.db.Create(&prediction).Error; err != nil {
		return nil, err
	}
	return s.buildResponse(&prediction)
}

// ListPredictions returns every prediction in a season.
func (s *PredictionService) ListPredictions(seasonID uint) ([]PredictionResponse, error) {
	if _, err := s.findSeason(seasonID); err != nil {
		return nil, err
	}
	var predictions []models.Prediction
	if err := s.db.Where("season_id = ?", seasonID).
		Order("prediction_type, id").
		Find(&predictions).Error; err != nil {
		return nil, err
	}
	return s.buildResponses(predictions)
}

// ListPlayerPredictions returns one player's predictions for a season.
func (s *PredictionService) ListPlayerPredictions(seasonID, playerID uint) ([]PredictionResponse, error) {
	if _, err := s.findSeason(seasonID); err != nil {
		return nil, err
	}
	var predictions []models.Prediction
	if err := s.db.Where("season_id = ? AND fantasy_player_id = ?", seasonID, playerID).
		Find(&predictions).Error; err != nil {
		return nil, err
	}
	return s.buildResponses(predictions)
}

// ResolvePrediction marks a prediction right or wrong and sets its bonus.
// Bonus points feed straight into the player's leaderboard total, so the
// cached standings are invalidated.
func (s *PredictionService) ResolvePrediction(seasonID, predictionID uint, req *ResolvePredictionRequest) (*PredictionResponse, error) {
	var prediction models.Prediction
	err := s.db.Where("id = ? AND season_id = ?", predictionID, seasonID).First(&prediction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("prediction %d: %w", predictionID, models.ErrNotFound)
		}
		return nil, err
	}

	isCorrect := req.IsCorrect
	prediction.IsCorrect = &isCorrect
	if isCorrect {
		prediction.BonusPoints = req.BonusPoints
	} else {
		prediction.BonusPoints = 0
	}
	if err := s.db.Save(&prediction).Error; err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return s.buildResponse(&prediction)
}

func (s *PredictionService) buildResponses(predictions []models.Prediction) ([]PredictionResponse, error) {
	responses := make([]PredictionResponse, 0, len(predictions))
	for i := range predictions {
		response, err := s.buildResponse(&predictions[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *response)
	}
	return responses, nil
}

func (s *PredictionService) buildResponse(prediction *models.Prediction) (*PredictionResponse, error) {
	var player models.FantasyPlayer
	if err := s.db.First(&player, prediction.FantasyPlayerID).Error; err != nil {
		return nil, err
	}
	var castaway models.Castaway
	if err := s.db.First(&castaway, prediction.CastawayID).Error; err != nil {
		return nil, err
	}

	return &PredictionResponse{
		ID:              prediction.ID,
		SeasonID:        prediction.SeasonID,
		FantasyPlayerID: prediction.FantasyPlayerID,
		PlayerName:      player.DisplayName,
		PredictionType:  prediction.PredictionType,
		CastawayID:      prediction.CastawayID,
		CastawayName:    castaway.Name,
		IsCorrect:       prediction.IsCorrect,
		BonusPoints:     prediction.BonusPoints,
	}, nil
}

func (s *PredictionService) findSeason(seasonID uint) (*models.Season, error) {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}
	return &season, nil
}
