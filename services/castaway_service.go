package services

import (
	"errors"
	"fmt"
	"sort"

	"torchtally/models"

	"gorm.io/gorm"
)

type CastawayService struct {
	db      *gorm.DB
	scoring *ScoringService
}

func NewCastawayService(db *gorm.DB, scoring *ScoringService) *CastawayService {
	return &CastawayService{db: db, scoring: scoring}
}

type CreateCastawayRequest struct {
	Name          string `json:"name" binding:"required,max=100"`
	Age           int    `json:"age"`
	Occupation    string `json:"occupation" binding:"max=200"`
	StartingTribe string `json:"starting_tribe" binding:"max=100"`
	CurrentTribe  string `json:"current_tribe" binding:"max=100"`
	Bio           string `json:"bio"`
	PhotoURL      string `json:"photo_url"`
}

type BulkCreateCastawaysRequest struct {
	Castaways []CreateCastawayRequest `json:"castaways" binding:"required,min=1,dive"`
}

type UpdateCastawayRequest struct {
	Name           *string `json:"name"`
	Age            *int    `json:"age"`
	Occupation     *string `json:"occupation"`
	CurrentTribe   *string `json:"current_tribe"`
	Bio            *string `json:"bio"`
	PhotoURL       *string `json:"photo_url"`
	Status         *string `json:"status"`
	FinalPlacement *int    `json:"final_placement"`
}

type CastawayEpisodeScore struct {
	EpisodeID     uint             `json:"episode_id"`
	EpisodeNumber int              `json:"episode_number"`
	EventData     models.EventData `json:"event_data"`
	Score         float64          `json:"score"`
}

type CastawayDetail struct {
	models.Castaway
	TotalScore    float64                `json:"total_score"`
	EpisodeScores []CastawayEpisodeScore `json:"episode_scores"`
}

// CreateCastaway adds a single castaway to a season's cast.
func (s *CastawayService) CreateCastaway(seasonID uint, req *CreateCastawayRequest) (*models.Castaway, error) {
	if err := s.seasonExists(seasonID); err != nil {
		return nil, err
	}
	castaway := s.buildCastaway(seasonID, req)
	if err := s.db.Create(castaway).Error; err != nil {
		return nil, err
	}
	return castaway, nil
}

// BulkCreateCastaways adds a whole cast at once, all-or-nothing.
func (s *CastawayService) BulkCreateCastaways(seasonID uint, req *BulkCreateCastawaysRequest) ([]models.Castaway, error) {
	if err := s.seasonExists(seasonID); err != nil {
		return nil, err
	}

	created := make([]models.Castaway, 0, len(req.Castaways))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range req.Castaways {
			castaway := s.buildCastaway(seasonID, &req.Castaways[i])
			if err := tx.Create(castaway).Error; err != nil {
				return err
			}
			created = append(created, *castaway)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListCastaways returns a season's cast alphabetically, optionally filtered
// by lifecycle status.
func (s *CastawayService) ListCastaways(seasonID uint, status string) ([]models.Castaway, error) {
	if err := s.seasonExists(seasonID); err != nil {
		return nil, err
	}
	query := s.db.Where("season_id = ?", seasonID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var castaways []models.Castaway
	err := query.Order("name").Find(&castaways).Error
	return castaways, err
}

// GetCastaway returns a castaway with season total and per-episode score
// breakdown.
func (s *CastawayService) GetCastaway(seasonID, castawayID uint) (*CastawayDetail, error) {
	castaway, err := s.findCastaway(seasonID, castawayID)
	if err != nil {
		return nil, err
	}

	total, err := s.scoring.CastawaySeasonTotal(s.db, seasonID, castawayID)
	if err != nil {
		return nil, err
	}

	var events []models.CastawayEpisodeEvent
	if err := s.db.Where("castaway_id = ?", castawayID).Find(&events).Error; err != nil {
		return nil, err
	}

	scores := make([]CastawayEpisodeScore, 0, len(events))
	for _, event := range events {
		var episode models.Episode
		if err := s.db.First(&episode, event.EpisodeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		scores = append(scores, CastawayEpisodeScore{
			EpisodeID:     episode.ID,
			EpisodeNumber: episode.EpisodeNumber,
			EventData:     event.EventData,
			Score:         event.CalculatedScore,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].EpisodeNumber < scores[j].EpisodeNumber
	})

	return &CastawayDetail{
		Castaway:      *castaway,
		TotalScore:    total,
		EpisodeScores: scores,
	}, nil
}

// UpdateCastaway applies partial updates, including status changes
// (eliminated/evacuated/quit) and final placement.
func (s *CastawayService) UpdateCastaway(seasonID, castawayID uint, req *UpdateCastawayRequest) (*models.Castaway, error) {
	castaway, err := s.findCastaway(seasonID, castawayID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		switch *req.Status {
		case models.CastawayActive, models.CastawayEliminated, models.CastawayEvacuated, models.CastawayQuit:
			castaway.Status = *req.Status
		default:
			return nil, fmt.Errorf("invalid status %q: %w", *req.Status, models.ErrValidation)
		}
	}
	if req.Name != nil {
		castaway.Name = *req.Name
	}
	if req.Age != nil {
		castaway.Age = *req.Age
	}
	if req.Occupation != nil {
		castaway.Occupation = *req.Occupation
	}
	if req.CurrentTribe != nil {
		castaway.CurrentTribe = *req.CurrentTribe
	}
	if req.Bio != nil {
		castaway.Bio = *req.Bio
	}
	if req.PhotoURL != nil {
		castaway.PhotoURL = *req.PhotoURL
	}
	if req.FinalPlacement != nil {
		castaway.FinalPlacement = req.FinalPlacement
	}

	if err := s.db.Save(castaway).Error; err != nil {
		return nil, err
	}
	return castaway, nil
}

// DeleteCastaway removes a castaway and cascades to their event rows.
func (s *CastawayService) DeleteCastaway(seasonID, castawayID uint) error {
	castaway, err := s.findCastaway(seasonID, castawayID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(castaway).Error; err != nil {
		return err
	}
	s.scoring.InvalidateStandings(seasonID)
	return nil
}

func (s *CastawayService) buildCastaway(seasonID uint, req *CreateCastawayRequest) *models.Castaway {
	currentTribe := req.CurrentTribe
	if currentTribe == "" {
		currentTribe = req.StartingTribe
	}
	return &models.Castaway{
		SeasonID:      seasonID,
		Name:          req.Name,
		Age:           req.Age,
		Occupation:    req.Occupation,
		StartingTribe: req.StartingTribe,
		CurrentTribe:  currentTribe,
		Bio:           req.Bio,
		PhotoURL:      req.PhotoURL,
		Status:        models.CastawayActive,
	}
}

func (s *CastawayService) findCastaway(seasonID, castawayID uint) (*models.Castaway, error) {
	var castaway models.Castaway
	err := s.db.Where("id = ? AND season_id = ?", castawayID, seasonID).First(&castaway).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("castaway %d: %w", castawayID, models.ErrNotFound)
		}
		return nil, err
	}
	return &castaway, nil
}

func (s *CastawayService) seasonExists(seasonID uint) error {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return err
	}
	return nil
}
