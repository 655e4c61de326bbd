package services

import (
	"errors"
	"fmt"
	"time"

	"torchtally/models"

	"gorm.io/gorm"
)

type EpisodeService struct {
	db      *gorm.DB
	scoring *ScoringService
}

func NewEpisodeService(db *gorm.DB, scoring *ScoringService) *EpisodeService {
	return &EpisodeService{db: db, scoring: scoring}
}

type CreateEpisodeRequest struct {
	EpisodeNumber int        `json:"episode_number" binding:"required,min=1"`
	Title         string     `json:"title" binding:"max=200"`
	AirDate       *time.Time `json:"air_date"`
	IsMerge       bool       `json:"is_merge"`
	IsFinale      bool       `json:"is_finale"`
	TribesActive  string     `json:"tribes_active" binding:"max=500"`
	Notes         string     `json:"notes"`
}

type UpdateEpisodeRequest struct {
	Title        *string    `json:"title"`
	AirDate      *time.Time `json:"air_date"`
	IsMerge      *bool      `json:"is_merge"`
	IsFinale     *bool      `json:"is_finale"`
	TribesActive *string    `json:"tribes_active"`
	Notes        *string    `json:"notes"`
}

type EventSubmission struct {
	CastawayID uint             `json:"castaway_id" binding:"required"`
	EventData  models.EventData `json:"event_data" binding:"required"`
	Notes      string           `json:"notes"`
}

type SubmitScoresRequest struct {
	Events []EventSubmission `json:"events" binding:"required,min=1,dive"`
}

type CastawayScoreResult struct {
	CastawayID      uint    `json:"castaway_id"`
	CastawayName    string  `json:"castaway_name"`
	CalculatedScore float64 `json:"calculated_score"`
}

type EpisodeScoreResponse struct {
	EpisodeID     uint                  `json:"episode_id"`
	EpisodeNumber int                   `json:"episode_number"`
	Scores        []CastawayScoreResult `json:"scores"`
}

type TemplateRuleItem struct {
	RuleKey    string  `json:"rule_key"`
	RuleName   string  `json:"rule_name"`
	Multiplier string  `json:"multiplier"`
	Phase      string  `json:"phase"`
	Points     float64 `json:"points"`
}

type TemplateCastawayItem struct {
	CastawayID   uint   `json:"castaway_id"`
	CastawayName string `json:"castaway_name"`
	Status       string `json:"status"`
}

// ScoringTemplate is what the commissioner's score-entry form is built from:
// the active rules and the castaways still in the game.
type ScoringTemplate struct {
	EpisodeID     uint                   `json:"episode_id"`
	EpisodeNumber int                    `json:"episode_number"`
	Rules         []TemplateRuleItem     `json:"rules"`
	Castaways     []TemplateCastawayItem `json:"castaways"`
}

// CreateEpisode adds an episode to an active season.
func (s *EpisodeService) CreateEpisode(seasonID uint, req *CreateEpisodeRequest) (*models.Episode, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}
	if season.Status != models.SeasonActive {
		return nil, fmt.Errorf("season must be active to add episodes: %w", models.ErrState)
	}

	episode := models.Episode{
		SeasonID:      seasonID,
		EpisodeNumber: req.EpisodeNumber,
		Title:         req.Title,
		AirDate:       req.AirDate,
		IsMerge:       req.IsMerge,
		IsFinale:      req.IsFinale,
		TribesActive:  req.TribesActive,
		Notes:         req.Notes,
	}
	if err := s.db.Create(&episode).Error; err != nil {
		return nil, err
	}
	return &episode, nil
}

// ListEpisodes returns a season's episodes in airing order.
func (s *EpisodeService) ListEpisodes(seasonID uint) ([]models.Episode, error) {
	if _, err := s.findSeason(seasonID); err != nil {
		return nil, err
	}
	var episodes []models.Episode
	err := s.db.Where("season_id = ?", seasonID).
		Order("episode_number").
		Find(&episodes).Error
	return episodes, err
}

func (s *EpisodeService) GetEpisode(seasonID, episodeID uint) (*models.Episode, error) {
	return s.findEpisode(seasonID, episodeID)
}

// UpdateEpisode applies partial updates. Changing is_merge shifts the phase
// boundary, so the season is rescored when it flips.
func (s *EpisodeService) UpdateEpisode(seasonID, episodeID uint, req *UpdateEpisodeRequest) (*models.Episode, error) {
	episode, err := s.findEpisode(seasonID, episodeID)
	if err != nil {
		return nil, err
	}

	mergeChanged := false
	if req.IsMerge != nil && *req.IsMerge != episode.IsMerge {
		episode.IsMerge = *req.IsMerge
		mergeChanged = true
	}
	if req.Title != nil {
		episode.Title = *req.Title
	}
	if req.AirDate != nil {
		episode.AirDate = req.AirDate
	}
	if req.IsFinale != nil {
		episode.IsFinale = *req.IsFinale
	}
	if req.TribesActive != nil {
		episode.TribesActive = *req.TribesActive
	}
	if req.Notes != nil {
		episode.Notes = *req.Notes
	}

	if err := s.db.Save(episode).Error; err != nil {
		return nil, err
	}

	if mergeChanged {
		if _, err := s.scoring.RescoreSeason(seasonID); err != nil {
			return nil, err
		}
	}
	return episode, nil
}

// DeleteEpisode removes an episode and cascades to its event rows.
func (s *EpisodeService) DeleteEpisode(seasonID, episodeID uint) error {
	episode, err := s.findEpisode(seasonID, episodeID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(episode).Error; err != nil {
		return err
	}
	s.scoring.InvalidateStandings(seasonID)
	return nil
}

// GetScoringTemplate returns the active rules and active castaways for an
// episode's score-entry form.
func (s *EpisodeService) GetScoringTemplate(seasonID, episodeID uint) (*ScoringTemplate, error) {
	episode, err := s.findEpisode(seasonID, episodeID)
	if err != nil {
		return nil, err
	}

	rules, err := s.scoring.ActiveRules(s.db, seasonID)
	if err != nil {
		return nil, err
	}
	ruleItems := make([]TemplateRuleItem, 0, len(rules))
	for _, r := range rules {
		ruleItems = append(ruleItems, TemplateRuleItem{
			RuleKey:    r.RuleKey,
			RuleName:   r.RuleName,
			Multiplier: r.Multiplier,
			Phase:      r.Phase,
			Points:     r.Points,
		})
	}

	var castaways []models.Castaway
	if err := s.db.Where("season_id = ? AND status = ?", seasonID, models.CastawayActive).
		Order("name").
		Find(&castaways).Error; err != nil {
		return nil, err
	}
	castawayItems := make([]TemplateCastawayItem, 0, len(castaways))
	for _, c := range castaways {
		castawayItems = append(castawayItems, TemplateCastawayItem{
			CastawayID:   c.ID,
			CastawayName: c.Name,
			Status:       c.Status,
		})
	}

	return &ScoringTemplate{
		EpisodeID:     episode.ID,
		EpisodeNumber: episode.EpisodeNumber,
		Rules:         ruleItems,
		Castaways:     castawayItems,
	}, nil
}

// SubmitScores upserts per-castaway event data for an episode and computes
// each calculated score with the season's current active rules. The whole
// submission is one transaction: a validation failure on any castaway's data
// persists nothing. The episode is marked scored on success.
func (s *EpisodeService) SubmitScores(seasonID, episodeID uint, req *SubmitScoresRequest) (*EpisodeScoreResponse, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}
	if season.Status != models.SeasonActive {
		return nil, fmt.Errorf("season must be active to submit scores: %w", models.ErrState)
	}

	episode, err := s.findEpisode(seasonID, episodeID)
	if err != nil {
		return nil, err
	}

	response := &EpisodeScoreResponse{
		EpisodeID:     episode.ID,
		EpisodeNumber: episode.EpisodeNumber,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		rules, err := s.scoring.ActiveRules(tx, seasonID)
		if err != nil {
			return err
		}

		for _, submission := range req.Events {
			var castaway models.Castaway
			if err := tx.Where("id = ? AND season_id = ?", submission.CastawayID, seasonID).
				First(&castaway).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("castaway %d: %w", submission.CastawayID, models.ErrNotFound)
				}
				return err
			}

			var event models.CastawayEpisodeEvent
			err := tx.Where("castaway_id = ? AND episode_id = ?", submission.CastawayID, episodeID).
				First(&event).Error
			switch {
			case err == nil:
				event.EventData = submission.EventData
				event.Notes = submission.Notes
				if err := tx.Save(&event).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				event = models.CastawayEpisodeEvent{
					CastawayID: submission.CastawayID,
					EpisodeID:  episodeID,
					EventData:  submission.EventData,
					Notes:      submission.Notes,
				}
				if err := tx.Create(&event).Error; err != nil {
					return err
				}
			default:
				return err
			}

			score, err := s.scoring.ScoreEvent(tx, &event, rules, episode)
			if err != nil {
				return err
			}

			response.Scores = append(response.Scores, CastawayScoreResult{
				CastawayID:      castaway.ID,
				CastawayName:    castaway.Name,
				CalculatedScore: score,
			})
		}

		return tx.Model(&models.Episode{}).
			Where("id = ?", episodeID).
			Update("is_scored", true).Error
	})
	if err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return response, nil
}

func (s *EpisodeService) findSeason(seasonID uint) (*models.Season, error) {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}
	return &season, nil
}

func (s *EpisodeService) findEpisode(seasonID, episodeID uint) (*models.Episode, error) {
	var episode models.Episode
	err := s.db.Where("id = ? AND season_id = ?", episodeID, seasonID).First(&episode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("episode %d: %w", episodeID, models.ErrNotFound)
		}
		return nil, err
	}
	return &episode, nil
}
