package services

import (
	"errors"
	"fmt"

	"torchtally/models"

	"gorm.io/gorm"
)

type SeasonService struct {
	db      *gorm.DB
	scoring *ScoringService
}

func NewSeasonService(db *gorm.DB, scoring *ScoringService) *SeasonService {
	return &SeasonService{db: db, scoring: scoring}
}

// validTransitions is the season lifecycle state machine. Completed seasons
// can be reopened if a scoring correction comes in after the finale.
var validTransitions = map[string][]string{
	models.SeasonSetup:    {models.SeasonDrafting},
	models.SeasonDrafting: {models.SeasonActive},
	models.SeasonActive:   {models.SeasonComplete},
	models.SeasonComplete: {models.SeasonActive},
}

type CreateSeasonRequest struct {
	SeasonNumber            int    `json:"season_number" binding:"required"`
	Name                    string `json:"name" binding:"required,max=100"`
	MaxRosterSize           int    `json:"max_roster_size"`
	FreeAgentPickupLimit    int    `json:"free_agent_pickup_limit"`
	MaxTimesCastawayDrafted int    `json:"max_times_castaway_drafted"`
	LogoURL                 string `json:"logo_url"`
	CopyRulesFromSeasonID   *uint  `json:"copy_rules_from_season_id"`
}

type UpdateSeasonRequest struct {
	Name                    *string `json:"name"`
	MaxRosterSize           *int    `json:"max_roster_size"`
	FreeAgentPickupLimit    *int    `json:"free_agent_pickup_limit"`
	MaxTimesCastawayDrafted *int    `json:"max_times_castaway_drafted"`
	LogoURL                 *string `json:"logo_url"`
}

type SeasonDetail struct {
	models.Season
	CastawayCount int64 `json:"castaway_count"`
	EpisodeCount  int64 `json:"episode_count"`
	PlayerCount   int64 `json:"player_count"`
}

// CreateSeason creates a season in setup status and seeds its scoring rules,
// either copied from a previous season or from the default set.
func (s *SeasonService) CreateSeason(req *CreateSeasonRequest) (*models.Season, error) {
	season := models.Season{
		SeasonNumber:            req.SeasonNumber,
		Name:                    req.Name,
		Status:                  models.SeasonSetup,
		MaxRosterSize:           req.MaxRosterSize,
		FreeAgentPickupLimit:    req.FreeAgentPickupLimit,
		MaxTimesCastawayDrafted: req.MaxTimesCastawayDrafted,
		LogoURL:                 req.LogoURL,
	}
	if season.MaxRosterSize == 0 {
		season.MaxRosterSize = 4
	}
	if season.FreeAgentPickupLimit == 0 {
		season.FreeAgentPickupLimit = 1
	}
	if season.MaxTimesCastawayDrafted == 0 {
		season.MaxTimesCastawayDrafted = 2
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Season
		err := tx.Where("season_number = ?", req.SeasonNumber).First(&existing).Error
		if err == nil {
			return fmt.Errorf("season number %d already exists: %w", req.SeasonNumber, models.ErrConflict)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&season).Error; err != nil {
			return err
		}

		if req.CopyRulesFromSeasonID != nil {
			return CopyRulesFromSeason(tx, *req.CopyRulesFromSeasonID, season.ID)
		}
		return SeedDefaultRules(tx, season.ID)
	})
	if err != nil {
		return nil, err
	}
	return &season, nil
}

// ListSeasons returns all seasons, newest season number first.
func (s *SeasonService) ListSeasons() ([]models.Season, error) {
	var seasons []models.Season
	err := s.db.Order("season_number DESC").Find(&seasons).Error
	return seasons, err
}

// GetSeason returns a season with castaway/episode/player counts.
func (s *SeasonService) GetSeason(seasonID uint) (*SeasonDetail, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}

	detail := SeasonDetail{Season: *season}

	if err := s.db.Model(&models.Castaway{}).
		Where("season_id = ?", seasonID).
		Count(&detail.CastawayCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Episode{}).
		Where("season_id = ?", seasonID).
		Count(&detail.EpisodeCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.FantasyRoster{}).
		Where("season_id = ?", seasonID).
		Distinct("fantasy_player_id").
		Count(&detail.PlayerCount).Error; err != nil {
		return nil, err
	}

	return &detail, nil
}

// UpdateSeason applies partial updates to season settings.
func (s *SeasonService) UpdateSeason(seasonID uint, req *UpdateSeasonRequest) (*models.Season, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		season.Name = *req.Name
	}
	if req.MaxRosterSize != nil {
		season.MaxRosterSize = *req.MaxRosterSize
	}
	if req.FreeAgentPickupLimit != nil {
		season.FreeAgentPickupLimit = *req.FreeAgentPickupLimit
	}
	if req.MaxTimesCastawayDrafted != nil {
		season.MaxTimesCastawayDrafted = *req.MaxTimesCastawayDrafted
	}
	if req.LogoURL != nil {
		season.LogoURL = *req.LogoURL
	}

	if err := s.db.Save(season).Error; err != nil {
		return nil, err
	}
	return season, nil
}

// UpdateStatus advances the season through its lifecycle. Only the
// transitions in validTransitions are allowed.
func (s *SeasonService) UpdateStatus(seasonID uint, newStatus string) (*models.Season, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}

	if !models.ValidSeasonStatus(newStatus) {
		return nil, fmt.Errorf("invalid status %q: %w", newStatus, models.ErrValidation)
	}

	allowed := false
	for _, next := range validTransitions[season.Status] {
		if next == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot transition from %s to %s: %w",
			season.Status, newStatus, models.ErrState)
	}

	season.Status = newStatus
	if err := s.db.Save(season).Error; err != nil {
		return nil, err
	}
	return season, nil
}

// DeleteSeason removes a season and, via cascade, its castaways, episodes,
// events, rules, rosters and predictions. Only setup seasons can be deleted.
func (s *SeasonService) DeleteSeason(seasonID uint) error {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return err
	}
	if season.Status != models.SeasonSetup {
		return fmt.Errorf("can only delete seasons in setup status: %w", models.ErrState)
	}
	if err := s.db.Delete(&models.Season{}, seasonID).Error; err != nil {
		return err
	}
	// A cached leaderboard would otherwise outlive the season for the TTL.
	s.scoring.InvalidateStandings(seasonID)
	return nil
}

func (s *SeasonService) findSeason(seasonID uint) (*models.Season, error) {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}
	return &season, nil
}
