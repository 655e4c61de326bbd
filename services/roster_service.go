package services

import (
	"errors"
	"fmt"

	"torchtally/models"

	"gorm.io/gorm"
)

type RosterService struct {
	db      *gorm.DB
	scoring *ScoringService
}

func NewRosterService(db *gorm.DB, scoring *ScoringService) *RosterService {
	return &RosterService{db: db, scoring: scoring}
}

type DraftPickRequest struct {
	FantasyPlayerID uint `json:"fantasy_player_id" binding:"required"`
	CastawayID      uint `json:"castaway_id" binding:"required"`
	DraftPosition   *int `json:"draft_position"`
}

type FreeAgentPickupRequest struct {
	FantasyPlayerID      uint `json:"fantasy_player_id" binding:"required"`
	CastawayID           uint `json:"castaway_id" binding:"required"`
	PickedUpAfterEpisode *int `json:"picked_up_after_episode"`
}

type RosterEntryResponse struct {
	ID                   uint   `json:"id"`
	SeasonID             uint   `json:"season_id"`
	FantasyPlayerID      uint   `json:"fantasy_player_id"`
	CastawayID           uint   `json:"castaway_id"`
	CastawayName         string `json:"castaway_name"`
	PlayerName           string `json:"player_name"`
	PickupType           string `json:"pickup_type"`
	DraftPosition        *int   `json:"draft_position"`
	PickedUpAfterEpisode *int   `json:"picked_up_after_episode"`
	IsActive             bool   `json:"is_active"`
}

type PlayerRosterResponse struct {
	FantasyPlayerID uint                  `json:"fantasy_player_id"`
	PlayerName      string                `json:"player_name"`
	Castaways       []RosterEntryResponse `json:"castaways"`
}

// DraftPick records a draft selection. Only allowed while the season is in
// drafting status; enforces roster size and castaway draft-count limits.
func (s *RosterService) DraftPick(seasonID uint, req *DraftPickRequest) (*RosterEntryResponse, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}
	if season.Status != models.SeasonDrafting {
		return nil, fmt.Errorf("season must be in drafting status: %w", models.ErrState)
	}

	var rosterCount int64
	if err := s.db.Model(&models.FantasyRoster{}).
		Where("fantasy_player_id = ? AND season_id = ?", req.FantasyPlayerID, seasonID).
		Count(&rosterCount).Error; err != nil {
		return nil, err
	}
	if rosterCount >= int64(season.MaxRosterSize) {
		return nil, fmt.Errorf("player roster is full: %w", models.ErrValidation)
	}

	if err := s.checkCastawayDraftLimit(season, req.CastawayID); err != nil {
		return nil, err
	}

	entry := models.FantasyRoster{
		SeasonID:        seasonID,
		FantasyPlayerID: req.FantasyPlayerID,
		CastawayID:      req.CastawayID,
		PickupType:      models.PickupDraft,
		DraftPosition:   req.DraftPosition,
		IsActive:        true,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return s.buildEntryResponse(&entry)
}

// FreeAgentPickup records a mid-season pickup. Only allowed while the season
// is active; enforces the per-player free agent limit.
func (s *RosterService) FreeAgentPickup(seasonID uint, req *FreeAgentPickupRequest) (*RosterEntryResponse, error) {
	season, err := s.findSeason(seasonID)
	if err != nil {
		return nil, err
	}
	if season.Status != models.SeasonActive {
		return nil, fmt.Errorf("season must be active for free agent pickups: %w", models.ErrState)
	}

	var faCount int64
	if err := s.db.Model(&models.FantasyRoster{}).
		Where("fantasy_player_id = ? AND season_id = ? AND pickup_type = ?",
			req.FantasyPlayerID, seasonID, models.PickupFreeAgent).
		Count(&faCount).Error; err != nil {
		return nil, err
	}
	if faCount >= int64(season.FreeAgentPickupLimit) {
		return nil, fmt.Errorf("free agent pickup limit reached: %w", models.ErrValidation)
	}

	if err := s.checkCastawayDraftLimit(season, req.CastawayID); err != nil {
		return nil, err
	}

	entry := models.FantasyRoster{
		SeasonID:             seasonID,
		FantasyPlayerID:      req.FantasyPlayerID,
		CastawayID:           req.CastawayID,
		PickupType:           models.PickupFreeAgent,
		PickedUpAfterEpisode: req.PickedUpAfterEpisode,
		IsActive:             true,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return s.buildEntryResponse(&entry)
}

// ListRosters returns every player's roster for a season, grouped by player.
func (s *RosterService) ListRosters(seasonID uint) ([]PlayerRosterResponse, error) {
	if _, err := s.findSeason(seasonID); err != nil {
		return nil, err
	}

	var playerIDs []uint
	if err := s.db.Model(&models.FantasyRoster{}).
		Where("season_id = ?", seasonID).
		Distinct("fantasy_player_id").
		Order("fantasy_player_id").
		Pluck("fantasy_player_id", &playerIDs).Error; err != nil {
		return nil, err
	}

	rosters := make([]PlayerRosterResponse, 0, len(playerIDs))
	for _, pid := range playerIDs {
		roster, err := s.GetPlayerRoster(seasonID, pid)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, *roster)
	}
	return rosters, nil
}

// GetPlayerRoster returns one player's roster entries in draft order.
func (s *RosterService) GetPlayerRoster(seasonID, playerID uint) (*PlayerRosterResponse, error) {
	var player models.FantasyPlayer
	if err := s.db.First(&player, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("player %d: %w", playerID, models.ErrNotFound)
		}
		return nil, err
	}

	var entries []models.FantasyRoster
	if err := s.db.Where("season_id = ? AND fantasy_player_id = ?", seasonID, playerID).
		Order("draft_position").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	responses := make([]RosterEntryResponse, 0, len(entries))
	for i := range entries {
		response, err := s.buildEntryResponse(&entries[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *response)
	}

	return &PlayerRosterResponse{
		FantasyPlayerID: playerID,
		PlayerName:      player.DisplayName,
		Castaways:       responses,
	}, nil
}

// ToggleEntry flips a roster entry's active flag. Inactive stints stop
// counting toward the player's total, retroactively.
func (s *RosterService) ToggleEntry(seasonID, rosterID uint) (*RosterEntryResponse, error) {
	var entry models.FantasyRoster
	err := s.db.Where("id = ? AND season_id = ?", rosterID, seasonID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("roster entry %d: %w", rosterID, models.ErrNotFound)
		}
		return nil, err
	}

	entry.IsActive = !entry.IsActive
	if err := s.db.Save(&entry).Error; err != nil {
		return nil, err
	}

	s.scoring.InvalidateStandings(seasonID)
	return s.buildEntryResponse(&entry)
}

func (s *RosterService) checkCastawayDraftLimit(season *models.Season, castawayID uint) error {
	var castaway models.Castaway
	err := s.db.Where("id = ? AND season_id = ?", castawayID, season.ID).First(&castaway).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("castaway %d: %w", castawayID, models.ErrNotFound)
		}
		return err
	}

	var draftCount int64
	if err := s.db.Model(&models.FantasyRoster{}).
		Where("castaway_id = ? AND season_id = ?", castawayID, season.ID).
		Count(&draftCount).Error; err != nil {
		return err
	}
	if draftCount >= int64(season.MaxTimesCastawayDrafted) {
		return fmt.Errorf("castaway already on %d roster(s), max %d: %w",
			draftCount, season.MaxTimesCastawayDrafted, models.ErrValidation)
	}
	return nil
}

func (s *RosterService) buildEntryResponse(entry *models.FantasyRoster) (*RosterEntryResponse, error) {
	var player models.FantasyPlayer
	if err := s.db.First(&player, entry.FantasyPlayerID).Error; err != nil {
		return nil, err
	}
	var castaway models.Castaway
	if err := s.db.First(&castaway, entry.CastawayID).Error; err != nil {
		return nil, err
	}

	return &RosterEntryResponse{
		ID:                   entry.ID,
		SeasonID:             entry.SeasonID,
		FantasyPlayerID:      entry.FantasyPlayerID,
		CastawayID:           entry.CastawayID,
		CastawayName:         castaway.Name,
		PlayerName:           player.DisplayName,
		PickupType:           entry.PickupType,
		DraftPosition:        entry.DraftPosition,
		PickedUpAfterEpisode: entry.PickedUpAfterEpisode,
		IsActive:             entry.IsActive,
	}, nil
}

func (s *RosterService) findSeason(seasonID uint) (*models.Season, error) {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}
	return &season, nil
}
