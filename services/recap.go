package services

import (
	"errors"
	"fmt"
	"sort"

	"torchtally/models"

	"gorm.io/gorm"
)

type RecapCastawayItem struct {
	CastawayName string   `json:"castaway_name"`
	EpisodeScore float64  `json:"episode_score"`
	DraftedBy    []string `json:"drafted_by"`
}

type RecapPlayerItem struct {
	PlayerName   string  `json:"player_name"`
	EpisodeScore float64 `json:"episode_score"`
	SeasonTotal  float64 `json:"season_total"`
}

type WeeklyRecap struct {
	SeasonID        uint                `json:"season_id"`
	EpisodeID       uint                `json:"episode_id"`
	EpisodeNumber   int                 `json:"episode_number"`
	EpisodeTitle    string              `json:"episode_title"`
	CastawayScores  []RecapCastawayItem `json:"castaway_scores"`
	PlayerStandings []RecapPlayerItem   `json:"player_standings"`
}

// WeeklyRecap summarizes one episode: each scored castaway with who drafted
// them, and each player's episode score next to their running season total.
func (s *ScoringService) WeeklyRecap(seasonID uint, episodeNumber int) (*WeeklyRecap, error) {
	var episode models.Episode
	err := s.db.Where("season_id = ? AND episode_number = ?", seasonID, episodeNumber).
		First(&episode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("episode %d: %w", episodeNumber, models.ErrNotFound)
		}
		return nil, err
	}

	var events []models.CastawayEpisodeEvent
	if err := s.db.Where("episode_id = ?", episode.ID).
		Order("calculated_score DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	castawayScores := make([]RecapCastawayItem, 0, len(events))
	for _, event := range events {
		var castaway models.Castaway
		if err := s.db.First(&castaway, event.CastawayID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		var draftedBy []string
		if err := s.db.Model(&models.FantasyPlayer{}).
			Joins("JOIN fantasy_rosters ON fantasy_rosters.fantasy_player_id = fantasy_players.id").
			Where("fantasy_rosters.castaway_id = ? AND fantasy_rosters.season_id = ? AND fantasy_rosters.is_active = ?",
				castaway.ID, seasonID, true).
			Pluck("fantasy_players.display_name", &draftedBy).Error; err != nil {
			return nil, err
		}

		castawayScores = append(castawayScores, RecapCastawayItem{
			CastawayName: castaway.Name,
			EpisodeScore: event.CalculatedScore,
			DraftedBy:    draftedBy,
		})
	}

	var players []models.FantasyPlayer
	if err := s.db.
		Joins("JOIN fantasy_rosters ON fantasy_rosters.fantasy_player_id = fantasy_players.id").
		Where("fantasy_rosters.season_id = ?", seasonID).
		Distinct("fantasy_players.*").
		Find(&players).Error; err != nil {
		return nil, err
	}

	standings := make([]RecapPlayerItem, 0, len(players))
	for _, player := range players {
		var castawayIDs []uint
		if err := s.db.Model(&models.FantasyRoster{}).
			Where("fantasy_player_id = ? AND season_id = ? AND is_active = ?", player.ID, seasonID, true).
			Pluck("castaway_id", &castawayIDs).Error; err != nil {
			return nil, err
		}

		episodeScore := 0.0
		seasonTotal := 0.0
		for _, cid := range castawayIDs {
			var event models.CastawayEpisodeEvent
			err := s.db.Where("castaway_id = ? AND episode_id = ?", cid, episode.ID).
				First(&event).Error
			if err == nil {
				episodeScore += event.CalculatedScore
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}

			total, err := s.CastawaySeasonTotal(s.db, seasonID, cid)
			if err != nil {
				return nil, err
			}
			seasonTotal += total
		}

		standings = append(standings, RecapPlayerItem{
			PlayerName:   player.DisplayName,
			EpisodeScore: Round2(episodeScore),
			SeasonTotal:  Round2(seasonTotal),
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].SeasonTotal > standings[j].SeasonTotal
	})

	return &WeeklyRecap{
		SeasonID:        seasonID,
		EpisodeID:       episode.ID,
		EpisodeNumber:   episodeNumber,
		EpisodeTitle:    episode.Title,
		CastawayScores:  castawayScores,
		PlayerStandings: standings,
	}, nil
}
