package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"torchtally/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScoringService is the scoring engine: it reads the season's scoring rules
// from the database, applies them to castaway episode events, and derives the
// fantasy leaderboard. Changing rules in the scoring_rules table changes how
// scores come out; no code changes needed. The engine holds no state between
// calls.
type ScoringService struct {
	db    *gorm.DB
	redis *redis.Client
	log   *zap.Logger
}

func NewScoringService(db *gorm.DB, redisClient *redis.Client, log *zap.Logger) *ScoringService {
	return &ScoringService{
		db:    db,
		redis: redisClient,
		log:   log,
	}
}

const standingsCacheTTL = 5 * time.Minute

type CastawayBreakdownItem struct {
	CastawayID   uint    `json:"castaway_id"`
	CastawayName string  `json:"castaway_name"`
	PickupType   string  `json:"pickup_type"`
	TotalScore   float64 `json:"total_score"`
}

type LeaderboardEntry struct {
	Rank            int                     `json:"rank"`
	PlayerID        uint                    `json:"player_id"`
	PlayerName      string                  `json:"player_name"`
	IsCommissioner  bool                    `json:"is_commissioner"`
	RosterBreakdown []CastawayBreakdownItem `json:"roster_breakdown"`
	PredictionBonus float64                 `json:"prediction_bonus"`
	GrandTotal      float64                 `json:"grand_total"`
}

type LeaderboardResponse struct {
	SeasonID uint               `json:"season_id"`
	Entries  []LeaderboardEntry `json:"entries"`
}

type CastawayRankingItem struct {
	Rank         int     `json:"rank"`
	CastawayID   uint    `json:"castaway_id"`
	CastawayName string  `json:"castaway_name"`
	Status       string  `json:"status"`
	TotalScore   float64 `json:"total_score"`
}

type CastawayRankingsResponse struct {
	SeasonID uint                  `json:"season_id"`
	Rankings []CastawayRankingItem `json:"rankings"`
}

type RescoreResult struct {
	EpisodesProcessed  int `json:"episodes_processed"`
	EventsRecalculated int `json:"events_recalculated"`
}

// Round2 rounds to the 2-decimal precision scores are stored at. Unrounded
// intermediate sums are never persisted.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// CalculateEventScore computes the score for a single castaway's episode
// events. It is a pure function of its inputs; persistence is the caller's
// responsibility.
//
// Each active rule whose key appears in eventData contributes:
//   - binary: Points if the submitted value is truthy, else 0
//   - per_instance: Points * count, where count must be a non-negative integer
//
// Rules scoped to pre_merge or post_merge are skipped when the episode's
// phase does not match. Keys in eventData that match no active rule are
// ignored (stale keys from deleted rules); callers can surface them via
// UnmatchedKeys for visibility.
func CalculateEventScore(eventData models.EventData, rules []models.ScoringRule, isPostMerge bool) (float64, error) {
	total := 0.0

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if rule.Phase == models.PhasePreMerge && isPostMerge {
			continue
		}
		if rule.Phase == models.PhasePostMerge && !isPostMerge {
			continue
		}

		raw, ok := eventData[rule.RuleKey]
		if !ok || raw == nil {
			continue
		}

		switch rule.Multiplier {
		case models.MultiplierBinary:
			truthy, err := truthyValue(raw)
			if err != nil {
				return 0, fmt.Errorf("rule %q: %w", rule.RuleKey, err)
			}
			if truthy {
				total += rule.Points
			}
		case models.MultiplierPerInstance:
			count, err := countValue(raw)
			if err != nil {
				return 0, fmt.Errorf("rule %q: %w", rule.RuleKey, err)
			}
			total += rule.Points * count
		}
	}

	return Round2(total), nil
}

// truthyValue interprets a binary rule's submitted value. Booleans and
// numbers are accepted; any nonzero number counts as true.
func truthyValue(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	default:
		return false, fmt.Errorf("value must be a boolean or number, got %T: %w", raw, models.ErrValidation)
	}
}

// countValue interprets a per-instance rule's submitted value: a
// non-negative integer count.
func countValue(raw any) (float64, error) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case int:
		n = float64(v)
	default:
		return 0, fmt.Errorf("count must be a number, got %T: %w", raw, models.ErrValidation)
	}
	if n < 0 {
		return 0, fmt.Errorf("count must not be negative: %w", models.ErrValidation)
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("count must be an integer: %w", models.ErrValidation)
	}
	return n, nil
}

// UnmatchedKeys returns event_data keys that match no rule in the set. These
// are tolerated (typically stale keys left over from rule deletions) but
// worth logging.
func UnmatchedKeys(eventData models.EventData, rules []models.ScoringRule) []string {
	known := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		known[r.RuleKey] = struct{}{}
	}
	var stale []string
	for key := range eventData {
		if _, ok := known[key]; !ok {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// CompetitionRanks assigns standard competition ranks (1, 2, 2, 4) to a
// list of totals that is already sorted in descending order: tied totals
// share a rank, and the next distinct total takes its 1-indexed position.
func CompetitionRanks(totals []float64) []int {
	ranks := make([]int, len(totals))
	for i := range totals {
		if i > 0 && totals[i] == totals[i-1] {
			ranks[i] = ranks[i-1]
		} else {
			ranks[i] = i + 1
		}
	}
	return ranks
}

// ActiveRules fetches the active scoring rules for a season, in display order.
func (s *ScoringService) ActiveRules(tx *gorm.DB, seasonID uint) ([]models.ScoringRule, error) {
	var rules []models.ScoringRule
	err := tx.Where("season_id = ? AND is_active = ?", seasonID, true).
		Order("sort_order, id").
		Find(&rules).Error
	return rules, err
}

// episodeIsPostMerge reports whether the episode falls at or after the
// season's merge episode.
func (s *ScoringService) episodeIsPostMerge(tx *gorm.DB, episode *models.Episode) (bool, error) {
	var count int64
	err := tx.Model(&models.Episode{}).
		Where("season_id = ? AND is_merge = ? AND episode_number <= ?",
			episode.SeasonID, true, episode.EpisodeNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ScoreEvent computes and caches the score for one castaway episode event.
// The updated CalculatedScore is written back to the event row.
func (s *ScoringService) ScoreEvent(tx *gorm.DB, event *models.CastawayEpisodeEvent, rules []models.ScoringRule, episode *models.Episode) (float64, error) {
	isPostMerge, err := s.episodeIsPostMerge(tx, episode)
	if err != nil {
		return 0, err
	}

	if stale := UnmatchedKeys(event.EventData, rules); len(stale) > 0 {
		s.log.Warn("event data contains keys with no matching rule",
			zap.Uint("castaway_id", event.CastawayID),
			zap.Uint("episode_id", event.EpisodeID),
			zap.Strings("keys", stale))
	}

	score, err := CalculateEventScore(event.EventData, rules, isPostMerge)
	if err != nil {
		return 0, err
	}

	event.CalculatedScore = score
	if err := tx.Model(&models.CastawayEpisodeEvent{}).
		Where("id = ?", event.ID).
		Update("calculated_score", score).Error; err != nil {
		return 0, err
	}
	return score, nil
}

// RescoreSeason recomputes every persisted event score in the season using
// the currently active rule set. It runs in a single transaction so readers
// never observe a half-updated season. Triggered after any rule change.
func (s *ScoringService) RescoreSeason(seasonID uint) (*RescoreResult, error) {
	var result *RescoreResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.RescoreSeasonTx(tx, seasonID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateStandings(seasonID)
	s.log.Info("season rescored",
		zap.Uint("season_id", seasonID),
		zap.Int("episodes", result.EpisodesProcessed),
		zap.Int("events", result.EventsRecalculated))
	return result, nil
}

// RescoreSeasonTx runs the rescore inside the caller's transaction, so a rule
// mutation and its rescore commit or roll back together. The caller is
// responsible for invalidating the standings cache after commit.
func (s *ScoringService) RescoreSeasonTx(tx *gorm.DB, seasonID uint) (*RescoreResult, error) {
	result := &RescoreResult{}

	var season models.Season
	if err := tx.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}

	rules, err := s.ActiveRules(tx, seasonID)
	if err != nil {
		return nil, err
	}

	var episodes []models.Episode
	if err := tx.Where("season_id = ?", seasonID).
		Order("episode_number").
		Find(&episodes).Error; err != nil {
		return nil, err
	}

	// Castaway ids still present, to skip orphaned event rows. Cascade
	// deletes should make orphans impossible, but a stray row must not
	// abort the whole rescore.
	var castawayIDs []uint
	if err := tx.Model(&models.Castaway{}).
		Where("season_id = ?", seasonID).
		Pluck("id", &castawayIDs).Error; err != nil {
		return nil, err
	}
	alive := make(map[uint]struct{}, len(castawayIDs))
	for _, id := range castawayIDs {
		alive[id] = struct{}{}
	}

	for i := range episodes {
		episode := &episodes[i]

		var events []models.CastawayEpisodeEvent
		if err := tx.Where("episode_id = ?", episode.ID).Find(&events).Error; err != nil {
			return nil, err
		}

		for j := range events {
			if _, ok := alive[events[j].CastawayID]; !ok {
				s.log.Warn("skipping event for missing castaway",
					zap.Uint("event_id", events[j].ID),
					zap.Uint("castaway_id", events[j].CastawayID))
				continue
			}
			if _, err := s.ScoreEvent(tx, &events[j], rules, episode); err != nil {
				return nil, err
			}
			result.EventsRecalculated++
		}
		result.EpisodesProcessed++
	}

	return result, nil
}

// CastawaySeasonTotal sums a castaway's episode scores across the season.
func (s *ScoringService) CastawaySeasonTotal(tx *gorm.DB, seasonID, castawayID uint) (float64, error) {
	var total float64
	err := tx.Model(&models.CastawayEpisodeEvent{}).
		Joins("JOIN episodes ON episodes.id = castaway_episode_events.episode_id").
		Where("castaway_episode_events.castaway_id = ? AND episodes.season_id = ?", castawayID, seasonID).
		Select("COALESCE(SUM(castaway_episode_events.calculated_score), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return Round2(total), nil
}

// PlayerTotal computes a fantasy player's score for a season: the sum of
// season totals of castaways on active roster entries, plus resolved
// prediction bonuses. Inactive (dropped) roster stints do not count.
func (s *ScoringService) PlayerTotal(tx *gorm.DB, seasonID, playerID uint) ([]CastawayBreakdownItem, float64, float64, error) {
	var entries []models.FantasyRoster
	if err := tx.Where("season_id = ? AND fantasy_player_id = ? AND is_active = ?",
		seasonID, playerID, true).
		Order("draft_position").
		Find(&entries).Error; err != nil {
		return nil, 0, 0, err
	}

	breakdown := make([]CastawayBreakdownItem, 0, len(entries))
	grandTotal := 0.0
	for _, entry := range entries {
		castawayTotal, err := s.CastawaySeasonTotal(tx, seasonID, entry.CastawayID)
		if err != nil {
			return nil, 0, 0, err
		}

		var castaway models.Castaway
		if err := tx.First(&castaway, entry.CastawayID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, 0, 0, err
		}

		breakdown = append(breakdown, CastawayBreakdownItem{
			CastawayID:   entry.CastawayID,
			CastawayName: castaway.Name,
			PickupType:   entry.PickupType,
			TotalScore:   castawayTotal,
		})
		grandTotal += castawayTotal
	}

	var bonus float64
	if err := tx.Model(&models.Prediction{}).
		Where("season_id = ? AND fantasy_player_id = ? AND is_correct = ?", seasonID, playerID, true).
		Select("COALESCE(SUM(bonus_points), 0)").
		Scan(&bonus).Error; err != nil {
		return nil, 0, 0, err
	}
	grandTotal += bonus

	return breakdown, bonus, Round2(grandTotal), nil
}

// Leaderboard builds the full fantasy leaderboard for a season, ranked by
// grand total descending with standard competition ranking for ties.
// Results are cached in Redis until the next score-changing write.
func (s *ScoringService) Leaderboard(seasonID uint) (*LeaderboardResponse, error) {
	if cached := s.cachedLeaderboard(seasonID); cached != nil {
		return cached, nil
	}

	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}

	var players []models.FantasyPlayer
	if err := s.db.
		Joins("JOIN fantasy_rosters ON fantasy_rosters.fantasy_player_id = fantasy_players.id").
		Where("fantasy_rosters.season_id = ?", seasonID).
		Distinct("fantasy_players.*").
		Find(&players).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(players))
	for _, player := range players {
		breakdown, bonus, grandTotal, err := s.PlayerTotal(s.db, seasonID, player.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, LeaderboardEntry{
			PlayerID:        player.ID,
			PlayerName:      player.DisplayName,
			IsCommissioner:  player.IsCommissioner,
			RosterBreakdown: breakdown,
			PredictionBonus: bonus,
			GrandTotal:      grandTotal,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].GrandTotal > entries[j].GrandTotal
	})
	totals := make([]float64, len(entries))
	for i := range entries {
		totals[i] = entries[i].GrandTotal
	}
	for i, rank := range CompetitionRanks(totals) {
		entries[i].Rank = rank
	}

	response := &LeaderboardResponse{SeasonID: seasonID, Entries: entries}
	s.cacheLeaderboard(seasonID, response)
	return response, nil
}

// CastawayRankings ranks every castaway in the season by total score,
// independent of roster ownership.
func (s *ScoringService) CastawayRankings(seasonID uint) (*CastawayRankingsResponse, error) {
	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}

	var castaways []models.Castaway
	if err := s.db.Where("season_id = ?", seasonID).Order("name").Find(&castaways).Error; err != nil {
		return nil, err
	}

	rankings := make([]CastawayRankingItem, 0, len(castaways))
	for _, c := range castaways {
		total, err := s.CastawaySeasonTotal(s.db, seasonID, c.ID)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, CastawayRankingItem{
			CastawayID:   c.ID,
			CastawayName: c.Name,
			Status:       c.Status,
			TotalScore:   total,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].TotalScore > rankings[j].TotalScore
	})
	totals := make([]float64, len(rankings))
	for i := range rankings {
		totals[i] = rankings[i].TotalScore
	}
	for i, rank := range CompetitionRanks(totals) {
		rankings[i].Rank = rank
	}

	return &CastawayRankingsResponse{SeasonID: seasonID, Rankings: rankings}, nil
}

// InvalidateStandings drops the cached leaderboard for a season. Called
// after any write that can change scores.
func (s *ScoringService) InvalidateStandings(seasonID uint) {
	if s.redis == nil {
		return
	}
	ctx := context.Background()
	if err := s.redis.Del(ctx, standingsKey(seasonID)).Err(); err != nil {
		s.log.Warn("failed to invalidate standings cache",
			zap.Uint("season_id", seasonID), zap.Error(err))
	}
}

func standingsKey(seasonID uint) string {
	return fmt.Sprintf("standings:season:%d", seasonID)
}

func (s *ScoringService) cacheLeaderboard(seasonID uint, response *LeaderboardResponse) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(response)
	if err != nil {
		s.log.Warn("failed to marshal leaderboard for cache", zap.Error(err))
		return
	}
	ctx := context.Background()
	if err := s.redis.Set(ctx, standingsKey(seasonID), data, standingsCacheTTL).Err(); err != nil {
		s.log.Warn("failed to cache leaderboard",
			zap.Uint("season_id", seasonID), zap.Error(err))
	}
}

func (s *ScoringService) cachedLeaderboard(seasonID uint) *LeaderboardResponse {
	if s.redis == nil {
		return nil
	}
	ctx := context.Background()
	data, err := s.redis.Get(ctx, standingsKey(seasonID)).Result()
	if err != nil {
		return nil
	}
	var response LeaderboardResponse
	if err := json.Unmarshal([]byte(data), &response); err != nil {
		return nil
	}
	return &response
}
