package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"torchtally/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupScoringTest builds a ScoringService on an in-memory sqlite database
// and a miniredis-backed cache. Each test gets its own database.
func setupScoringTest(t *testing.T) (*gorm.DB, *miniredis.Miniredis, *redis.Client, *ScoringService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.FantasyPlayer{},
		&models.Season{},
		&models.Castaway{},
		&models.Episode{},
		&models.ScoringRule{},
		&models.CastawayEpisodeEvent{},
		&models.FantasyRoster{},
		&models.Prediction{},
	))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	scoring := NewScoringService(db, redisClient, zap.NewNop())
	return db, mr, redisClient, scoring
}

func createTestSeason(t *testing.T, db *gorm.DB, status string) *models.Season {
	t.Helper()
	season := models.Season{
		SeasonNumber:            48,
		Name:                    "Survivor 48",
		Status:                  status,
		MaxRosterSize:           4,
		FreeAgentPickupLimit:    1,
		MaxTimesCastawayDrafted: 2,
	}
	require.NoError(t, db.Create(&season).Error)
	return &season
}

func createTestCastaway(t *testing.T, db *gorm.DB, seasonID uint, name string) *models.Castaway {
	t.Helper()
	castaway := models.Castaway{SeasonID: seasonID, Name: name, Status: models.CastawayActive}
	require.NoError(t, db.Create(&castaway).Error)
	return &castaway
}

func createTestEpisode(t *testing.T, db *gorm.DB, seasonID uint, number int) *models.Episode {
	t.Helper()
	episode := models.Episode{SeasonID: seasonID, EpisodeNumber: number}
	require.NoError(t, db.Create(&episode).Error)
	return &episode
}

func TestPlayerTotalSkipsInactiveRosterStints(t *testing.T) {
	db, _, _, scoring := setupScoringTest(t)

	season := createTestSeason(t, db, models.SeasonActive)
	player := models.FantasyPlayer{Username: "pat", DisplayName: "Pat", PasswordHash: "x"}
	require.NoError(t, db.Create(&player).Error)

	kept := createTestCastaway(t, db, season.ID, "Kamilla Karthigesu")
	dropped := createTestCastaway(t, db, season.ID, "Rome Cooney")
	episode := createTestEpisode(t, db, season.ID, 1)

	require.NoError(t, db.Create(&models.CastawayEpisodeEvent{
		CastawayID: kept.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true}, CalculatedScore: 3.0,
	}).Error)
	require.NoError(t, db.Create(&models.CastawayEpisodeEvent{
		CastawayID: dropped.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true}, CalculatedScore: 5.0,
	}).Error)

	require.NoError(t, db.Create(&models.FantasyRoster{
		SeasonID: season.ID, FantasyPlayerID: player.ID, CastawayID: kept.ID,
		PickupType: models.PickupDraft, IsActive: true,
	}).Error)
	// IsActive has gorm default:true, so a zero-value false is skipped on
	// Create; force it off with an explicit update.
	require.NoError(t, db.Create(&models.FantasyRoster{
		SeasonID: season.ID, FantasyPlayerID: player.ID, CastawayID: dropped.ID,
		PickupType: models.PickupDraft,
	}).Error)
	require.NoError(t, db.Model(&models.FantasyRoster{}).
		Where("season_id = ? AND castaway_id = ?", season.ID, dropped.ID).
		Update("is_active", false).Error)

	// The deactivated stint contributes nothing, retroactively.
	breakdown, bonus, total, err := scoring.PlayerTotal(db, season.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, bonus)
	assert.Equal(t, 3.0, total)
	require.Len(t, breakdown, 1)
	assert.Equal(t, kept.Name, breakdown[0].CastawayName)

	// Reactivating the stint brings its points back.
	require.NoError(t, db.Model(&models.FantasyRoster{}).
		Where("season_id = ? AND castaway_id = ?", season.ID, dropped.ID).
		Update("is_active", true).Error)

	breakdown, _, total, err = scoring.PlayerTotal(db, season.ID, player.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, total)
	assert.Len(t, breakdown, 2)
}

func TestRescoreSeasonAppliesRuleChanges(t *testing.T) {
	db, _, _, scoring := setupScoringTest(t)

	season := createTestSeason(t, db, models.SeasonActive)
	castaway := createTestCastaway(t, db, season.ID, "Eva Erickson")
	episode := createTestEpisode(t, db, season.ID, 1)

	survive := binaryRule("survive_tribal", 1.0, models.PhaseAny)
	survive.SeasonID = season.ID
	confessionals := perInstanceRule("confessional_count", 0.25, models.PhaseAny)
	confessionals.SeasonID = season.ID
	require.NoError(t, db.Create(&survive).Error)
	require.NoError(t, db.Create(&confessionals).Error)

	event := models.CastawayEpisodeEvent{
		CastawayID: castaway.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true, "confessional_count": float64(4)},
	}
	require.NoError(t, db.Create(&event).Error)

	result, err := scoring.RescoreSeason(season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EpisodesProcessed)
	assert.Equal(t, 1, result.EventsRecalculated)

	var scored models.CastawayEpisodeEvent
	require.NoError(t, db.First(&scored, event.ID).Error)
	assert.Equal(t, 2.0, scored.CalculatedScore) // 1.0 + 0.25*4

	// Bump survive_tribal to 3 points; the persisted score follows while the
	// confessional contribution stays at 1.0.
	require.NoError(t, db.Model(&models.ScoringRule{}).
		Where("id = ?", survive.ID).
		Update("points", 3.0).Error)

	_, err = scoring.RescoreSeason(season.ID)
	require.NoError(t, err)
	require.NoError(t, db.First(&scored, event.ID).Error)
	assert.Equal(t, 4.0, scored.CalculatedScore)
}

func TestRescoreSeasonSkipsOrphanedEvents(t *testing.T) {
	db, _, _, scoring := setupScoringTest(t)

	season := createTestSeason(t, db, models.SeasonActive)
	castaway := createTestCastaway(t, db, season.ID, "Joe Hunter")
	episode := createTestEpisode(t, db, season.ID, 1)

	rule := binaryRule("survive_tribal", 1.0, models.PhaseAny)
	rule.SeasonID = season.ID
	require.NoError(t, db.Create(&rule).Error)

	good := models.CastawayEpisodeEvent{
		CastawayID: castaway.ID, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true},
	}
	require.NoError(t, db.Create(&good).Error)

	// Stray row referencing a castaway that no longer exists.
	orphan := models.CastawayEpisodeEvent{
		CastawayID: castaway.ID + 1000, EpisodeID: episode.ID,
		EventData: models.EventData{"survive_tribal": true}, CalculatedScore: 7.5,
	}
	require.NoError(t, db.Create(&orphan).Error)

	result, err := scoring.RescoreSeason(season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.EventsRecalculated)

	var reloaded models.CastawayEpisodeEvent
	require.NoError(t, db.First(&reloaded, good.ID).Error)
	assert.Equal(t, 1.0, reloaded.CalculatedScore)

	var reloadedOrphan models.CastawayEpisodeEvent
	require.NoError(t, db.First(&reloadedOrphan, orphan.ID).Error)
	assert.Equal(t, 7.5, reloadedOrphan.CalculatedScore)
}

func TestDeleteSeasonDropsCachedStandings(t *testing.T) {
	db, mr, redisClient, scoring := setupScoringTest(t)

	season := createTestSeason(t, db, models.SeasonSetup)
	seasonService := NewSeasonService(db, scoring)

	require.NoError(t, redisClient.Set(context.Background(),
		standingsKey(season.ID), []byte(`{"season_id":48,"entries":[]}`), time.Minute).Err())

	require.NoError(t, seasonService.DeleteSeason(season.ID))
	assert.False(t, mr.Exists(standingsKey(season.ID)))
}
