package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"torchtally/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildScoringPrompt(t *testing.T) {
	season := &models.Season{SeasonNumber: 48, Name: "Survivor 48"}
	episode := &models.Episode{
		EpisodeNumber: 8,
		Title:         "The Merge",
		IsMerge:       true,
		TribesActive:  "Beka",
	}
	castaways := []models.Castaway{
		{Name: "Eva Erickson", CurrentTribe: "Beka", Status: models.CastawayActive},
		{Name: "Joe Hunter", StartingTribe: "Lagi", Status: models.CastawayActive},
	}
	rules := []models.ScoringRule{
		binaryRule("survive_tribal", 1.0, models.PhaseAny),
		perInstanceRule("confessional_count", 0.25, models.PhaseAny),
	}

	systemPrompt, userPrompt := BuildScoringPrompt(season, episode, castaways, rules, "Eva wins immunity.")

	assert.Contains(t, systemPrompt, "valid JSON")
	assert.Contains(t, userPrompt, "Season 48, Episode 8")
	assert.Contains(t, userPrompt, "This is the MERGE episode")
	assert.Contains(t, userPrompt, "Eva Erickson (tribe: Beka")
	assert.Contains(t, userPrompt, "Joe Hunter (tribe: Lagi")
	assert.Contains(t, userPrompt, `"survive_tribal"`)
	assert.Contains(t, userPrompt, `"confessional_count"`)
	assert.Contains(t, userPrompt, "Eva wins immunity.")
}

func TestParseSuggestionsValidatesModelOutput(t *testing.T) {
	castaways := []models.Castaway{
		{ID: 1, Name: "Eva Erickson"},
		{ID: 2, Name: "Joe Hunter"},
	}
	rules := []models.ScoringRule{
		binaryRule("survive_tribal", 1.0, models.PhaseAny),
		perInstanceRule("confessional_count", 0.25, models.PhaseAny),
	}

	payload := &aiPayload{
		Suggestions: []aiSuggestion{
			{
				// Partial name, binary value above 1, fractional and negative
				// counts, and a key no rule knows.
				CastawayName: "Eva",
				Events: map[string]any{
					"survive_tribal":     float64(5),
					"confessional_count": 2.7,
					"made_up_rule":       float64(3),
				},
			},
			{
				CastawayName: "joe hunter",
				Events: map[string]any{
					"survive_tribal":     false,
					"confessional_count": float64(-3),
				},
				ConfidenceNotes: map[string]string{
					"confessional_count": "No recap provided",
					"made_up_rule":       "dropped with its key",
				},
			},
			{
				CastawayName: "Someone Unknown",
				Events:       map[string]any{"survive_tribal": float64(1)},
			},
		},
	}

	items := parseSuggestions(payload, castaways, rules)
	require.Len(t, items, 2)

	eva := items[0]
	assert.Equal(t, uint(1), eva.CastawayID)
	assert.Equal(t, "Eva Erickson", eva.CastawayName)
	assert.Equal(t, 1.0, eva.EventData["survive_tribal"])     // clamped to binary
	assert.Equal(t, 2.0, eva.EventData["confessional_count"]) // truncated to int
	assert.NotContains(t, eva.EventData, "made_up_rule")
	assert.Equal(t, "Estimated, verify manually", eva.ConfidenceNotes["confessional_count"])

	joe := items[1]
	assert.Equal(t, uint(2), joe.CastawayID)
	assert.Equal(t, 0.0, joe.EventData["survive_tribal"])
	assert.Equal(t, 0.0, joe.EventData["confessional_count"]) // negative clamped to 0
	assert.Equal(t, "No recap provided", joe.ConfidenceNotes["confessional_count"])
	assert.NotContains(t, joe.ConfidenceNotes, "made_up_rule")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
}

func TestGenerateSuggestionsRequiresAPIKey(t *testing.T) {
	db, _, _, _ := setupScoringTest(t)
	service := NewSuggestionService(db, "http://localhost", "", "test-model", zap.NewNop())

	_, err := service.GenerateSuggestions(1, 1, "")
	assert.True(t, errors.Is(err, models.ErrState))
}

func TestGenerateSuggestions(t *testing.T) {
	db, _, _, _ := setupScoringTest(t)

	season := createTestSeason(t, db, models.SeasonActive)
	castaway := createTestCastaway(t, db, season.ID, "Eva Erickson")
	episode := createTestEpisode(t, db, season.ID, 3)

	rule := binaryRule("survive_tribal", 1.0, models.PhaseAny)
	rule.SeasonID = season.ID
	require.NoError(t, db.Create(&rule).Error)

	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")

		modelJSON := `{
			"suggestions": [
				{"castaway_name": "Eva", "events": {"survive_tribal": 1}}
			],
			"episode_summary": "Eva survives a chaotic tribal.",
			"eliminated": ["Kevin"],
			"notes": "No recap was provided."
		}`
		response := map[string]any{
			"content": []map[string]any{{"type": "text", "text": "```json\n" + modelJSON + "\n```"}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	service := NewSuggestionService(db, server.URL, "test-key", "test-model", zap.NewNop())

	result, err := service.GenerateSuggestions(season.ID, episode.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, episode.ID, result.EpisodeID)
	assert.Equal(t, 3, result.EpisodeNumber)
	assert.Equal(t, "Eva survives a chaotic tribal.", result.EpisodeSummary)
	assert.Equal(t, []string{"Kevin"}, result.Eliminated)

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, castaway.ID, result.Suggestions[0].CastawayID)
	assert.Equal(t, 1.0, result.Suggestions[0].EventData["survive_tribal"])
}

func TestGenerateSuggestionsEpisodeNotFound(t *testing.T) {
	db, _, _, _ := setupScoringTest(t)
	season := createTestSeason(t, db, models.SeasonActive)

	service := NewSuggestionService(db, "http://localhost", "test-key", "test-model", zap.NewNop())
	_, err := service.GenerateSuggestions(season.ID, 999, "")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGenerateSuggestionsAPIError(t *testing.T) {
	db, _, _, _ := setupScoringTest(t)

	season := createTestSeason(t, db, models.SeasonActive)
	createTestCastaway(t, db, season.ID, "Eva Erickson")
	episode := createTestEpisode(t, db, season.ID, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := NewSuggestionService(db, server.URL, "test-key", "test-model", zap.NewNop())
	_, err := service.GenerateSuggestions(season.ID, episode.ID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
