package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"torchtally/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SuggestionService pre-fills the commissioner's score-entry form with
// AI-generated suggestions. The commissioner pastes an episode recap
// (optional), the model returns structured per-castaway event values keyed by
// rule_key, and the commissioner reviews and adjusts before submitting.
// Nothing is persisted here; suggestions feed the same form that SubmitScores
// accepts.
type SuggestionService struct {
	db         *gorm.DB
	httpClient *resty.Client
	apiKey     string
	model      string
	log        *zap.Logger
}

func NewSuggestionService(db *gorm.DB, apiURL, apiKey, model string, log *zap.Logger) *SuggestionService {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(60 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("anthropic-version", "2023-06-01")

	return &SuggestionService{
		db:         db,
		httpClient: client,
		apiKey:     apiKey,
		model:      model,
		log:        log,
	}
}

type GenerateSuggestionsRequest struct {
	RecapText string `json:"recap_text"`
}

type SuggestionItem struct {
	CastawayID      uint              `json:"castaway_id"`
	CastawayName    string            `json:"castaway_name"`
	EventData       models.EventData  `json:"event_data"`
	ConfidenceNotes map[string]string `json:"confidence_notes"`
}

type SuggestionResponse struct {
	EpisodeID      uint             `json:"episode_id"`
	EpisodeNumber  int              `json:"episode_number"`
	Suggestions    []SuggestionItem `json:"suggestions"`
	EpisodeSummary string           `json:"episode_summary"`
	Eliminated     []string         `json:"eliminated"`
	Notes          string           `json:"notes"`
}

// aiPayload is the JSON the model is instructed to produce.
type aiPayload struct {
	Suggestions    []aiSuggestion `json:"suggestions"`
	EpisodeSummary string         `json:"episode_summary"`
	Eliminated     []string       `json:"eliminated"`
	Notes          string         `json:"notes"`
}

type aiSuggestion struct {
	CastawayName    string            `json:"castaway_name"`
	Events          map[string]any    `json:"events"`
	ConfidenceNotes map[string]string `json:"confidence_notes"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// BuildScoringPrompt assembles the system and user prompts from the season's
// cast, rules and episode context. Pure function of its inputs.
func BuildScoringPrompt(season *models.Season, episode *models.Episode, castaways []models.Castaway, rules []models.ScoringRule, recapText string) (string, string) {
	systemPrompt := "You are a Survivor episode scoring assistant for a fantasy league. " +
		"You will be given a list of castaways, scoring rules, and episode context. " +
		"Respond with valid JSON only, no markdown fences, no commentary outside the JSON."

	var castawayLines []string
	for _, c := range castaways {
		tribe := c.CurrentTribe
		if tribe == "" {
			tribe = c.StartingTribe
		}
		if tribe == "" {
			tribe = "Unknown"
		}
		castawayLines = append(castawayLines,
			fmt.Sprintf("  - %s (tribe: %s, status: %s)", c.Name, tribe, c.Status))
	}

	var ruleLines []string
	for _, r := range rules {
		points := fmt.Sprintf("%+g", r.Points)
		desc := ""
		if r.Description != "" {
			desc = " -- " + r.Description
		}
		ruleLines = append(ruleLines, fmt.Sprintf(
			"  - rule_key: %q, name: %q, type: %s, phase: %s, points: %s%s",
			r.RuleKey, r.RuleName, r.Multiplier, r.Phase, points, desc))
	}

	context := []string{fmt.Sprintf("Season %d, Episode %d", season.SeasonNumber, episode.EpisodeNumber)}
	if episode.Title != "" {
		context = append(context, fmt.Sprintf("Title: %q", episode.Title))
	}
	if episode.IsMerge {
		context = append(context, "This is the MERGE episode")
	}
	if episode.IsFinale {
		context = append(context, "This is the FINALE episode")
	}
	if episode.TribesActive != "" {
		context = append(context, "Active tribes: "+episode.TribesActive)
	}

	recapSection := ""
	if strings.TrimSpace(recapText) != "" {
		recapSection = "\nEPISODE RECAP (use this as your primary source):\n" +
			strings.TrimSpace(recapText) + "\n"
	}

	userPrompt := fmt.Sprintf(`Score the following Survivor episode.

EPISODE: %s.

CASTAWAYS (active this episode):
%s

SCORING RULES (use these exact rule_key values):
%s
%s
INSTRUCTIONS:
- For each castaway, provide values for ALL rule_keys.
- Binary rules: use 1 (happened) or 0 (did not happen). Do NOT omit rules, output 0 if it did not happen.
- Per-instance rules: use the count (0 if none).
- For "confessional_count": estimate based on the recap if available, and flag it as low-confidence.
- If no recap is provided, make your best guess based on typical Survivor episode patterns and flag uncertain values.
- "survive_tribal" = 1 for everyone who was NOT voted out/eliminated this episode.
- Only the eliminated castaway(s) get survive_tribal = 0.

OUTPUT FORMAT (valid JSON, no markdown):
{
  "suggestions": [
    {
      "castaway_name": "Name",
      "events": {"rule_key": 0},
      "confidence_notes": {"rule_key": "reason this is uncertain"}
    }
  ],
  "episode_summary": "Brief 1-2 sentence summary of the episode",
  "eliminated": ["Name of eliminated castaway(s)"],
  "notes": "Any caveats about the scoring suggestions"
}`,
		strings.Join(context, ". "),
		strings.Join(castawayLines, "\n"),
		strings.Join(ruleLines, "\n"),
		recapSection)

	return systemPrompt, userPrompt
}

// parseSuggestions validates the model's output against the real cast and
// rule set: unknown castaways are skipped, unknown rule keys dropped, binary
// values clamped to 0/1 and per-instance values to non-negative integers. The
// output is safe to feed straight into the score-entry form.
func parseSuggestions(payload *aiPayload, castaways []models.Castaway, rules []models.ScoringRule) []SuggestionItem {
	byName := make(map[string]*models.Castaway, len(castaways))
	for i := range castaways {
		byName[strings.ToLower(castaways[i].Name)] = &castaways[i]
	}

	validKeys := make(map[string]struct{}, len(rules))
	binaryKeys := make(map[string]struct{})
	for _, r := range rules {
		validKeys[r.RuleKey] = struct{}{}
		if r.Multiplier == models.MultiplierBinary {
			binaryKeys[r.RuleKey] = struct{}{}
		}
	}

	var items []SuggestionItem
	for _, suggestion := range payload.Suggestions {
		castaway := matchCastaway(suggestion.CastawayName, byName)
		if castaway == nil {
			continue
		}

		events := models.EventData{}
		for key, raw := range suggestion.Events {
			if _, ok := validKeys[key]; !ok {
				continue
			}
			value := numericValue(raw)
			if _, binary := binaryKeys[key]; binary {
				if value != 0 {
					value = 1
				}
			} else {
				value = math.Max(0, math.Trunc(value))
			}
			events[key] = value
		}

		notes := make(map[string]string)
		for key, note := range suggestion.ConfidenceNotes {
			if _, ok := validKeys[key]; ok {
				notes[key] = note
			}
		}
		if _, ok := events["confessional_count"]; ok {
			if _, flagged := notes["confessional_count"]; !flagged {
				notes["confessional_count"] = "Estimated, verify manually"
			}
		}

		items = append(items, SuggestionItem{
			CastawayID:      castaway.ID,
			CastawayName:    castaway.Name,
			EventData:       events,
			ConfidenceNotes: notes,
		})
	}
	return items
}

// matchCastaway resolves the model's name to a real castaway: exact
// case-insensitive match first, then substring either way (the model often
// uses first names).
func matchCastaway(rawName string, byName map[string]*models.Castaway) *models.Castaway {
	name := strings.ToLower(strings.TrimSpace(rawName))
	if name == "" {
		return nil
	}
	if c, ok := byName[name]; ok {
		return c
	}
	var keys []string
	for key := range byName {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return byName[key]
		}
	}
	return nil
}

func numericValue(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// stripFences removes a markdown code fence the model sometimes wraps its
// JSON in despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
	}
	if strings.HasSuffix(text, "```") {
		text = strings.TrimRight(strings.TrimSuffix(text, "```"), " \n")
	}
	return text
}

// GenerateSuggestions loads the episode context, asks the model to score it,
// and returns validated per-castaway suggestions.
func (s *SuggestionService) GenerateSuggestions(seasonID, episodeID uint, recapText string) (*SuggestionResponse, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI scoring is not configured, set AI_API_KEY: %w", models.ErrState)
	}

	var season models.Season
	if err := s.db.First(&season, seasonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("season %d: %w", seasonID, models.ErrNotFound)
		}
		return nil, err
	}

	var episode models.Episode
	err := s.db.Where("id = ? AND season_id = ?", episodeID, seasonID).First(&episode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("episode %d: %w", episodeID, models.ErrNotFound)
		}
		return nil, err
	}

	var castaways []models.Castaway
	if err := s.db.Where("season_id = ? AND status = ?", seasonID, models.CastawayActive).
		Order("name").
		Find(&castaways).Error; err != nil {
		return nil, err
	}

	var rules []models.ScoringRule
	if err := s.db.Where("season_id = ? AND is_active = ?", seasonID, true).
		Order("sort_order, id").
		Find(&rules).Error; err != nil {
		return nil, err
	}

	systemPrompt, userPrompt := BuildScoringPrompt(&season, &episode, castaways, rules, recapText)

	payload, err := s.callModel(systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return &SuggestionResponse{
		EpisodeID:      episode.ID,
		EpisodeNumber:  episode.EpisodeNumber,
		Suggestions:    parseSuggestions(payload, castaways, rules),
		EpisodeSummary: payload.EpisodeSummary,
		Eliminated:     payload.Eliminated,
		Notes:          payload.Notes,
	}, nil
}

func (s *SuggestionService) callModel(systemPrompt, userPrompt string) (*aiPayload, error) {
	request := messagesRequest{
		Model:     s.model,
		MaxTokens: 4096,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: userPrompt}},
	}

	var response messagesResponse
	resp, err := s.httpClient.R().
		SetHeader("x-api-key", s.apiKey).
		SetBody(request).
		SetResult(&response).
		Post("/v1/messages")
	if err != nil {
		s.log.Error("AI scoring request failed", zap.Error(err))
		return nil, fmt.Errorf("ai scoring request failed: %w", err)
	}
	if resp.IsError() {
		s.log.Error("AI scoring API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", string(resp.Body())))
		return nil, fmt.Errorf("ai scoring API error: status %d", resp.StatusCode())
	}

	text := ""
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	var payload aiPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &payload); err != nil {
		s.log.Error("AI scoring response is not valid JSON", zap.String("text", truncate(text, 500)))
		return nil, fmt.Errorf("ai returned invalid JSON: %w", err)
	}
	return &payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
