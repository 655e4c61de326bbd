package models

import "time"

// Season lifecycle statuses.
const (
	SeasonSetup    = "setup"    // pre-draft, configuring
	SeasonDrafting = "drafting" // draft in progress
	SeasonActive   = "active"   // season airing, scoring weekly
	SeasonComplete = "complete" // season finished
)

func ValidSeasonStatus(s string) bool {
	switch s {
	case SeasonSetup, SeasonDrafting, SeasonActive, SeasonComplete:
		return true
	}
	return false
}

type Season struct {
	ID                      uint      `json:"id" gorm:"primaryKey"`
	SeasonNumber            int       `json:"season_number" gorm:"uniqueIndex;not null"`
	Name                    string    `json:"name" gorm:"size:100;not null"`
	Status                  string    `json:"status" gorm:"size:20;not null;default:'setup'"`
	MaxRosterSize           int       `json:"max_roster_size" gorm:"not null;default:4"`
	FreeAgentPickupLimit    int       `json:"free_agent_pickup_limit" gorm:"not null;default:1"`
	MaxTimesCastawayDrafted int       `json:"max_times_castaway_drafted" gorm:"not null;default:2"`
	LogoURL                 string    `json:"logo_url"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`

	// Relationships
	Castaways    []Castaway      `json:"castaways,omitempty" gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
	Episodes     []Episode       `json:"episodes,omitempty" gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
	ScoringRules []ScoringRule   `json:"scoring_rules,omitempty" gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
	Rosters      []FantasyRoster `json:"rosters,omitempty" gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
	Predictions  []Prediction    `json:"predictions,omitempty" gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE"`
}
