package models

import "time"

type Episode struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	SeasonID      uint       `json:"season_id" gorm:"not null;uniqueIndex:uq_episode_season_number"`
	EpisodeNumber int        `json:"episode_number" gorm:"not null;uniqueIndex:uq_episode_season_number"`
	Title         string     `json:"title" gorm:"size:200"`
	AirDate       *time.Time `json:"air_date"`
	IsMerge       bool       `json:"is_merge" gorm:"not null;default:false"`
	IsFinale      bool       `json:"is_finale" gorm:"not null;default:false"`
	TribesActive  string     `json:"tribes_active" gorm:"size:500"` // comma-separated tribe names
	Notes         string     `json:"notes"`
	IsScored      bool       `json:"is_scored" gorm:"not null;default:false"` // has the commissioner entered events?
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Relationships
	Events []CastawayEpisodeEvent `json:"events,omitempty" gorm:"foreignKey:EpisodeID;constraint:OnDelete:CASCADE"`
}
