package models

import "time"

// Castaway lifecycle statuses.
const (
	CastawayActive     = "active"
	CastawayEliminated = "eliminated"
	CastawayEvacuated  = "evacuated"
	CastawayQuit       = "quit"
)

type Castaway struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	SeasonID       uint      `json:"season_id" gorm:"not null;uniqueIndex:uq_castaway_season_name"`
	Name           string    `json:"name" gorm:"size:100;not null;uniqueIndex:uq_castaway_season_name"`
	Age            int       `json:"age"`
	Occupation     string    `json:"occupation" gorm:"size:200"`
	StartingTribe  string    `json:"starting_tribe" gorm:"size:100"`
	CurrentTribe   string    `json:"current_tribe" gorm:"size:100"`
	Bio            string    `json:"bio"`
	PhotoURL       string    `json:"photo_url"`
	Status         string    `json:"status" gorm:"size:20;not null;default:'active'"`
	FinalPlacement *int      `json:"final_placement"` // 1 = winner, 2 = runner-up, etc.
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	Events        []CastawayEpisodeEvent `json:"events,omitempty" gorm:"foreignKey:CastawayID;constraint:OnDelete:CASCADE"`
	RosterEntries []FantasyRoster        `json:"roster_entries,omitempty" gorm:"foreignKey:CastawayID"`
}
