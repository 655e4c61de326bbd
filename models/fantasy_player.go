package models

import "time"

type FantasyPlayer struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	DisplayName    string    `json:"display_name" gorm:"size:100;not null"`
	PasswordHash   string    `json:"-" gorm:"size:200;not null"`
	IsCommissioner bool      `json:"is_commissioner" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	Rosters     []FantasyRoster `json:"rosters,omitempty" gorm:"foreignKey:FantasyPlayerID"`
	Predictions []Prediction    `json:"predictions,omitempty" gorm:"foreignKey:FantasyPlayerID"`
}
