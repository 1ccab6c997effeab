// models/track.go
package models

import (
	"time"
)

// Track is an immutable snapshot of one scholar's in-game stats.
// Rows are created by the collector and never updated.
// Table name: track
type Track struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	InsertDate  time.Time `gorm:"not null;index" json:"insert_date"`
	SLPTotal    *int64    `gorm:"column:slp_total" json:"slp_total"`
	SLPRawTotal *int64    `gorm:"column:slp_raw_total" json:"slp_raw_total"`
	SLPRonin    *int64    `gorm:"column:slp_ronin" json:"slp_ronin"`
	SLPIngame   *int64    `gorm:"column:slp_ingame" json:"slp_ingame"`
	MMR         *int64    `gorm:"column:mmr" json:"mmr"`
	Rank        *int64    `gorm:"column:rank" json:"rank"`
	LastClaim   time.Time `gorm:"column:last_claim" json:"last_claim"`
	NextClaim   time.Time `gorm:"column:next_claim" json:"next_claim"`
	PlayerName  *string   `gorm:"column:player_name" json:"player_name"`
	RunID       string    `gorm:"column:run_id;type:varchar(36);index" json:"run_id"` // collection run that produced the row

	ScholarID uint `gorm:"not null;index" json:"scholar_id"` // cascades from Scholar.Tracks
}

func (Track) TableName() string { return "track" }
