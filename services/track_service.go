package services

import (
	"fmt"
	"time"

	"scholar-tracker/models"

	"gorm.io/gorm"
)

type TrackService struct {
	DB *gorm.DB
}

func NewTrackService(db *gorm.DB) *TrackService {
	return &TrackService{DB: db}
}

// Create inserts a snapshot. InsertDate defaults to now.
func (s *TrackService) Create(track *models.Track) error {
	if track.ScholarID == 0 {
		return fmt.Errorf("track has no scholar")
	}
	if track.ID != 0 {
		return fmt.Errorf("track %d already stored, tracks are immutable", track.ID)
	}
	if track.InsertDate.IsZero() {
		track.InsertDate = time.Now().UTC()
	}
	return s.DB.Create(track).Error
}

// ForScholar lists a scholar's tracks, oldest first. days == 0 means no
// lower bound; otherwise only tracks from the last `days` days are returned.
func (s *TrackService) ForScholar(scholarID uint, days int) ([]models.Track, error) {
	if days < 0 {
		return nil, fmt.Errorf("days must be a positive integer or 0")
	}

	q := s.DB.Where("scholar_id = ?", scholarID)
	if days > 0 {
		since := time.Now().UTC().AddDate(0, 0, -days)
		q = q.Where("insert_date >= ?", since)
	}

	var tracks []models.Track
	if err := q.Order("insert_date, id").Find(&tracks).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

// Latest returns the most recent track of a scholar, if any.
func (s *TrackService) Latest(scholarID uint) (models.Track, bool, error) {
	var tracks []models.Track
	if err := s.DB.Where("scholar_id = ?", scholarID).Order("insert_date desc, id desc").Limit(1).Find(&tracks).Error; err != nil {
		return models.Track{}, false, err
	}
	if len(tracks) == 0 {
		return models.Track{}, false, nil
	}
	return tracks[0], true, nil
}

// CountForScholar is used by reports and tests to check cascades.
func (s *TrackService) CountForScholar(scholarID uint) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Track{}).Where("scholar_id = ?", scholarID).Count(&n).Error
	return n, err
}
