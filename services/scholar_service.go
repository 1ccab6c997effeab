package services

import (
	"errors"
	"fmt"
	"time"

	"scholar-tracker/models"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when the internal_id is already taken.
var ErrDuplicate = errors.New("already exists")

type ScholarService struct {
	DB *gorm.DB
}

func NewScholarService(db *gorm.DB) *ScholarService {
	return &ScholarService{DB: db}
}

// Create stores a new scholar. JoinDate is set to now unless the caller
// supplied one; it is never touched again afterwards.
func (s *ScholarService) Create(scholar *models.Scholar) error {
	if scholar.InternalID == "" {
		return fmt.Errorf("missing required field 'internal_id'")
	}
	if scholar.RoninID == "" {
		return fmt.Errorf("missing required field 'ronin_id'")
	}
	if scholar.JoinDate.IsZero() {
		scholar.JoinDate = time.Now().UTC()
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Scholar{}).Where("internal_id = ?", scholar.InternalID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("scholar with internal_id %q %w", scholar.InternalID, ErrDuplicate)
		}
		if err := tx.Create(scholar).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("scholar with internal_id %q %w", scholar.InternalID, ErrDuplicate)
			}
			return err
		}
		return nil
	})
}

// GetByInternalID returns (scholar, false, nil) when nothing matches.
func (s *ScholarService) GetByInternalID(internalID string) (models.Scholar, bool, error) {
	var scholar models.Scholar
	if err := s.DB.Where("internal_id = ?", internalID).First(&scholar).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scholar, false, nil
		}
		return scholar, false, err
	}
	return scholar, true, nil
}

// FilterBy returns every scholar whose field equals value. The field must be
// one of models.ScholarLookupFields.
func (s *ScholarService) FilterBy(field, value string) ([]models.Scholar, error) {
	column, ok := models.ScholarLookupFields[field]
	if !ok {
		return nil, fmt.Errorf("%q: %w", field, models.ErrUnknownField)
	}
	v, err := models.LookupValue(field, value)
	if err != nil {
		return nil, err
	}

	var scholars []models.Scholar
	if err := s.DB.Where(map[string]any{column: v}).Order("id").Find(&scholars).Error; err != nil {
		return nil, err
	}
	return scholars, nil
}

// Update applies allow-listed field changes to the scholar identified by
// internalID. join_date is fixed at creation and rejected here.
func (s *ScholarService) Update(internalID string, fields map[string]string) (models.Scholar, bool, error) {
	scholar, found, err := s.GetByInternalID(internalID)
	if err != nil || !found {
		return scholar, found, err
	}

	for key, value := range fields {
		if key == "join_date" {
			return scholar, true, fmt.Errorf("%q: %w", key, models.ErrReadOnlyField)
		}
		if err := scholar.SetField(key, value); err != nil {
			return scholar, true, err
		}
	}

	if err := s.DB.Save(&scholar).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return scholar, true, fmt.Errorf("scholar with internal_id %q %w", scholar.InternalID, ErrDuplicate)
		}
		return scholar, true, err
	}
	return scholar, true, nil
}

// Delete removes the scholar and all of its tracks.
func (s *ScholarService) Delete(internalID string) (bool, error) {
	found := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var scholar models.Scholar
		if err := tx.Where("internal_id = ?", internalID).First(&scholar).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true

		if err := tx.Where("scholar_id = ?", scholar.ID).Delete(&models.Track{}).Error; err != nil {
			return fmt.Errorf("deleting tracks of %s: %w", internalID, err)
		}
		return tx.Delete(&scholar).Error
	})
	return found, err
}

// List returns all scholars ordered by id.
func (s *ScholarService) List() ([]models.Scholar, error) {
	var scholars []models.Scholar
	if err := s.DB.Order("id").Find(&scholars).Error; err != nil {
		return nil, err
	}
	return scholars, nil
}

// ListActive returns the scholars the collector should poll.
func (s *ScholarService) ListActive() ([]models.Scholar, error) {
	var scholars []models.Scholar
	if err := s.DB.Where("is_active = ?", true).Order("id").Find(&scholars).Error; err != nil {
		return nil, err
	}
	return scholars, nil
}
