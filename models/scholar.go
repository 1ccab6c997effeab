// models/scholar.go
package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownField  = errors.New("not a valid scholar field")
	ErrReadOnlyField = errors.New("field cannot be changed")
)

// Scholar is a tracked player account.
// Table name: scholar
type Scholar struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	InternalID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"internal_id"` // manager-chosen id, lookup key for every verb
	Name       *string   `json:"name"`
	BattleName *string   `gorm:"type:varchar(30)" json:"battle_name"`
	RoninID    string    `gorm:"type:varchar(40);not null" json:"ronin_id"` // without 'ronin:' or '0x' prefix
	JoinDate   time.Time `gorm:"not null" json:"join_date"`
	IsActive   bool      `gorm:"not null" json:"is_active"` // collection only runs for active scholars

	Tracks []Track `gorm:"foreignKey:ScholarID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Scholar) TableName() string { return "scholar" }

// Fields a caller may assign from key=value input.
var ScholarWritableFields = []string{
	"internal_id",
	"name",
	"battle_name",
	"ronin_id",
	"join_date",
	"is_active",
}

// Fields a caller may filter on. Maps the field name to its column.
var ScholarLookupFields = map[string]string{
	"id":          "id",
	"internal_id": "internal_id",
	"name":        "name",
	"battle_name": "battle_name",
	"ronin_id":    "ronin_id",
	"join_date":   "join_date",
	"is_active":   "is_active",
}

// NewScholar returns an active scholar with the required fields set.
func NewScholar(internalID, roninID string) *Scholar {
	return &Scholar{
		InternalID: internalID,
		RoninID:    NormalizeRoninID(roninID),
		IsActive:   true,
	}
}

// SetField assigns one allow-listed field from its string form.
func (s *Scholar) SetField(field, value string) error {
	switch field {
	case "internal_id":
		if value == "" {
			return fmt.Errorf("internal_id cannot be empty")
		}
		s.InternalID = value
	case "name":
		s.Name = optionalString(value)
	case "battle_name":
		if len(value) > 30 {
			return fmt.Errorf("battle_name is longer than 30 characters")
		}
		s.BattleName = optionalString(value)
	case "ronin_id":
		id := NormalizeRoninID(value)
		if id == "" {
			return fmt.Errorf("ronin_id cannot be empty")
		}
		if len(id) > 40 {
			return fmt.Errorf("ronin_id is longer than 40 characters")
		}
		s.RoninID = id
	case "join_date":
		t, err := ParseDate(value)
		if err != nil {
			return fmt.Errorf("join_date: %w", err)
		}
		s.JoinDate = t
	case "is_active":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("is_active must be a boolean, got %q", value)
		}
		s.IsActive = b
	case "id":
		return fmt.Errorf("%q: %w", field, ErrReadOnlyField)
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}

// LookupValue converts a filter value to the type stored in the column.
func LookupValue(field, value string) (any, error) {
	switch field {
	case "id":
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id must be a positive integer, got %q", value)
		}
		return uint(id), nil
	case "is_active":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("is_active must be a boolean, got %q", value)
		}
		return b, nil
	case "join_date":
		t, err := ParseDate(value)
		if err != nil {
			return nil, fmt.Errorf("join_date: %w", err)
		}
		return t, nil
	}
	if _, ok := ScholarLookupFields[field]; !ok {
		return nil, fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return value, nil
}

// NormalizeRoninID strips the 'ronin:' and '0x' wallet prefixes.
func NormalizeRoninID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "ronin:")
	id = strings.TrimPrefix(id, "0x")
	return id
}

// ParseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates. Results are UTC.
func ParseDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date (use 2006-01-02 or RFC3339)", value)
}

// DisplayName is the best human label for the scholar.
func (s Scholar) DisplayName() string {
	if s.Name != nil && *s.Name != "" {
		return *s.Name
	}
	return s.InternalID
}

func (s Scholar) String() string {
	tag := s.RoninID
	if len(tag) > 8 {
		tag = tag[:4] + ".." + tag[len(tag)-4:]
	}
	return fmt.Sprintf("Scholar(internal_id=%q name=%q ronin_id=%q)", s.InternalID, s.DisplayName(), tag)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
