package services

import (
	"testing"
	"time"

	"scholar-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackService_ForScholarDays(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, NewScholarService(db), "42", "aaaa")
	svc := NewTrackService(db)

	now := time.Now().UTC()
	for _, age := range []time.Duration{60 * 24 * time.Hour, 10 * 24 * time.Hour, 2 * 24 * time.Hour, time.Hour} {
		require.NoError(t, svc.Create(&models.Track{ScholarID: scholar.ID, InsertDate: now.Add(-age)}))
	}

	tests := []struct {
		name string
		days int
		want int
	}{
		{"unbounded", 0, 4},
		{"one day", 1, 1},
		{"a week", 7, 2},
		{"two weeks", 14, 3},
		{"a year", 365, 4},
		{"beyond time.Duration range", 200000, 4},
		{"a million days", 1000000, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ForScholar(scholar.ID, tt.days)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].InsertDate.Before(got[i-1].InsertDate), "oldest first")
			}
		})
	}

	t.Run("negative days", func(t *testing.T) {
		_, err := svc.ForScholar(scholar.ID, -1)
		assert.Error(t, err)
	})
}

func TestTrackService_ForScholarIsolation(t *testing.T) {
	db := newTestDB(t)
	scholars := NewScholarService(db)
	a := addScholar(t, scholars, "1", "aaaa")
	b := addScholar(t, scholars, "2", "bbbb")
	svc := NewTrackService(db)

	require.NoError(t, svc.Create(&models.Track{ScholarID: a.ID}))
	require.NoError(t, svc.Create(&models.Track{ScholarID: b.ID}))
	require.NoError(t, svc.Create(&models.Track{ScholarID: b.ID}))

	got, err := svc.ForScholar(a.ID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTrackService_Create(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, NewScholarService(db), "42", "aaaa")
	svc := NewTrackService(db)

	t.Run("sets insert date", func(t *testing.T) {
		track := &models.Track{ScholarID: scholar.ID}
		require.NoError(t, svc.Create(track))
		assert.NotZero(t, track.ID)
		assert.WithinDuration(t, time.Now().UTC(), track.InsertDate, time.Minute)
	})

	t.Run("requires scholar", func(t *testing.T) {
		assert.Error(t, svc.Create(&models.Track{}))
	})

	t.Run("unknown scholar violates foreign key", func(t *testing.T) {
		assert.Error(t, svc.Create(&models.Track{ScholarID: 9999}))
	})

	t.Run("immutable", func(t *testing.T) {
		track := &models.Track{ScholarID: scholar.ID}
		require.NoError(t, svc.Create(track))
		assert.Error(t, svc.Create(track))
	})
}

func TestTrackService_Latest(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, NewScholarService(db), "42", "aaaa")
	svc := NewTrackService(db)

	_, found, err := svc.Latest(scholar.ID)
	require.NoError(t, err)
	assert.False(t, found)

	mmr := int64(1500)
	now := time.Now().UTC()
	require.NoError(t, svc.Create(&models.Track{ScholarID: scholar.ID, InsertDate: now.Add(-48 * time.Hour)}))
	require.NoError(t, svc.Create(&models.Track{ScholarID: scholar.ID, InsertDate: now, MMR: &mmr}))

	latest, found, err := svc.Latest(scholar.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, latest.MMR)
	assert.EqualValues(t, 1500, *latest.MMR)
}
