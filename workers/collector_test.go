package workers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"scholar-tracker/models"
	"scholar-tracker/services"
	"scholar-tracker/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const playerJSON = `{
	"cache_last_updated": 1642598581419,
	"draw_total": 3,
	"lifetime_slp": 10432,
	"mmr": 1712,
	"name": "Clark | Team Axie",
	"next_claim": 1643803381,
	"last_claim": 1642593781,
	"rank": 48123,
	"raw_total": 2480,
	"in_game_slp": 1480,
	"ronin_slp": 1000,
	"total_slp": 2480,
	"win_rate": "52.1"
}`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.OpenDB(filepath.Join(t.TempDir(), "tracker.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	t.Cleanup(func() { _ = utils.CloseDB(db) })
	return db
}

func addScholar(t *testing.T, db *gorm.DB, internalID, roninID string) models.Scholar {
	t.Helper()
	s := models.NewScholar(internalID, roninID)
	require.NoError(t, services.NewScholarService(db).Create(s))
	return *s
}

// gameAPI serves canned bodies keyed by ronin id; unknown ids get 404.
func gameAPI(t *testing.T, routes map[string]func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		id := strings.TrimPrefix(r.URL.Path, "/ronin:")
		handler, ok := routes[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func respond(status int, body string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func countTracks(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Track{}).Count(&n).Error)
	return n
}

func TestCollect_Success(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, db, "42", "ronin:abc123")
	srv := gameAPI(t, map[string]func(http.ResponseWriter){"abc123": respond(http.StatusOK, playerJSON)})

	c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
	track, err := c.Collect(context.Background(), scholar, "run-1")
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.EqualValues(t, 1, countTracks(t, db))

	stored, err := c.Tracks.ForScholar(scholar.ID, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	got := stored[0]

	assert.Equal(t, scholar.ID, got.ScholarID)
	assert.Equal(t, "run-1", got.RunID)
	assert.EqualValues(t, 2480, *got.SLPTotal)
	assert.EqualValues(t, 2480, *got.SLPRawTotal)
	assert.EqualValues(t, 1000, *got.SLPRonin)
	assert.EqualValues(t, 1480, *got.SLPIngame)
	assert.EqualValues(t, 1712, *got.MMR)
	assert.EqualValues(t, 48123, *got.Rank)
	assert.Equal(t, "Clark | Team Axie", *got.PlayerName)
	assert.True(t, got.LastClaim.Equal(time.Unix(1642593781, 0)))
	assert.True(t, got.NextClaim.Equal(time.Unix(1643803381, 0)))
}

func TestCollect_MissingFields(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, db, "42", "abc123")
	srv := gameAPI(t, map[string]func(http.ResponseWriter){"abc123": respond(http.StatusOK, `{"mmr": 900}`)})

	c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
	track, err := c.Collect(context.Background(), scholar, "run-1")
	require.NoError(t, err)

	require.NotNil(t, track.MMR)
	assert.EqualValues(t, 900, *track.MMR)
	assert.Nil(t, track.SLPTotal)
	assert.Nil(t, track.Rank)
	assert.Nil(t, track.PlayerName)
	assert.True(t, track.LastClaim.Equal(time.Unix(0, 0)), "missing timestamp defaults to epoch")
	assert.True(t, track.NextClaim.Equal(time.Unix(0, 0)))
}

func TestCollect_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler func(w http.ResponseWriter)
		wantErr error
	}{
		{"server error", respond(http.StatusInternalServerError, "boom"), ErrUnexpectedStatus},
		{"not found", respond(http.StatusNotFound, "{}"), ErrUnexpectedStatus},
		{"invalid json", respond(http.StatusOK, "<html>maintenance</html>"), ErrBadPayload},
		{"empty body", respond(http.StatusOK, ""), ErrBadPayload},
		{"wrong type", respond(http.StatusOK, `{"mmr": "high"}`), ErrBadPayload},
		{"empty object", respond(http.StatusOK, "{}"), ErrEmptyPayload},
		{"null", respond(http.StatusOK, "null"), ErrEmptyPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			scholar := addScholar(t, db, "42", "abc123")
			srv := gameAPI(t, map[string]func(http.ResponseWriter){"abc123": tt.handler})

			c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
			track, err := c.Collect(context.Background(), scholar, "run-1")

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, track)
			assert.Zero(t, countTracks(t, db), "no track written on failure")
		})
	}
}

func TestCollect_LargeErrorBody(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, db, "42", "abc123")
	huge := strings.Repeat("x", 4*maxBodyBytes)
	srv := gameAPI(t, map[string]func(http.ResponseWriter){"abc123": respond(http.StatusBadGateway, huge)})

	c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
	_, err := c.Collect(context.Background(), scholar, "run-1")

	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Less(t, len(err.Error()), 2048, "only the head of the body is quoted")
	assert.Zero(t, countTracks(t, db))
}

func TestCollect_TransportError(t *testing.T) {
	db := newTestDB(t)
	scholar := addScholar(t, db, "42", "abc123")
	srv := gameAPI(t, nil)
	srv.Close()

	c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
	_, err := c.Collect(context.Background(), scholar, "run-1")
	assert.Error(t, err)
	assert.Zero(t, countTracks(t, db))
}

func TestCollectActive_ContinuesPastFailures(t *testing.T) {
	db := newTestDB(t)
	addScholar(t, db, "1", "aaaa")
	addScholar(t, db, "2", "bbbb")
	addScholar(t, db, "3", "cccc")
	inactive := models.NewScholar("4", "dddd")
	inactive.IsActive = false
	require.NoError(t, services.NewScholarService(db).Create(inactive))

	var dHits atomic.Int32
	srv := gameAPI(t, map[string]func(http.ResponseWriter){
		"aaaa": respond(http.StatusOK, playerJSON),
		"bbbb": respond(http.StatusInternalServerError, "down"),
		"cccc": respond(http.StatusOK, `{"mmr": 1200, "rank": 3}`),
		"dddd": func(w http.ResponseWriter) { dHits.Add(1); respond(http.StatusOK, playerJSON)(w) },
	})

	c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
	var seen []string
	summary, err := c.CollectActive(context.Background(), func(r CollectResult) {
		seen = append(seen, r.Scholar.InternalID)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, seen)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Errors, "2")
	assert.NotEmpty(t, summary.RunID)
	assert.EqualValues(t, 2, countTracks(t, db))
	assert.Zero(t, dHits.Load(), "inactive scholars are not polled")

	var runIDs []string
	require.NoError(t, db.Model(&models.Track{}).Distinct().Pluck("run_id", &runIDs).Error)
	assert.Equal(t, []string{summary.RunID}, runIDs)
}

func TestCollectActive_Cancelled(t *testing.T) {
	db := newTestDB(t)
	addScholar(t, db, "1", "aaaa")
	srv := gameAPI(t, map[string]func(http.ResponseWriter){"aaaa": respond(http.StatusOK, playerJSON)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector(db, srv.URL, srv.Client(), zap.NewNop())
	_, err := c.CollectActive(ctx, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, countTracks(t, db))
}

func TestPlayerURL(t *testing.T) {
	c := NewCollector(nil, "https://example.test/api/v1/", nil, zap.NewNop())
	assert.Equal(t, "https://example.test/api/v1/ronin:abc", c.playerURL("0xabc"))
	assert.Equal(t, "https://example.test/api/v1/ronin:abc", c.playerURL("ronin:abc"))
}
