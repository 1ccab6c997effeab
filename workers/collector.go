// workers/collector.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scholar-tracker/config"
	"scholar-tracker/models"
	"scholar-tracker/services"
	"scholar-tracker/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	roninPrefix  = "ronin:"
	maxBodyBytes = 1 << 20
)

var (
	ErrUnexpectedStatus = errors.New("game API returned unexpected status")
	ErrBadPayload       = errors.New("cannot read json response")
	ErrEmptyPayload     = errors.New("no data returned, check ronin_id")
)

// PlayerStats is the subset of the game API response stored in a Track.
// Missing keys stay nil.
type PlayerStats struct {
	TotalSLP  *int64  `json:"total_slp"`
	RawTotal  *int64  `json:"raw_total"`
	RoninSLP  *int64  `json:"ronin_slp"`
	InGameSLP *int64  `json:"in_game_slp"`
	MMR       *int64  `json:"mmr"`
	Rank      *int64  `json:"rank"`
	LastClaim *int64  `json:"last_claim"` // unix seconds
	NextClaim *int64  `json:"next_claim"` // unix seconds
	Name      *string `json:"name"`
}

// Track maps the stats onto a new snapshot row. Missing claim timestamps
// become the unix epoch.
func (p PlayerStats) Track(scholarID uint, runID string) models.Track {
	return models.Track{
		SLPTotal:    p.TotalSLP,
		SLPRawTotal: p.RawTotal,
		SLPRonin:    p.RoninSLP,
		SLPIngame:   p.InGameSLP,
		MMR:         p.MMR,
		Rank:        p.Rank,
		LastClaim:   unixOrEpoch(p.LastClaim),
		NextClaim:   unixOrEpoch(p.NextClaim),
		PlayerName:  p.Name,
		RunID:       runID,
		ScholarID:   scholarID,
	}
}

func unixOrEpoch(ts *int64) time.Time {
	if ts == nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(*ts, 0).UTC()
}

// Collector polls the game API for scholars and stores one Track per
// successful call. It never retries; the HTTP client timeout is the only limit.
type Collector struct {
	APIURL     string
	HTTPClient *http.Client
	Scholars   *services.ScholarService
	Tracks     *services.TrackService
	log        *zap.Logger
}

func NewCollector(db *gorm.DB, apiURL string, httpClient *http.Client, logger *zap.Logger) *Collector {
	if apiURL == "" {
		apiURL = config.DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = utils.NewHTTPClient(30 * time.Second)
	}
	return &Collector{
		APIURL:     strings.TrimRight(apiURL, "/"),
		HTTPClient: httpClient,
		Scholars:   services.NewScholarService(db),
		Tracks:     services.NewTrackService(db),
		log:        logger.Named("collector"),
	}
}

func (c *Collector) playerURL(roninID string) string {
	return fmt.Sprintf("%s/%s%s", c.APIURL, roninPrefix, url.PathEscape(models.NormalizeRoninID(roninID)))
}

// FetchStats issues the GET request for one wallet and decodes the payload.
func (c *Collector) FetchStats(ctx context.Context, roninID string) (PlayerStats, error) {
	var stats PlayerStats
	endpoint := c.playerURL(roninID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return stats, fmt.Errorf("failed to call game API: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return stats, fmt.Errorf("%w: %d %s: %s", ErrUnexpectedStatus, resp.StatusCode,
			http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if len(raw) == 0 {
		return stats, ErrEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&stats); err != nil {
		return stats, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return stats, nil
}

// Collect fetches fresh stats for one scholar and stores them. No track is
// written when the call or the payload is bad.
func (c *Collector) Collect(ctx context.Context, scholar models.Scholar, runID string) (*models.Track, error) {
	log := c.log.With(
		zap.String("internal_id", scholar.InternalID),
		zap.String("ronin_id", scholar.RoninID),
		zap.String("run_id", runID),
	)

	stats, err := c.FetchStats(ctx, scholar.RoninID)
	if err != nil {
		if errors.Is(err, ErrEmptyPayload) {
			log.Warn("no data for scholar", zap.Error(err))
		} else {
			log.Error("error while gathering new data", zap.Error(err))
		}
		return nil, err
	}

	track := stats.Track(scholar.ID, runID)
	if err := c.Tracks.Create(&track); err != nil {
		log.Error("failed to store track", zap.Error(err))
		return nil, fmt.Errorf("failed to store track for %s: %w", scholar.InternalID, err)
	}

	log.Debug("track stored", zap.Uint("track_id", track.ID))
	return &track, nil
}

// CollectResult is the outcome for one scholar of a collection run.
type CollectResult struct {
	Scholar models.Scholar
	Track   *models.Track
	Err     error
}

// CollectSummary describes one pass over the active scholars.
type CollectSummary struct {
	RunID     string            `json:"run_id"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"` // internal_id -> error
}

// CollectActive polls every active scholar in turn. A failing scholar is
// logged and skipped. onResult, when non-nil, is called after each scholar.
func (c *Collector) CollectActive(ctx context.Context, onResult func(CollectResult)) (CollectSummary, error) {
	summary := CollectSummary{RunID: uuid.NewString()}

	scholars, err := c.Scholars.ListActive()
	if err != nil {
		return summary, fmt.Errorf("listing active scholars: %w", err)
	}
	summary.Total = len(scholars)

	c.log.Info("collecting new data", zap.String("run_id", summary.RunID), zap.Int("scholars", len(scholars)))

	for _, scholar := range scholars {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		track, err := c.Collect(ctx, scholar, summary.RunID)
		if err != nil {
			summary.Failed++
			if summary.Errors == nil {
				summary.Errors = make(map[string]string)
			}
			summary.Errors[scholar.InternalID] = err.Error()
		} else {
			summary.Succeeded++
		}
		if onResult != nil {
			onResult(CollectResult{Scholar: scholar, Track: track, Err: err})
		}
	}

	c.log.Info("collection finished",
		zap.String("run_id", summary.RunID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
