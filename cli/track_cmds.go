package cli

import (
	"fmt"
	"strconv"
	"time"

	"scholar-tracker/models"
	"scholar-tracker/report"
	"scholar-tracker/services"
	"scholar-tracker/utils"
	"scholar-tracker/workers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultDays = 14

func (a *app) newCollector() *workers.Collector {
	return workers.NewCollector(a.db, a.cfg.APIURL, utils.NewHTTPClient(a.cfg.APITimeout), a.log)
}

func (a *app) collectCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "collect",
		Aliases: []string{"collect_axie_data"},
		Short:   "Call the game API and collect data of active scholars",
		Long:    "Stores one track per active scholar. Meant to be run daily, e.g. from cron.",
		Example: "  " + progName + " collect",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Collecting new data from axie ...")

			summary, err := a.newCollector().CollectActive(cmd.Context(), func(r workers.CollectResult) {
				status := "done."
				if r.Err != nil {
					status = "error."
				}
				fmt.Fprintf(out, "\t%s ... %s\n", r.Scholar, status)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Collected %d of %d scholars (run %s).\n", summary.Succeeded, summary.Total, summary.RunID)
			return nil
		}),
	}
}

// trackQuery is the common part of get-tracks and export-tracks.
type trackQuery struct {
	internalID string
	days       int
}

func parseTrackQuery(pairs Pairs) (trackQuery, error) {
	q := trackQuery{days: defaultDays}

	var err error
	if q.internalID, err = pairs.Require("internal_id"); err != nil {
		return q, err
	}
	if raw, ok := pairs.Get("days"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, usageErrorf("days must be a positive integer or 0")
		}
		q.days = n
	}
	return q, nil
}

// loadTracks returns found=false when the scholar does not exist.
func (a *app) loadTracks(q trackQuery) (models.Scholar, []models.Track, bool, error) {
	scholar, found, err := services.NewScholarService(a.db).GetByInternalID(q.internalID)
	if err != nil || !found {
		return scholar, nil, found, err
	}
	tracks, err := services.NewTrackService(a.db).ForScholar(scholar.ID, q.days)
	return scholar, tracks, true, err
}

func (a *app) getTracksCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get-tracks internal_id=... [days=N] [format=table|json|csv]",
		Aliases: []string{"get_tracks"},
		Short:   "Get tracks (game info) about a scholar",
		Long:    "days=0 means all the history, the default is 14.",
		Example: "  " + progName + " get-tracks internal_id=42\n" +
			"  " + progName + " get-tracks internal_id=42 days=7\n" +
			"  " + progName + " get-tracks internal_id=42 days=0 format=json\n" +
			"  " + progName + " get-tracks internal_id=42 days=0 format=csv > data.csv",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only("internal_id", "days", "format"); err != nil {
				return err
			}
			q, err := parseTrackQuery(pairs)
			if err != nil {
				return err
			}
			format, err := parseFormat(pairs)
			if err != nil {
				return err
			}

			_, tracks, found, err := a.loadTracks(q)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), report.NotFound)
				return nil
			}
			return report.WriteTracks(cmd.OutOrStdout(), tracks, format)
		}),
	}
}

func (a *app) exportTracksCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "export-tracks internal_id=... [days=N]",
		Aliases: []string{"export_tracks"},
		Short:   "Save a scholar's tracks as a CSV report",
		Long: "Uploads the report to EXPORT_BUCKET when it is set (EXPORT_ENDPOINT selects an\n" +
			"S3 compatible store such as R2), otherwise writes it under EXPORT_DIR.",
		Example: "  " + progName + " export-tracks internal_id=42\n" +
			"  EXPORT_BUCKET=reports " + progName + " export-tracks internal_id=42 days=0",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only("internal_id", "days"); err != nil {
				return err
			}
			q, err := parseTrackQuery(pairs)
			if err != nil {
				return err
			}

			scholar, tracks, found, err := a.loadTracks(q)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), report.NotFound)
				return nil
			}

			data, err := report.RenderTracks(tracks, report.FormatCSV)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			label := scholar.DisplayName()
			var location string
			if a.cfg.Export.Bucket != "" {
				uploader, err := utils.NewS3ReportUploader(cmd.Context(), a.cfg.Export)
				if err != nil {
					return err
				}
				location, err = uploader.Upload(cmd.Context(), utils.ReportObjectKey(label, now), label, data)
				if err != nil {
					return err
				}
			} else {
				location, err = utils.SaveReport(a.cfg.Export.Dir, utils.ReportFileName(label, now), data)
				if err != nil {
					return fmt.Errorf("saving report: %w", err)
				}
			}

			a.log.Info("report exported",
				zap.String("internal_id", scholar.InternalID),
				zap.Int("tracks", len(tracks)),
				zap.String("location", location),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tracks to %s.\n", len(tracks), location)
			return nil
		}),
	}
}
