// Package report renders scholars and tracks as a table, JSON or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"scholar-tracker/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format specifies the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// NotFound is printed in table mode when there is nothing to show.
const NotFound = "Not found."

// ParseFormat accepts table, json and csv in any case. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("unknown format: %s (must be 'table', 'json' or 'csv')", s)
}

var (
	ScholarColumns = []string{"id", "internal_id", "name", "battle_name", "ronin_id", "join_date", "is_active"}

	// scholar_id is implied by the query, run_id only matters to exports.
	TrackTableColumns = []string{"id", "insert_date", "slp_total", "slp_raw_total", "slp_ronin", "slp_ingame", "mmr", "rank", "last_claim", "next_claim", "player_name"}
	TrackCSVColumns   = append(append([]string{}, TrackTableColumns...), "run_id")
)

var numbers = message.NewPrinter(language.English)

// WriteScholars renders scholars in the given format.
func WriteScholars(w io.Writer, scholars []models.Scholar, format Format) error {
	switch format {
	case FormatJSON:
		if scholars == nil {
			scholars = []models.Scholar{}
		}
		return writeJSON(w, scholars)
	case FormatCSV:
		rows := make([][]string, len(scholars))
		for i, s := range scholars {
			rows[i] = scholarRow(s, plainValue)
		}
		return writeCSV(w, ScholarColumns, rows)
	case FormatTable:
		if len(scholars) == 0 {
			_, err := fmt.Fprintln(w, NotFound)
			return err
		}
		rows := make([][]string, len(scholars))
		for i, s := range scholars {
			rows[i] = scholarRow(s, tableValue)
		}
		return writeTable(w, ScholarColumns, rows)
	}
	return fmt.Errorf("unknown format: %s", format)
}

// WriteTracks renders tracks in the given format.
func WriteTracks(w io.Writer, tracks []models.Track, format Format) error {
	switch format {
	case FormatJSON:
		if tracks == nil {
			tracks = []models.Track{}
		}
		return writeJSON(w, tracks)
	case FormatCSV:
		rows := make([][]string, len(tracks))
		for i, t := range tracks {
			rows[i] = append(trackRow(t, plainValue), t.RunID)
		}
		return writeCSV(w, TrackCSVColumns, rows)
	case FormatTable:
		if len(tracks) == 0 {
			_, err := fmt.Fprintln(w, NotFound)
			return err
		}
		rows := make([][]string, len(tracks))
		for i, t := range tracks {
			rows[i] = trackRow(t, tableValue)
		}
		return writeTable(w, TrackTableColumns, rows)
	}
	return fmt.Errorf("unknown format: %s", format)
}

// RenderTracks is WriteTracks into a byte slice, used for exports.
func RenderTracks(tracks []models.Track, format Format) ([]byte, error) {
	var sb strings.Builder
	if err := WriteTracks(&sb, tracks, format); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func scholarRow(s models.Scholar, v func(any) string) []string {
	return []string{
		strconv.FormatUint(uint64(s.ID), 10),
		s.InternalID,
		v(s.Name),
		v(s.BattleName),
		s.RoninID,
		v(s.JoinDate),
		strconv.FormatBool(s.IsActive),
	}
}

func trackRow(t models.Track, v func(any) string) []string {
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		v(t.InsertDate),
		v(t.SLPTotal),
		v(t.SLPRawTotal),
		v(t.SLPRonin),
		v(t.SLPIngame),
		v(t.MMR),
		v(t.Rank),
		v(t.LastClaim),
		v(t.NextClaim),
		v(t.PlayerName),
	}
}

// plainValue formats for machine consumption: nulls are empty, times RFC3339.
func plainValue(x any) string {
	switch val := x.(type) {
	case *int64:
		if val == nil {
			return ""
		}
		return strconv.FormatInt(*val, 10)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(x)
}

// tableValue formats for people: nulls are '-', numbers grouped.
func tableValue(x any) string {
	switch val := x.(type) {
	case *int64:
		if val == nil {
			return "-"
		}
		return numbers.Sprintf("%d", *val)
	case *string:
		if val == nil {
			return "-"
		}
		return *val
	case time.Time:
		return val.UTC().Format("2006-01-02 15:04")
	}
	return fmt.Sprint(x)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(header...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
