// handlers/scholar_routes.go
package handlers

import (
	"strconv"

	"scholar-tracker/models"
	"scholar-tracker/report"
	"scholar-tracker/services"
	"scholar-tracker/workers"

	"github.com/gofiber/fiber/v2"
)

// DefaultDays is the look-back window used when ?days is absent.
const DefaultDays = 14

// ScholarDetail is a scholar with its most recent snapshot, if any.
type ScholarDetail struct {
	models.Scholar
	LatestTrack *models.Track `json:"latest_track"`
}

func SetupScholarRoutes(app fiber.Router, scholars *services.ScholarService, tracks *services.TrackService, collector *workers.Collector) {
	app.Get("/scholars", func(c *fiber.Ctx) error {
		list, err := scholars.List()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list scholars",
				"cause": err.Error(),
			})
		}
		if list == nil {
			list = []models.Scholar{}
		}
		return c.JSON(list)
	})

	app.Get("/scholars/:internal_id", func(c *fiber.Ctx) error {
		scholar, found, err := scholars.GetByInternalID(c.Params("internal_id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error", "cause": err.Error()})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "scholar not found"})
		}

		detail := ScholarDetail{Scholar: scholar}
		latest, ok, err := tracks.Latest(scholar.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error", "cause": err.Error()})
		}
		if ok {
			detail.LatestTrack = &latest
		}
		return c.JSON(detail)
	})

	app.Get("/scholars/:internal_id/tracks", func(c *fiber.Ctx) error {
		days := DefaultDays
		if raw := c.Query("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "days must be a non-negative integer"})
			}
			days = n
		}

		format, err := report.ParseFormat(c.Query("format", string(report.FormatJSON)))
		if err != nil || format == report.FormatTable {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "format must be 'json' or 'csv'"})
		}

		scholar, found, err := scholars.GetByInternalID(c.Params("internal_id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error", "cause": err.Error()})
		}
		if !found {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "scholar not found"})
		}

		list, err := tracks.ForScholar(scholar.ID, days)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tracks", "cause": err.Error()})
		}

		if format == report.FormatCSV {
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		} else {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		}
		return report.WriteTracks(c, list, format)
	})

	// ✅ Manual trigger, same run as the scheduler does
	app.Post("/collect", func(c *fiber.Ctx) error {
		summary, err := collector.CollectActive(c.UserContext(), nil)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "collection failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(summary)
	})
}
