package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gosimple/slug"
)

// EnsureExportDir creates the export directory if it doesn't exist
func EnsureExportDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

// ReportSlug turns a scholar label into a file-system and URL safe token.
func ReportSlug(label string) string {
	s := slug.Make(label)
	if s == "" {
		return "scholar"
	}
	return s
}

// ReportFileName is the local file name of a track report, e.g. "clark-kent-20260118.csv".
func ReportFileName(label string, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", ReportSlug(label), at.UTC().Format("20060102"))
}

// ReportObjectKey is the bucket key of a track report, e.g. "reports/clark-kent/20260118.csv".
func ReportObjectKey(label string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s.csv", ReportSlug(label), at.UTC().Format("20060102"))
}

// SaveReport writes data to dir/name, creating dir when needed, and returns the full path.
func SaveReport(dir, name string, data []byte) (string, error) {
	if err := EnsureExportDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
