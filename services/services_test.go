package services

import (
	"path/filepath"
	"testing"

	"scholar-tracker/models"
	"scholar-tracker/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.OpenDB(filepath.Join(t.TempDir(), "tracker.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	t.Cleanup(func() { _ = utils.CloseDB(db) })
	return db
}

func addScholar(t *testing.T, svc *ScholarService, internalID, roninID string) models.Scholar {
	t.Helper()
	s := models.NewScholar(internalID, roninID)
	require.NoError(t, svc.Create(s))
	return *s
}
