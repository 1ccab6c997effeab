// utils/db.go
package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"scholar-tracker/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotInitialized = errors.New("database is not initialized, run init-db first")

// DBKind is the backend a DSN points at.
type DBKind string

const (
	DBSQLite   DBKind = "sqlite"
	DBPostgres DBKind = "postgres"
)

// KindOf picks the backend from the DSN: postgres URLs and key=value DSNs go
// to Postgres, everything else is treated as a SQLite file path.
func KindOf(dsn string) DBKind {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DBPostgres
	case strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="):
		return DBPostgres
	}
	return DBSQLite
}

type dialectorMaker func(dsn string) gorm.Dialector

var dialectors = map[DBKind]dialectorMaker{
	DBSQLite:   sqliteDialector,
	DBPostgres: postgresDialector,
}

func sqliteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(SQLiteDSN(dsn))
}

func postgresDialector(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	})
}

// SQLiteDSN makes sure foreign keys are enforced on the connection so the
// track -> scholar cascade holds.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") || strings.Contains(path, "_fk=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// OpenDB opens the single store handle used for the whole process.
func OpenDB(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN")
	}
	kind := KindOf(dsn)

	level := gormlogger.Silent
	if logger.Core().Enabled(zapcore.DebugLevel) {
		level = gormlogger.Info
	}
	gl := gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(dialectors[kind](dsn), &gorm.Config{
		Logger:         gl,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", kind, err)
	}

	if kind == DBSQLite {
		// one writer; the CLI never needs more
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	logger.Debug("database opened", zap.String("kind", string(kind)))
	return db, nil
}

// Migrate creates or updates the scholar and track tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Scholar{}, &models.Track{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// EnsureSchema fails with ErrNotInitialized when init-db has not been run.
func EnsureSchema(db *gorm.DB) error {
	m := db.Migrator()
	if !m.HasTable(&models.Scholar{}) || !m.HasTable(&models.Track{}) {
		return ErrNotInitialized
	}
	return nil
}

// CloseDB releases the underlying connection pool.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
