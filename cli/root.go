// Package cli maps command line verbs onto the scholar tracker's store,
// collector and reporter.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"scholar-tracker/config"
	"scholar-tracker/models"
	"scholar-tracker/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const progName = "scholar-tracker"

// app carries the per-process state shared by every verb.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB

	dbFlag  string
	verbose bool
}

// NewRootCmd creates the root command with every verb registered.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   progName + " <verb> [key=value ...]",
		Short: "Axie scholar tracker",
		Long: `Keeps a list of scholars and a daily history of their in-game stats.

Scholars are managed with key=value pairs, e.g.:
  ` + progName + ` add-scholar internal_id=42 ronin_id=ronin:abcdef name=Clark

Run '` + progName + ` help-action <verb>' for an example of each verb.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.dbFlag, "db", "", "Database file or DSN (overrides DATABASE_URL)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		a.initDBCmd(),
		a.addScholarCmd(),
		a.getScholarCmd(),
		a.updScholarCmd(),
		a.delScholarCmd(),
		a.listScholarsCmd(),
		a.collectCmd(),
		a.getTracksCmd(),
		a.exportTracksCmd(),
		a.serveCmd(),
		helpActionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits with status 1 on any error.
func Execute() {
	if err := run(NewRootCmd(), os.Args[1:], os.Stderr); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string, stderr io.Writer) error {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if IsUsageError(err) {
			fmt.Fprintf(stderr, "Run '%s help-action <verb>' for usage.\n", progName)
		}
	}
	return err
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbFlag != "" {
		cfg.DatabaseURL = a.dbFlag
	}
	a.cfg = cfg

	a.log, err = newLogger(cfg.LogLevel, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log.Debug("configuration loaded",
		zap.String("verb", cmd.Name()),
		zap.Bool("dotenv", cfg.DotenvLoaded),
		zap.String("db_kind", string(utils.KindOf(cfg.DatabaseURL))),
	)
	return nil
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.Encoding = "console"
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.DisableStacktrace = true

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	logCfg.Level = zap.NewAtomicLevelAt(lvl)
	return logCfg.Build()
}

// openDB opens the store once per process. Every verb except init-db
// needs the schema to exist already.
func (a *app) openDB(requireSchema bool) (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := utils.OpenDB(a.cfg.DatabaseURL, a.log)
	if err != nil {
		return nil, err
	}
	if requireSchema {
		if err := utils.EnsureSchema(db); err != nil {
			_ = utils.CloseDB(db)
			return nil, err
		}
	}
	a.db = db
	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := utils.CloseDB(a.db); err != nil && a.log != nil {
			a.log.Warn("closing database", zap.Error(err))
		}
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// verb wraps a handler: it parses the key=value arguments, opens the store
// and always releases it, even when the handler fails.
func (a *app) verb(requireSchema bool, fn func(cmd *cobra.Command, pairs Pairs) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()

		pairs, err := ParsePairs(args)
		if err != nil {
			return err
		}
		if _, err := a.openDB(requireSchema); err != nil {
			return err
		}
		return fn(cmd, pairs)
	}
}

// asUsage turns an unknown or read-only field reported by the models into
// a usage error.
func asUsage(err error) error {
	if errors.Is(err, models.ErrUnknownField) || errors.Is(err, models.ErrReadOnlyField) {
		return &UsageError{Msg: err.Error()}
	}
	return err
}
