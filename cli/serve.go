package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scholar-tracker/handlers"
	"scholar-tracker/middleware"
	"scholar-tracker/services"
	"scholar-tracker/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// newAPI builds the read API. Every route requires the API token.
func newAPI(db *gorm.DB, collector *workers.Collector, token string, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               progName,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(middleware.TokenAuthMiddleware(token, logger))

	handlers.SetupScholarRoutes(app, services.NewScholarService(db), services.NewTrackService(db), collector)
	return app
}

func (a *app) serveCmd() *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API and collect on a schedule",
		Long: "Listens on HTTP_ADDR and runs a collection every COLLECT_INTERVAL until\n" +
			"interrupted. API_TOKEN must be set; clients send it as a bearer token.",
		Example: "  API_TOKEN=s3cret " + progName + " serve\n" +
			"  API_TOKEN=s3cret COLLECT_INTERVAL=12h " + progName + " serve --collect-now",
		RunE: a.verb(true, func(cmd *cobra.Command, pairs Pairs) error {
			if err := pairs.Only(); err != nil {
				return err
			}
			if a.cfg.APIToken == "" {
				return errors.New("API_TOKEN is not set, refusing to serve without authentication")
			}
			log := a.log.Named("api")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collector := a.newCollector()
			sched, err := workers.StartCollectScheduler(ctx, collector, a.cfg.CollectInterval, runNow, a.log)
			if err != nil {
				return err
			}
			// runs before the deferred database close in verb
			defer func() {
				stop()
				if err := sched.Shutdown(); err != nil {
					log.Warn("scheduler shutdown", zap.Error(err))
				}
				log.Info("collection scheduler stopped")
			}()

			api := newAPI(a.db, collector, a.cfg.APIToken, a.log)
			listenErr := make(chan error, 1)
			go func() {
				listenErr <- api.Listen(a.cfg.HTTPAddr)
			}()
			log.Info("server running", zap.String("addr", a.cfg.HTTPAddr))
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s, collecting every %s.\n", a.cfg.HTTPAddr, a.cfg.CollectInterval)

			select {
			case err := <-listenErr:
				stop()
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return api.ShutdownWithContext(shutdownCtx)
		}),
	}
	cmd.Flags().BoolVar(&runNow, "collect-now", false, "Run a collection right away instead of after the first interval")
	return cmd
}
