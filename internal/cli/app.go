// Package cli implements the studytrace commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/conorfennell/studytrace/internal/config"
	"github.com/conorfennell/studytrace/internal/ingest"
	"github.com/conorfennell/studytrace/internal/logging"
	"github.com/conorfennell/studytrace/internal/metrics"
	"github.com/conorfennell/studytrace/internal/review"
	"github.com/conorfennell/studytrace/internal/storage"
	"github.com/conorfennell/studytrace/internal/study"
	"github.com/conorfennell/studytrace/internal/sync"
)

// app is the wired application shared by every command.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	db        *storage.DB
	validate  *validator.Validate
	scheduler *review.Scheduler
	study     *study.Service
	ingester  *ingest.Ingester
	syncer    *sync.Syncer
}

// openApp loads the configuration from the command's flags and opens the database.
// rec may be nil.
func openApp(cmd *cobra.Command, rec metrics.Recorder) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("Database opened successfully", "dsn", cfg.Storage.DSN)

	if rec == nil {
		rec = metrics.NewNop()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	scheduler := review.NewScheduler(nil)

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		validate:  validate,
		scheduler: scheduler,
		study: study.NewService(db, scheduler, study.Options{
			ScanLimit: cfg.Review.CardScanLimit,
			Logger:    logger,
			Metrics:   rec,
		}),
		ingester: ingest.New(db, validate, ingest.Options{
			MaxInputChars: cfg.Ingest.MaxInputChars,
			PreviewChars:  cfg.Ingest.PreviewChars,
			Now:           scheduler.Now,
			Logger:        logger,
			Metrics:       rec,
		}),
		syncer: sync.New(db, scheduler, cfg.Sources.ReposDir, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// RootCmd returns the studytrace command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studytrace",
		Short: "StudyTrace - spaced repetition for what you read",
		Long: `StudyTrace captures what you read, turns it into knowledge cards and
schedules reviews of them with a spaced-repetition algorithm.

Cards come from captured pages (via the HTTP API) or from markdown
Q:/A: files in local directories and git repositories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(ServeCmd())
	root.AddCommand(SyncCmd())
	root.AddCommand(SourceCmd())
	root.AddCommand(DueCmd())
	root.AddCommand(SuggestCmd())
	root.AddCommand(ReviewCmd())
	root.AddCommand(PlanCmd())
	return root
}
