// Package sync reconciles markdown card sources with stored cards.
package sync

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studytrace/internal/domain"
	"github.com/conorfennell/studytrace/internal/gitsource"
	"github.com/conorfennell/studytrace/internal/knol"
	"github.com/conorfennell/studytrace/internal/parser"
	"github.com/conorfennell/studytrace/internal/review"
	"github.com/conorfennell/studytrace/internal/storage"
)

// Store is the storage the syncer reconciles against.
type Store interface {
	GetAllSources(ctx context.Context) ([]storage.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID int64, at time.Time) error
	GetCardsBySourceID(ctx context.Context, sourceID int64) ([]domain.Card, error)
	InsertCard(ctx context.Context, c domain.Card) error
	DeleteCard(ctx context.Context, id string) (bool, error)
}

// GitFunc brings a local clone of a git source up to date.
type GitFunc func(ctx context.Context, url, localPath string, progress io.Writer) error

// Syncer imports cards from configured sources.
type Syncer struct {
	store     Store
	scheduler *review.Scheduler
	reposDir  string
	git       GitFunc
	logger    *slog.Logger
}

// New creates a Syncer that clones git sources under reposDir.
func New(store Store, scheduler *review.Scheduler, reposDir string, logger *slog.Logger) *Syncer {
	if scheduler == nil {
		scheduler = review.NewScheduler(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:     store,
		scheduler: scheduler,
		reposDir:  reposDir,
		git:       gitsource.Sync,
		logger:    logger,
	}
}

// Report summarizes the reconciliation of one source.
type Report struct {
	SourceID int64  `json:"sourceId"`
	Path     string `json:"path"`
	Parsed   int    `json:"parsed"`
	Inserted int    `json:"inserted"`
	Deleted  int    `json:"deleted"`
	Errors   int    `json:"errors"`
	Err      string `json:"error,omitempty"`
}

// RunSync iterates over all sources and reconciles them. A failing source is
// reported and does not stop the others.
func (s *Syncer) RunSync(ctx context.Context) ([]Report, error) {
	s.logger.Info("Starting sync process for all sources...")
	sources, err := s.store.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		s.logger.Info("No sources configured. Add one with `studytrace source add <path/or/url.git>`")
		return []Report{}, nil
	}

	reports := make([]Report, 0, len(sources))
	for _, source := range sources {
		s.logger.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		localPath := source.Path
		if source.Type == storage.SourceGit {
			localPath, err = gitURLToLocalPath(s.reposDir, source.Path)
			if err == nil {
				err = s.git(ctx, source.Path, localPath, nil)
			}
			if err != nil {
				s.logger.Error("Error syncing git repo", "url", source.Path, "error", err)
				reports = append(reports, Report{SourceID: source.ID, Path: source.Path, Err: err.Error()})
				continue
			}
		}

		report, err := s.reconcile(ctx, source.ID, localPath)
		if err != nil {
			s.logger.Error("Error reconciling source", "path", localPath, "error", err)
			report.Err = err.Error()
		}
		reports = append(reports, report)
	}
	s.logger.Info("Sync process complete.")
	return reports, nil
}

// reconcile inserts cards for new items found under root and deletes the
// source's cards whose items are gone. Existing cards keep their review state.
// Cards are matched by content hash within the source. When any file fails to
// parse or any card fails to store, no cards are deleted.
func (s *Syncer) reconcile(ctx context.Context, sourceID int64, root string) (Report, error) {
	report := Report{SourceID: sourceID, Path: root}

	cards, err := s.store.GetCardsBySourceID(ctx, sourceID)
	if err != nil {
		return report, fmt.Errorf("error getting cards for source %d: %w", sourceID, err)
	}
	known := make(map[string]bool, len(cards))
	for _, c := range cards {
		known[c.ContentHash] = true
	}
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		items, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			s.logger.Warn("Failed to parse file", "path", path, "error", parseErr)
			report.Errors++
		}
		for _, item := range items {
			report.Parsed++
			hash := knol.Hash(item)
			if found[hash] {
				continue
			}
			found[hash] = true
			if known[hash] {
				continue
			}

			s.logger.Info("New card found, inserting...", "hash", hash)
			if err := s.store.InsertCard(ctx, s.cardFor(item, hash, sourceID)); err != nil {
				s.logger.Warn("Card insert failed", "hash", hash, "error", err)
				report.Errors++
				continue
			}
			report.Inserted++
		}
		return nil
	})
	if walkErr != nil {
		return report, fmt.Errorf("error walking directory %s: %w", root, walkErr)
	}

	if report.Errors > 0 {
		s.logger.Warn("Skipping orphan cleanup after errors", "path", root, "errors", report.Errors)
	} else {
		for _, c := range cards {
			if found[c.ContentHash] {
				continue
			}
			s.logger.Info("Orphaned card, deleting", "card_id", c.ID, "hash", c.ContentHash)
			if _, err := s.store.DeleteCard(ctx, c.ID); err != nil {
				s.logger.Warn("Failed to delete orphaned card", "card_id", c.ID, "error", err)
				report.Errors++
				continue
			}
			report.Deleted++
		}
	}

	if err := s.store.UpdateSourceLastScanned(ctx, sourceID, s.scheduler.Now()); err != nil {
		s.logger.Warn("Failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	s.logger.Info("reconciliation complete",
		"path", root,
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"orphaned_deleted", report.Deleted,
		"errors", report.Errors,
	)
	return report, nil
}

func (s *Syncer) cardFor(item domain.QuizItem, hash string, sourceID int64) domain.Card {
	state := s.scheduler.Initialize()
	return domain.Card{
		ID:          domain.NewID("card"),
		Title:       item.Q,
		Summary:     item.A,
		SelfQuiz:    []domain.QuizItem{item},
		ContentHash: hash,
		SourceID:    sourceID,
		CreatedAt:   s.scheduler.Now(),
		Review:      &state,
	}
}

// SourceType guesses whether a path names a git repository or a local directory.
func SourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		return storage.SourceGit
	}
	return storage.SourceLocal
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
