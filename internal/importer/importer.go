// Package importer reconciles markdown card sources with the flashcards
// stored for their projects.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/fingerprint"
	"github.com/conorfennell/studydeck/internal/gitsource"
	"github.com/conorfennell/studydeck/internal/parser"
	"github.com/conorfennell/studydeck/internal/storage"
)

// Report summarizes the reconciliation of one source.
type Report struct {
	SourceID int64    `json:"source_id"`
	Path     string   `json:"path"`
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors,omitempty"`
}

// GitSyncFunc fetches a git source into a local directory.
type GitSyncFunc func(ctx context.Context, logger *slog.Logger, url, localPath string) error

// Importer walks sources and keeps their cards in step with storage.
type Importer struct {
	db       *storage.DB
	reposDir string
	gitSync  GitSyncFunc
	now      func() time.Time
	log      *slog.Logger
}

// New creates an Importer that checks git sources out below reposDir.
func New(db *storage.DB, reposDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:       db,
		reposDir: reposDir,
		gitSync:  gitsource.Sync,
		now:      time.Now,
		log:      logger,
	}
}

// RunAll reconciles every source. A failing source is reported and skipped.
func (im *Importer) RunAll(ctx context.Context) ([]Report, error) {
	im.log.Info("starting sync for all sources")
	sources, err := im.db.GetAllSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	if len(sources) == 0 {
		im.log.Info("no sources configured")
		return nil, nil
	}

	reports := make([]Report, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		reports = append(reports, im.Run(ctx, src))
	}
	im.log.Info("sync complete", "sources", len(reports))
	return reports, nil
}

// Run reconciles a single source.
func (im *Importer) Run(ctx context.Context, src domain.Source) Report {
	report := Report{SourceID: src.ID, Path: src.Path}
	log := im.log.With("source_id", src.ID, "type", src.Type, "path", src.Path)
	log.Info("syncing source")

	dir := src.Path
	if src.Type == domain.SourceGit {
		local, err := gitsource.LocalPath(im.reposDir, src.Path)
		if err != nil {
			return report.fail(log, err)
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return report.fail(log, fmt.Errorf("create repos directory: %w", err))
		}
		if err := im.gitSync(ctx, log, src.Path, local); err != nil {
			return report.fail(log, err)
		}
		dir = local
	}

	im.reconcile(ctx, log, src, dir, &report)
	return report
}

func (r Report) fail(log *slog.Logger, err error) Report {
	log.Error("source sync failed", "error", err)
	r.Errors = append(r.Errors, err.Error())
	return r
}

func (im *Importer) reconcile(ctx context.Context, log *slog.Logger, src domain.Source, dir string, report *Report) {
	existing, err := im.db.GetCardsBySourceID(ctx, src.ID)
	if err != nil {
		*report = report.fail(log, err)
		return
	}
	// Cards are matched on the hash they were imported with, so content
	// edited since then is not treated as orphaned.
	known := make(map[string]bool, len(existing))
	for _, fc := range existing {
		known[fc.SourceHash] = true
	}

	now := im.now()
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		drafts, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("parsing %s: %v", path, parseErr))
		}
		for _, draft := range drafts {
			report.Parsed++
			hash := fingerprint.Hash(draft)
			if found[hash] {
				continue
			}
			found[hash] = true
			if known[hash] {
				continue
			}

			fc := &domain.Flashcard{
				ProjectID:  src.ProjectID,
				Front:      draft.Front,
				Back:       draft.Back,
				Context:    draft.Context,
				Hash:       hash,
				SourceID:   src.ID,
				SourceHash: hash,
				CreatedAt:  now,
			}
			if err := im.db.InsertFlashcard(ctx, fc, now); err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("insert %s: %v", hash, err))
				continue
			}
			log.Debug("new card found", "hash", hash)
			report.Inserted++
		}
		return ctx.Err()
	})
	if walkErr != nil {
		// Cards inserted before the failure are kept. Orphans are only
		// removed after a complete walk, and last_scanned is left as is.
		log.Warn("walk aborted, keeping partial import", "inserted", report.Inserted)
		*report = report.fail(log, fmt.Errorf("walk %s: %w", dir, walkErr))
		return
	}

	for _, fc := range existing {
		if found[fc.SourceHash] {
			continue
		}
		log.Info("orphaned card, deleting", "hash", fc.SourceHash)
		if err := im.db.DeleteFlashcard(ctx, fc.ID); err != nil {
			log.Warn("failed to delete orphaned card", "hash", fc.SourceHash, "error", err)
			continue
		}
		report.Deleted++
	}

	if err := im.db.UpdateSourceLastScanned(ctx, src.ID, now); err != nil {
		log.Warn("failed to update last scanned for source", "error", err)
	}

	log.Info("reconciliation complete",
		"parsed_cards", report.Parsed,
		"inserted", report.Inserted,
		"orphaned_deleted", report.Deleted,
		"errors", len(report.Errors),
	)
}
