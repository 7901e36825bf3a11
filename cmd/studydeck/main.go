package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studydeck/internal/config"
	"github.com/conorfennell/studydeck/internal/deck"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/fsrs"
	"github.com/conorfennell/studydeck/internal/importer"
	"github.com/conorfennell/studydeck/internal/logging"
	"github.com/conorfennell/studydeck/internal/review"
	"github.com/conorfennell/studydeck/internal/storage"
	"github.com/conorfennell/studydeck/internal/web"
)

func main() {
	cfg, err := config.Load(config.Flags(), os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "studydeck: %v\n", err)
		os.Exit(2)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "studydeck: %v\n", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("studydeck failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.DB)

	params := fsrs.DefaultParams()
	params.DesiredRetention = cfg.DesiredRetention

	deckSvc := deck.NewService(db, nil, logger)
	reviewSvc := review.NewService(db, logger, review.WithParams(params))
	imp := importer.New(db, cfg.ReposDir, logger)

	switch {
	case cfg.AddSource != "":
		src, err := deckSvc.AddSource(ctx, domain.AddSource{ProjectID: cfg.Project, Path: cfg.AddSource})
		if err != nil {
			return fmt.Errorf("add source: %w", err)
		}
		fmt.Printf("Added %s source %d: %s\n", src.Type, src.ID, src.Path)
		return nil

	case cfg.Sync:
		reports, err := imp.RunAll(ctx)
		if err != nil {
			return err
		}
		for _, r := range reports {
			fmt.Printf("%s: %d parsed, %d new, %d removed, %d errors\n",
				r.Path, r.Parsed, r.Inserted, r.Deleted, len(r.Errors))
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		return nil
	}

	srv := web.NewServer(deckSvc, reviewSvc, imp, cfg.SessionTTL, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
