package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/config"
	"github.com/stemsi/exstem-portal/internal/database"
	"github.com/stemsi/exstem-portal/internal/logger"
	"github.com/stemsi/exstem-portal/internal/repository"
	"github.com/stemsi/exstem-portal/internal/service"
)

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "Parse and validate files without writing")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: import-exams [flags] <file.yaml>...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Component(logger.Setup(logger.Options{Level: cfg.LogLevel, Format: "pretty"}), "import_exams")

	exams, err := loadFiles(flag.Args())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load exam files")
	}
	log.Info().Int("exams", len(exams)).Msg("Exam files parsed")

	if dryRun {
		for _, e := range exams {
			log.Info().Str("exam_id", e.ID.String()).Str("title", e.Title).
				Int("questions", len(e.Questions)).Msg("Would import")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := importAll(ctx, cfg, exams, log); err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
}

func importAll(ctx context.Context, cfg *config.Config, exams []*examFile, log zerolog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	repo := repository.NewExamRepository(pool)
	catalog := service.NewExamCatalogService(repo, rdb, cfg.ExamCacheTTL, log)

	for _, f := range exams {
		exam := f.Exam
		if err := repo.Upsert(ctx, exam); err != nil {
			return fmt.Errorf("%s: upsert %q: %w", f.Source, exam.Title, err)
		}
		// Running sessions keep their loaded copy; new sessions see the update.
		if err := catalog.Put(ctx, exam); err != nil {
			log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Cache refresh failed")
		}
		log.Info().
			Str("exam_id", exam.ID.String()).
			Str("title", exam.Title).
			Str("source", f.Source).
			Msg("Exam imported")
	}
	return nil
}
