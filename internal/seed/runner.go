package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/crewrate/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

// ErrNoCategories is returned when the server reports no categories.
var ErrNoCategories = errors.New("server has no rating categories")

// Run checks the server, generates ratings for its live categories and
// scale, submits them and verifies the server's counters moved.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg = cfg.withDefaults()
	st := Stats{StartTime: time.Now()}
	log := logger.Named("seed")
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.Int("ratings", cfg.Ratings),
		logger.Int("days", cfg.Days),
	)

	if _, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil); err != nil {
		return st, fmt.Errorf("service health check failed: %w", err)
	}

	var live settings
	if _, err := c.do(ctx, http.MethodGet, "/api/admin/settings", nil, &live); err != nil {
		return st, fmt.Errorf("fetch settings: %w", err)
	}
	if len(live.Categories) == 0 {
		return st, ErrNoCategories
	}

	var before stats
	if _, err := c.do(ctx, http.MethodGet, "/api/stats", nil, &before); err != nil {
		return st, fmt.Errorf("fetch stats: %w", err)
	}
	st.WorkersBefore, st.RatingsBefore = before.Workers, before.Ratings

	gen := newGenerator(cfg.Seed, live.Categories, live.ScoreMin, live.ScoreMax, time.Now())
	ratings := gen.ratings(cfg)
	st.Generated = len(ratings)

	submitRatings(ctx, c, cfg, ratings, &st)
	if err := ctx.Err(); err != nil {
		return st, fmt.Errorf("seed run interrupted: %w", err)
	}

	var after stats
	if _, err := c.do(ctx, http.MethodGet, "/api/stats", nil, &after); err != nil {
		return st, fmt.Errorf("fetch stats: %w", err)
	}
	st.WorkersAfter, st.RatingsAfter = after.Workers, after.Ratings
	if got := st.RatingsAfter - st.RatingsBefore; got < int64(st.Successful()) {
		log.Warn(ctx, "server reports fewer new ratings than were accepted",
			logger.Int64("reported", got),
			logger.Int("accepted", st.Successful()),
		)
	}

	if cfg.OutputFile != "" {
		if err := saveRatings(cfg.OutputFile, ratings); err != nil {
			log.Warn(ctx, "failed to save generated ratings", logger.Error(err))
		}
	}

	st.Duration = time.Since(st.StartTime)
	logFinalStats(ctx, log, st)
	return st, nil
}

// saveRatings writes the generated ratings to a JSON file.
func saveRatings(path string, ratings []Rating) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(ratings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ratings: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func logFinalStats(ctx context.Context, log logger.Logger, st Stats) {
	var perSecond float64
	if st.Duration > 0 {
		perSecond = float64(st.Submitted) / st.Duration.Seconds()
	}
	log.Info(ctx, "seed run finished",
		logger.Int("generated", st.Generated),
		logger.Int("submitted", st.Submitted),
		logger.Int("created", st.Created),
		logger.Int("updated", st.Updated),
		logger.Int("failed", st.Failed),
		logger.Int64("workers", st.WorkersAfter),
		logger.Int64("ratings", st.RatingsAfter),
		logger.Duration("duration", st.Duration),
		logger.Float64("ratingsPerSecond", perSecond),
	)
}
