package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/okian/crewrate/internal/adapters/repository"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

// NewRating is a rating submitted through the worker gateway.
type NewRating struct {
	WorkerID     int64
	Date         time.Time // zero means now
	JobCategory  string
	OverallScore float64
	Flags        model.Flags
	Reviewer     string
	Notes        string
}

// ListWorkers returns every worker sorted by name.
func (s *Service) ListWorkers(ctx context.Context) ([]model.Worker, error) {
	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return workers, nil
}

// CreateWorker returns the worker with a matching name, creating it if
// needed. created is true only for a new worker.
func (s *Service) CreateWorker(ctx context.Context, name string) (model.Worker, bool, error) {
	if strings.TrimSpace(name) == "" {
		return model.Worker{}, false, Invalid("name", "is required")
	}
	w, created, err := s.store.FindOrCreateWorker(ctx, name)
	if err != nil {
		return model.Worker{}, false, storageErr(err)
	}
	if created {
		metrics.RecordWorkerCreated()
		s.logger.Info(ctx, "worker created", logger.Int64("id", w.ID), logger.String("name", w.Name))
	}
	return w, created, nil
}

// ListRatings returns a worker's ratings, newest first.
func (s *Service) ListRatings(ctx context.Context, workerID int64) ([]model.RatingRecord, error) {
	recs, err := s.store.ListRatings(ctx, workerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrWorkerNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return recs, nil
}

// CreateRating validates in and stores it. Nothing is stored when the
// worker does not exist.
func (s *Service) CreateRating(ctx context.Context, in NewRating) (model.RatingRecord, error) {
	rec, err := s.validateRating(in)
	if err != nil {
		metrics.RecordRatingRejected("invalid")
		return model.RatingRecord{}, err
	}

	out, err := s.store.CreateRating(ctx, rec)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.RecordRatingRejected("unknown_worker")
		return model.RatingRecord{}, ErrWorkerNotFound
	}
	if err != nil {
		return model.RatingRecord{}, storageErr(err)
	}

	metrics.RecordRatingSubmitted(out.JobCategory, out.OverallScore)
	s.logger.Debug(ctx, "rating stored",
		logger.Int64("id", out.ID),
		logger.Int64("workerId", out.WorkerID),
		logger.String("category", out.JobCategory),
		logger.Float64("score", out.OverallScore),
	)
	return out, nil
}

func (s *Service) validateRating(in NewRating) (model.RatingRecord, error) {
	rules := s.rules()
	if in.WorkerID <= 0 {
		return model.RatingRecord{}, Invalid(gatewayFields.name, "is required")
	}
	if strings.TrimSpace(in.JobCategory) == "" {
		return model.RatingRecord{}, Invalid(gatewayFields.category, "is required")
	}
	cat, ok := rules.Categories.Canonical(in.JobCategory)
	if !ok {
		return model.RatingRecord{}, Invalid(gatewayFields.category, "is not a recognized category")
	}
	if math.IsNaN(in.OverallScore) || math.IsInf(in.OverallScore, 0) {
		return model.RatingRecord{}, Invalid(gatewayFields.score, "must be a number")
	}
	if !rules.InScale(in.OverallScore) {
		return model.RatingRecord{}, Invalid(gatewayFields.score, "is outside the rating scale")
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	return model.RatingRecord{
		WorkerID:     in.WorkerID,
		Date:         date.UTC(),
		JobCategory:  cat,
		OverallScore: in.OverallScore,
		Flags:        in.Flags,
		Reviewer:     strings.TrimSpace(in.Reviewer),
		Notes:        strings.TrimSpace(in.Notes),
	}, nil
}
