package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/okian/crewrate/internal/adapters/repository"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/internal/domain/scoring"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

// ProfileDetail is a profile with per-category trends and analytics.
type ProfileDetail struct {
	model.WorkerProfile
	Trends    map[string]string `json:"trends"`
	Analytics scoring.Analytics `json:"analytics"`
}

// CategoryHistory is one category's chronological ratings and trend.
type CategoryHistory struct {
	Category string         `json:"category"`
	History  []model.Rating `json:"history"`
	Trend    string         `json:"trend"`
}

// ListProfiles builds a profile for every worker, sorted by name.
func (s *Service) ListProfiles(ctx context.Context) ([]model.WorkerProfile, error) {
	workers, err := s.store.ListWorkers(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	recs, err := s.store.ListAllRatings(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	byWorker := make(map[int64][]model.Rating, len(workers))
	for _, rec := range recs {
		byWorker[rec.WorkerID] = append(byWorker[rec.WorkerID], rec.Rating())
	}

	rules := s.rules()
	out := make([]model.WorkerProfile, 0, len(workers))
	for _, w := range workers {
		out = append(out, s.build(w, byWorker[w.ID], rules))
	}
	profile.SortByName(out)
	return out, nil
}

// Profile returns the profile of worker id with trends and analytics.
func (s *Service) Profile(ctx context.Context, id int64) (ProfileDetail, error) {
	w, ratings, err := s.workerRatings(ctx, id)
	if err != nil {
		return ProfileDetail{}, err
	}
	rules := s.rules()
	p := s.build(w, ratings, rules)

	trends := make(map[string]string, len(p.CategoryHistory))
	for cat, h := range p.CategoryHistory {
		trends[cat] = scoring.Trend(h)
	}
	return ProfileDetail{
		WorkerProfile: p,
		Trends:        trends,
		Analytics:     scoring.Analyze(p.Ratings, rules.Thresholds),
	}, nil
}

// History returns the chronological history of one category for worker id.
func (s *Service) History(ctx context.Context, id int64, cat string) (CategoryHistory, error) {
	rules := s.rules()
	name, ok := rules.Categories.Canonical(cat)
	if !ok {
		return CategoryHistory{}, Invalid("category", "is not a recognized category")
	}
	w, ratings, err := s.workerRatings(ctx, id)
	if err != nil {
		return CategoryHistory{}, err
	}
	p := s.build(w, ratings, rules)

	h := p.CategoryHistory[name]
	if h == nil {
		h = []model.Rating{}
	}
	return CategoryHistory{Category: name, History: h, Trend: scoring.Trend(h)}, nil
}

// SubmitRating records a profile-style rating keyed by worker name and
// returns the updated profile. created is true for a new worker.
func (s *Service) SubmitRating(ctx context.Context, r model.Rating) (model.WorkerProfile, bool, error) {
	rules := s.rules()
	if r.RatedAt.IsZero() {
		r.RatedAt = time.Now().UTC()
	}
	// Upsert on an empty collection runs the core's validation and
	// canonicalization without touching the store.
	checked, err := profile.Upsert(nil, r, rules)
	if err != nil {
		metrics.RecordRatingRejected("invalid")
		return model.WorkerProfile{}, false, validationFromCore(err, profileFields)
	}
	clean := checked[0].Ratings[0]

	w, _, created, err := s.store.SubmitRating(ctx, clean.WorkerName, model.RatingRecord{
		Date:         clean.RatedAt.UTC(),
		JobCategory:  clean.Category,
		OverallScore: clean.Score,
		Reviewer:     clean.Reviewer,
		Notes:        clean.Note,
	})
	if err != nil {
		return model.WorkerProfile{}, false, storageErr(err)
	}
	if created {
		metrics.RecordWorkerCreated()
	}
	metrics.RecordRatingSubmitted(clean.Category, clean.Score)

	_, ratings, err := s.workerRatings(ctx, w.ID)
	if err != nil {
		return model.WorkerProfile{}, false, err
	}
	p := s.build(w, ratings, rules)
	s.logger.Info(ctx, "rating submitted",
		logger.String("worker", p.Name),
		logger.String("category", clean.Category),
		logger.Float64("overallScore", p.OverallScore),
		logger.String("status", string(p.OverallStatus)),
		logger.Bool("created", created),
	)
	return p, created, nil
}

// ResetProfiles removes every worker and rating.
func (s *Service) ResetProfiles(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return storageErr(err)
	}
	metrics.RecordProfilesReset()
	s.logger.Warn(ctx, "all profiles reset")
	return nil
}

// workerRatings returns worker id and its ratings, oldest first.
func (s *Service) workerRatings(ctx context.Context, id int64) (model.Worker, []model.Rating, error) {
	w, err := s.store.GetWorker(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Worker{}, nil, ErrProfileNotFound
	}
	if err != nil {
		return model.Worker{}, nil, storageErr(err)
	}
	recs, err := s.store.ListRatings(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Worker{}, nil, ErrProfileNotFound
	}
	if err != nil {
		return model.Worker{}, nil, storageErr(err)
	}

	slices.Reverse(recs)
	ratings := make([]model.Rating, 0, len(recs))
	for _, rec := range recs {
		ratings = append(ratings, rec.Rating())
	}
	return w, ratings, nil
}

func (s *Service) build(w model.Worker, ratings []model.Rating, rules profile.Rules) model.WorkerProfile {
	p := profile.Build(w.Name, ratings, rules)
	p.ID = w.ID
	return p
}
