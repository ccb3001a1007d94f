package service

import (
	"context"

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/scoring"
	"github.com/okian/crewrate/pkg/metrics"
)

// Stats summarizes the stored data.
type Stats struct {
	Workers      int64          `json:"workers"`
	Ratings      int64          `json:"ratings"`
	ByStatus     map[string]int `json:"byStatus"`
	AverageScore float64        `json:"averageScore"`
}

// Stats counts workers and ratings and the status distribution of the
// rated workers. It also refreshes the inventory gauges.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	workers, ratings, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, storageErr(err)
	}
	profiles, err := s.ListProfiles(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Workers: workers,
		Ratings: ratings,
		ByStatus: map[string]int{
			string(model.StatusTopPerformer): 0,
			string(model.StatusSteady):       0,
			string(model.StatusAtRisk):       0,
		},
	}
	var sum float64
	rated := 0
	for _, p := range profiles {
		if len(p.Ratings) == 0 {
			continue
		}
		st.ByStatus[string(p.OverallStatus)]++
		sum += p.OverallScore
		rated++
	}
	if rated > 0 {
		st.AverageScore = scoring.Round2(sum / float64(rated))
	}

	metrics.UpdateInventory(workers, ratings)
	metrics.UpdateProfilesByStatus(st.ByStatus)
	return st, nil
}
