package profile

import (
	"context"
	"fmt"

	"github.com/okian/crewrate/internal/domain/model"
)

// Gateway loads and stores the full profile collection.
type Gateway interface {
	Load(ctx context.Context) ([]model.WorkerProfile, error)
	Save(ctx context.Context, profiles []model.WorkerProfile) error
}

// Submit loads the collection from gw, applies r and writes the whole
// collection back. It returns the updated profile and whether it was
// created by this rating.
func Submit(ctx context.Context, gw Gateway, r model.Rating, rules Rules) (model.WorkerProfile, bool, error) {
	profiles, err := gw.Load(ctx)
	if err != nil {
		return model.WorkerProfile{}, false, fmt.Errorf("load profiles: %w", err)
	}
	_, existed := Find(profiles, r.WorkerName)

	next, err := Upsert(profiles, r, rules)
	if err != nil {
		return model.WorkerProfile{}, false, err
	}
	if err := gw.Save(ctx, next); err != nil {
		return model.WorkerProfile{}, false, fmt.Errorf("save profiles: %w", err)
	}

	p, _ := Find(next, r.WorkerName)
	return p, !existed, nil
}
