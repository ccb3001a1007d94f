package profile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/crewrate/internal/domain/model"
)

// Upsert applies rating r to the profile whose name matches r.WorkerName
// case-insensitively, creating the profile when none does. The input
// collection is left untouched; the updated collection is returned.
func Upsert(profiles []model.WorkerProfile, r model.Rating, rules Rules) ([]model.WorkerProfile, error) {
	r, err := prepare(r, rules, true)
	if err != nil {
		return nil, err
	}

	out := make([]model.WorkerProfile, len(profiles), len(profiles)+1)
	copy(out, profiles)

	if i := indexOf(out, r.WorkerName); i >= 0 {
		p := clone(out[i])
		add(&p, r, rules)
		out[i] = p
		return out, nil
	}

	p := newProfile(r.WorkerName, rules)
	add(&p, r, rules)
	return append(out, p), nil
}

// Build folds ratings into a fresh profile named name. Ratings that no
// longer validate against rules (a category removed from configuration)
// are skipped. The scale is not enforced on stored ratings.
func Build(name string, ratings []model.Rating, rules Rules) model.WorkerProfile {
	p := newProfile(name, rules)
	for _, r := range ratings {
		r.WorkerName = p.Name
		prepared, err := prepare(r, rules, false)
		if err != nil {
			continue
		}
		add(&p, prepared, rules)
	}
	return p
}

// prepare validates r and canonicalizes its fields.
func prepare(r model.Rating, rules Rules, enforceScale bool) (model.Rating, error) {
	r.WorkerName = strings.Join(strings.Fields(r.WorkerName), " ")
	if r.WorkerName == "" {
		return r, ErrEmptyName
	}
	canon, ok := rules.Categories.Canonical(r.Category)
	if !ok {
		return r, fmt.Errorf("%w: %q", ErrUnknownCategory, r.Category)
	}
	r.Category = canon
	if !finite(r.Score) {
		return r, ErrInvalidScore
	}
	if enforceScale && !rules.InScale(r.Score) {
		return r, fmt.Errorf("%w: %g not in [%g, %g]", ErrScoreOutOfRange, r.Score, rules.ScoreMin, rules.ScoreMax)
	}
	r.Reviewer = strings.TrimSpace(r.Reviewer)
	r.Note = strings.TrimSpace(r.Note)
	return r, nil
}

// add appends a prepared rating to p and refreshes derived fields.
func add(p *model.WorkerProfile, r model.Rating, rules Rules) {
	p.Ratings = append(p.Ratings, r)

	if p.CategoryHistory == nil {
		p.CategoryHistory = make(map[string][]model.Rating, rules.Categories.Len())
	}
	history := append(p.CategoryHistory[r.Category], r)
	sortByRatedAt(history)
	p.CategoryHistory[r.Category] = history

	if !slices.Contains(p.JobCategories, r.Category) {
		p.JobCategories = append(p.JobCategories, r.Category)
	}
	if r.Note != "" {
		p.Strengths = append(p.Strengths, r.Note)
	}
	refresh(p, rules)
}
