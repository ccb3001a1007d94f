// Package profile builds and maintains worker profiles from ratings.
//
// Everything here is pure except Submit, which reads and writes the
// profile collection through an injected Gateway.
package profile

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/crewrate/internal/domain/category"
	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/scoring"
)

// Default score scale.
const (
	DefaultScoreMin = 1
	DefaultScoreMax = 5
)

// Rules carries the configuration the profile core depends on.
type Rules struct {
	Categories category.Set
	Thresholds scoring.Thresholds
	// ScoreMin and ScoreMax bound accepted scores. The check is disabled
	// when ScoreMax <= ScoreMin.
	ScoreMin float64
	ScoreMax float64
}

// DefaultRules returns the built-in categories, thresholds and 1-5 scale.
func DefaultRules() Rules {
	return Rules{
		Categories: category.Default(),
		Thresholds: scoring.DefaultThresholds(),
		ScoreMin:   DefaultScoreMin,
		ScoreMax:   DefaultScoreMax,
	}
}

// InScale reports whether score lies inside the configured scale.
func (r Rules) InScale(score float64) bool {
	if r.ScoreMax <= r.ScoreMin {
		return true
	}
	return score >= r.ScoreMin && score <= r.ScoreMax
}

// NameKey is the identity of a profile name: case-folded with runs of
// whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Find returns the profile whose name matches name case-insensitively.
func Find(profiles []model.WorkerProfile, name string) (model.WorkerProfile, bool) {
	if i := indexOf(profiles, name); i >= 0 {
		return profiles[i], true
	}
	return model.WorkerProfile{}, false
}

// SortByName orders profiles by NameKey in place.
func SortByName(profiles []model.WorkerProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return NameKey(profiles[i].Name) < NameKey(profiles[j].Name)
	})
}

func indexOf(profiles []model.WorkerProfile, name string) int {
	key := NameKey(name)
	for i := range profiles {
		if NameKey(profiles[i].Name) == key {
			return i
		}
	}
	return -1
}

// newProfile returns an empty profile with a history slot per category.
func newProfile(name string, rules Rules) model.WorkerProfile {
	p := model.WorkerProfile{
		Name:            strings.Join(strings.Fields(name), " "),
		Ratings:         []model.Rating{},
		CategoryHistory: make(map[string][]model.Rating, rules.Categories.Len()),
		JobCategories:   []string{},
		Strengths:       []string{},
		Weaknesses:      []string{},
	}
	for _, c := range rules.Categories.Names() {
		p.CategoryHistory[c] = []model.Rating{}
	}
	refresh(&p, rules)
	return p
}

// refresh recomputes the derived fields.
func refresh(p *model.WorkerProfile, rules Rules) {
	p.OverallScore = scoring.OverallScore(p.Ratings)
	p.OverallStatus = scoring.Classify(p.OverallScore, rules.Thresholds)
}

func sortByRatedAt(history []model.Rating) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].RatedAt.Before(history[j].RatedAt)
	})
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clone(p model.WorkerProfile) model.WorkerProfile {
	out := p
	out.Ratings = append([]model.Rating{}, p.Ratings...)
	out.JobCategories = append([]string{}, p.JobCategories...)
	out.Strengths = append([]string{}, p.Strengths...)
	out.Weaknesses = append([]string{}, p.Weaknesses...)
	out.CategoryHistory = make(map[string][]model.Rating, len(p.CategoryHistory))
	for k, v := range p.CategoryHistory {
		out.CategoryHistory[k] = append([]model.Rating{}, v...)
	}
	return out
}
