package profile

import (
	"sort"
	"strings"

	"github.com/okian/crewrate/internal/domain/model"
)

// Normalize reconstructs a structurally valid profile from possibly
// partial data. Existing category history entries are merged with the
// flat rating list as multisets, so a rating already present in history
// is never added twice. Ratings in unrecognized categories are dropped
// everywhere, the same way Build skips them. Derived fields are recomputed and every collection
// is non-nil. Normalize(Normalize(p)) == Normalize(p).
func Normalize(p model.WorkerProfile, rules Rules) model.WorkerProfile {
	out := newProfile(p.Name, rules)
	out.ID = p.ID

	for _, r := range p.Ratings {
		if !finite(r.Score) || !rules.Categories.Contains(r.Category) {
			continue
		}
		out.Ratings = append(out.Ratings, tidy(r, rules))
	}

	keys := make([]string, 0, len(p.CategoryHistory))
	for k := range p.CategoryHistory {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		canon, ok := rules.Categories.Canonical(k)
		if !ok {
			continue
		}
		for _, r := range p.CategoryHistory[k] {
			if !finite(r.Score) {
				continue
			}
			r = tidy(r, rules)
			r.Category = canon
			out.CategoryHistory[canon] = append(out.CategoryHistory[canon], r)
		}
	}

	used := make(map[string][]bool, len(out.CategoryHistory))
	for c, h := range out.CategoryHistory {
		used[c] = make([]bool, len(h))
	}
	for _, r := range out.Ratings {
		if i := unusedMatch(out.CategoryHistory[r.Category], used[r.Category], r); i >= 0 {
			used[r.Category][i] = true
			continue
		}
		out.CategoryHistory[r.Category] = append(out.CategoryHistory[r.Category], r)
		used[r.Category] = append(used[r.Category], true)
	}
	for _, h := range out.CategoryHistory {
		sortByRatedAt(h)
	}

	seen := make(map[string]bool, rules.Categories.Len())
	addCategory := func(name string) {
		canon, ok := rules.Categories.Canonical(name)
		if ok && !seen[canon] {
			seen[canon] = true
			out.JobCategories = append(out.JobCategories, canon)
		}
	}
	for _, c := range p.JobCategories {
		addCategory(c)
	}
	for _, r := range out.Ratings {
		addCategory(r.Category)
	}
	for _, c := range rules.Categories.Names() {
		if len(out.CategoryHistory[c]) > 0 {
			addCategory(c)
		}
	}

	out.Strengths = cleanNotes(p.Strengths)
	out.Weaknesses = cleanNotes(p.Weaknesses)
	refresh(&out, rules)
	return out
}

// tidy trims free text and canonicalizes a recognized category.
func tidy(r model.Rating, rules Rules) model.Rating {
	r.Category = strings.TrimSpace(r.Category)
	if canon, ok := rules.Categories.Canonical(r.Category); ok {
		r.Category = canon
	}
	r.Reviewer = strings.TrimSpace(r.Reviewer)
	r.Note = strings.TrimSpace(r.Note)
	return r
}

func unusedMatch(history []model.Rating, used []bool, r model.Rating) int {
	for i, h := range history {
		if !used[i] && same(h, r) {
			return i
		}
	}
	return -1
}

func same(a, b model.Rating) bool {
	return a.Category == b.Category &&
		a.Score == b.Score &&
		a.Reviewer == b.Reviewer &&
		a.Note == b.Note &&
		a.RatedAt.Equal(b.RatedAt)
}

func cleanNotes(notes []string) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
