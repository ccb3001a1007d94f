package seed

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// performer levels pick a worker's typical score; individual ratings
// scatter around it.
var performerLevels = []struct {
	base, spread float64
}{
	{4.6, 0.4}, // top
	{3.6, 0.8}, // average, most common
	{3.6, 0.8},
	{3.2, 1.0},
	{2.0, 0.6}, // struggling
}

var firstNames = []string{
	"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Jamie", "Avery",
	"Quinn", "Skyler", "Reese", "Rowan", "Emerson", "Finley", "Harper", "Sage",
}

var lastNames = []string{
	"Rivera", "Chen", "Okafor", "Novak", "Haddad", "Silva", "Kowalski", "Ito",
}

var notes = []string{"", "", "", "reliable", "great with customers", "needs supervision", "fast learner", "late twice"}

type worker struct {
	name   string
	base   float64
	spread float64
}

// generator produces deterministic ratings for a given seed.
type generator struct {
	rnd        *rand.Rand
	categories []string
	scoreMin   float64
	scoreMax   float64
	now        time.Time
}

func newGenerator(seed uint64, categories []string, scoreMin, scoreMax float64, now time.Time) *generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &generator{
		rnd:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		categories: categories,
		scoreMin:   scoreMin,
		scoreMax:   scoreMax,
		now:        now,
	}
}

func (g *generator) workers(n int) []worker {
	out := make([]worker, 0, n)
	seen := make(map[string]bool, n)
	for len(out) < n {
		name := firstNames[g.rnd.IntN(len(firstNames))] + " " + lastNames[g.rnd.IntN(len(lastNames))]
		if seen[name] {
			if len(seen) >= len(firstNames)*len(lastNames) {
				break
			}
			continue
		}
		seen[name] = true
		lvl := performerLevels[g.rnd.IntN(len(performerLevels))]
		out = append(out, worker{name: name, base: lvl.base, spread: lvl.spread})
	}
	return out
}

// ratings generates n ratings across workers, spread over the past days.
func (g *generator) ratings(cfg Config) []Rating {
	workers := g.workers(cfg.Workers)
	reviewers := make([]string, 4)
	for i := range reviewers {
		reviewers[i] = "reviewer-" + uuid.NewString()[:8]
	}

	out := make([]Rating, 0, cfg.Ratings)
	for i := 0; i < cfg.Ratings; i++ {
		w := workers[i%len(workers)]
		day := g.rnd.IntN(cfg.Days)
		out = append(out, Rating{
			WorkerName: w.name,
			Category:   g.categories[g.rnd.IntN(len(g.categories))],
			Score:      g.score(w),
			Reviewer:   reviewers[g.rnd.IntN(len(reviewers))],
			Note:       notes[g.rnd.IntN(len(notes))],
			RatedAt:    g.now.AddDate(0, 0, -day).UTC().Format(time.RFC3339),
		})
	}
	return out
}

// score draws a score around w's level, snapped to half points and
// clamped to the scale.
func (g *generator) score(w worker) float64 {
	s := w.base + (g.rnd.Float64()*2-1)*w.spread
	s = math.Round(s/scoreStep) * scoreStep
	return math.Min(g.scoreMax, math.Max(g.scoreMin, s))
}
