package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/crewrate/internal/domain/model"
)

// Analytics constants.
const (
	// PositiveMin is the lowest score that extends a positive streak.
	PositiveMin = 3.5

	consistencyCeiling = 100
	consistencyPenalty = 20 // points lost per unit of standard deviation
	punctualityWindow  = 3
)

// Punctuality trend labels.
const (
	PunctualityNone      = "No punctuality trend yet"
	PunctualityWatched   = "Punctuality is being monitored"
	PunctualityDeclining = "Repeated punctuality issues detected"
)

var punctualityTokens = []string{"punctuality", "attendance", "timeliness", "late"}

// Analytics summarizes rating behavior beyond the overall score.
type Analytics struct {
	ConsistencyScore      float64 `json:"consistencyScore"`
	CurrentPositiveStreak int     `json:"currentPositiveStreak"`
	BestPositiveStreak    int     `json:"bestPositiveStreak"`
	PunctualityTrend      string  `json:"punctualityTrend"`
}

// Analyze derives Analytics from ratings in any order.
func Analyze(ratings []model.Rating, th Thresholds) Analytics {
	a := Analytics{PunctualityTrend: PunctualityNone}
	if len(ratings) == 0 {
		return a
	}

	ordered := make([]model.Rating, len(ratings))
	copy(ordered, ratings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RatedAt.Before(ordered[j].RatedAt)
	})

	var sum float64
	var punctual []model.Rating
	for _, r := range ordered {
		sum += r.Score
		if r.Score >= PositiveMin {
			a.CurrentPositiveStreak++
			a.BestPositiveStreak = max(a.BestPositiveStreak, a.CurrentPositiveStreak)
		} else {
			a.CurrentPositiveStreak = 0
		}
		if IsPunctualityCategory(r.Category) {
			punctual = append(punctual, r)
		}
	}

	mean := sum / float64(len(ordered))
	var variance float64
	for _, r := range ordered {
		variance += (r.Score - mean) * (r.Score - mean)
	}
	variance /= float64(len(ordered))
	consistency := consistencyCeiling - math.Sqrt(variance)*consistencyPenalty
	a.ConsistencyScore = Round2(math.Max(0, math.Min(consistencyCeiling, consistency)))

	a.PunctualityTrend = punctualityTrend(punctual, th)
	return a
}

// IsPunctualityCategory reports whether category tracks attendance.
func IsPunctualityCategory(category string) bool {
	c := strings.ToLower(category)
	for _, tok := range punctualityTokens {
		if strings.Contains(c, tok) {
			return true
		}
	}
	return false
}

func punctualityTrend(punctual []model.Rating, th Thresholds) string {
	if len(punctual) == 0 {
		return PunctualityNone
	}
	if len(punctual) < punctualityWindow {
		return PunctualityWatched
	}
	for _, r := range punctual[len(punctual)-punctualityWindow:] {
		if r.Score > th.AtRiskMax {
			return PunctualityWatched
		}
	}
	return PunctualityDeclining
}
