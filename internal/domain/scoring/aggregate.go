package scoring

import "github.com/okian/crewrate/internal/domain/model"

// OverallScore returns the mean of all rating scores rounded to two
// decimals, or 0 when there are no ratings.
func OverallScore(ratings []model.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Score
	}
	return Round2(sum / float64(len(ratings)))
}
