package scoring

import (
	"strconv"

	"github.com/okian/crewrate/internal/domain/model"
)

// NotEnoughHistory is the trend label for histories shorter than two entries.
const NotEnoughHistory = "Not enough history yet"

// Trend labels a chronologically ordered category history by comparing its
// first and last scores. Entries in between are ignored.
func Trend(history []model.Rating) string {
	if len(history) < 2 {
		return NotEnoughHistory
	}
	delta := Round2(history[len(history)-1].Score - history[0].Score)
	switch {
	case delta > 0:
		return "Improving (+" + formatDelta(delta) + ")"
	case delta < 0:
		return "Declining (" + formatDelta(delta) + ")"
	default:
		return "Stable (0.00)"
	}
}

func formatDelta(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
