package scoring

import (
	"fmt"
	"math"

	"github.com/okian/crewrate/internal/domain/model"
)

// Default classification thresholds on the 1-5 scale.
const (
	DefaultTopPerformerMin = 4.2
	DefaultAtRiskMax       = 2.5
)

// Thresholds configures status classification.
type Thresholds struct {
	// TopPerformerMin is the lowest score classified as top-performer.
	TopPerformerMin float64 `json:"topPerformerMin"`
	// AtRiskMax is the highest score classified as at-risk.
	AtRiskMax float64 `json:"atRiskMax"`
}

// DefaultThresholds returns {4.2, 2.5}.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TopPerformerMin: DefaultTopPerformerMin,
		AtRiskMax:       DefaultAtRiskMax,
	}
}

// Validate rejects non-finite thresholds and bands that overlap.
func (t Thresholds) Validate() error {
	if !finite(t.TopPerformerMin) || !finite(t.AtRiskMax) {
		return fmt.Errorf("%w: thresholds must be finite numbers", ErrInvalidThresholds)
	}
	if t.AtRiskMax >= t.TopPerformerMin {
		return fmt.Errorf("%w: atRiskMax (%g) must be below topPerformerMin (%g)",
			ErrInvalidThresholds, t.AtRiskMax, t.TopPerformerMin)
	}
	return nil
}

// Classify maps score to a status using th.
func Classify(score float64, th Thresholds) model.Status {
	switch {
	case score >= th.TopPerformerMin:
		return model.StatusTopPerformer
	case score <= th.AtRiskMax:
		return model.StatusAtRisk
	default:
		return model.StatusSteady
	}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
