package scoring

import (
	"fmt"
	"math"
)

// WeightTolerance is the allowed deviation of a normalized weight sum from 1.0
const WeightTolerance = 1e-9

// NormalizeWeights maps raw per-theme weights of any scale to fractions of
// their total. When the total is zero every theme maps to 0.0, which makes
// OverallScore fall back to 0.0. Negative raw weights count as zero.
func NormalizeWeights(raw map[string]float64) map[string]float64 {
	var total float64
	for _, v := range raw {
		if v > 0 {
			total += v
		}
	}

	normalized := make(map[string]float64, len(raw))
	for theme, v := range raw {
		if total == 0 || v <= 0 {
			normalized[theme] = 0
			continue
		}
		normalized[theme] = v / total
	}
	return normalized
}

// ScaleWeights converts fractional weights into the 0–100 percent scale used
// by weight input forms, rounding to whole percents.
func ScaleWeights(weights map[string]float64) map[string]float64 {
	scaled := make(map[string]float64, len(weights))
	for theme, v := range weights {
		scaled[theme] = math.Round(v * 100)
	}
	return scaled
}

// ValidateRawWeights rejects negative, NaN and infinite weights
func ValidateRawWeights(raw map[string]float64) error {
	for theme, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight for %q is not a finite number", theme)
		}
		if v < 0 {
			return fmt.Errorf("weight for %q is negative: %g", theme, v)
		}
	}
	return nil
}

// Sum returns the total of all weights
func Sum(weights map[string]float64) float64 {
	var total float64
	for _, v := range weights {
		total += v
	}
	return total
}
