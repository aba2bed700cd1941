package scoring

import (
	"fmt"
	"math"

	"github.com/terra-clan/circular-readiness/internal/models"
)

// DefaultLevels returns the five reference maturity bands over [0,1]
func DefaultLevels() []models.MaturityLevel {
	return []models.MaturityLevel{
		{Name: "Sehr gering", Symbol: "🔴", MinScore: 0.0, MaxScore: 0.2,
			Description: "Die Zirkularitätsreife ist aktuell sehr gering."},
		{Name: "Gering", Symbol: "🟠", MinScore: 0.2, MaxScore: 0.4,
			Description: "Ansätze sind erkennbar, es bestehen umfangreiche Potenziale."},
		{Name: "Mittel", Symbol: "🟡", MinScore: 0.4, MaxScore: 0.6,
			Description: "Zirkuläre Ansätze sind entwickelt, aber noch nicht konsequent umgesetzt."},
		{Name: "Fortgeschritten", Symbol: "🟢", MinScore: 0.6, MaxScore: 0.8,
			Description: "Das Produkt ist in vielen Bereichen gut auf Zirkularität vorbereitet."},
		{Name: "Sehr hoch", Symbol: "🟣", MinScore: 0.8, MaxScore: 1.0,
			Description: "Das Produkt weist eine sehr hohe Circular Readiness auf."},
	}
}

// ClassifyMaturity returns the first band (ascending) with min <= score < max.
// The topmost band is closed at its upper bound so a perfect score lands in
// it. Scores below the first band map to the first band; anything else that
// matches no band falls back to the highest band.
func ClassifyMaturity(levels []models.MaturityLevel, score float64) models.MaturityLevel {
	if len(levels) == 0 {
		levels = DefaultLevels()
	}
	if math.IsNaN(score) || score < levels[0].MinScore {
		return levels[0]
	}

	last := len(levels) - 1
	for i, level := range levels {
		if score >= level.MinScore && score < level.MaxScore {
			return level
		}
		if i == last && score == level.MaxScore {
			return level
		}
	}
	return levels[last]
}

// ValidateLevels checks that bands are ordered, contiguous and cover [0,1]
func ValidateLevels(levels []models.MaturityLevel) error {
	if len(levels) == 0 {
		return fmt.Errorf("at least one maturity level is required")
	}
	if levels[0].MinScore != 0 {
		return fmt.Errorf("first maturity level %q must start at 0, got %g", levels[0].Name, levels[0].MinScore)
	}
	for i, level := range levels {
		if level.Name == "" {
			return fmt.Errorf("maturity level %d has no name", i)
		}
		if level.MaxScore <= level.MinScore {
			return fmt.Errorf("maturity level %q has an empty range [%g, %g)", level.Name, level.MinScore, level.MaxScore)
		}
		if i > 0 && level.MinScore != levels[i-1].MaxScore {
			return fmt.Errorf("maturity level %q starts at %g but %q ends at %g",
				level.Name, level.MinScore, levels[i-1].Name, levels[i-1].MaxScore)
		}
	}
	if top := levels[len(levels)-1]; top.MaxScore != 1 {
		return fmt.Errorf("last maturity level %q must end at 1, got %g", top.Name, top.MaxScore)
	}
	return nil
}
