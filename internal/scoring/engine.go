// Package scoring aggregates answers into indicator, theme and overall
// scores and classifies the overall score into a maturity level.
//
// All functions are pure: they only read the catalog, the answers and the
// weights passed in, so they are safe to call concurrently from any number
// of sessions. Unanswered questions never enter an average; a theme or
// indicator without answers is reported as "not scored" and contributes
// nothing to its parent.
package scoring

import (
	"github.com/terra-clan/circular-readiness/internal/models"
)

// DisplayScale converts the canonical [0,1] score into the 0–5 display value
const DisplayScale = 5.0

// ImprovementThreshold marks answered themes below this score as improvement areas
const ImprovementThreshold = 0.5

// IndicatorScore returns the mean of the answered questions of an indicator.
// ok is false when none of its questions has been answered.
func IndicatorScore(theme string, ind *models.Indicator, answers models.Answers) (score float64, ok bool) {
	var sum float64
	var n int
	for _, q := range ind.Questions {
		if v, answered := answers.Get(theme, ind.Name, q.Code); answered {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// ThemeScore returns the mean of the scored indicators of a theme.
// A theme without any answer yields (0.0, false); the 0.0 is for display only.
func ThemeScore(theme *models.Theme, answers models.Answers) (score float64, ok bool) {
	var sum float64
	var n int
	for i := range theme.Indicators {
		if v, scored := IndicatorScore(theme.Name, &theme.Indicators[i], answers); scored {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// OverallScore is the weighted mean of the scored themes.
// Themes without answers are left out of the denominator entirely; themes
// missing from weights count with weight 0. Returns 0.0 when no answered
// theme carries weight.
func OverallScore(catalog *models.Catalog, answers models.Answers, weights map[string]float64) float64 {
	var numerator, denominator float64
	for i := range catalog.Themes {
		theme := &catalog.Themes[i]
		score, ok := ThemeScore(theme, answers)
		if !ok {
			continue
		}
		w := weights[theme.Name]
		if w < 0 {
			w = 0
		}
		numerator += score * w
		denominator += w
	}
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// IndicatorResult is the score of a single indicator
type IndicatorResult struct {
	Theme     string   `json:"theme"`
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Score     *float64 `json:"score"` // null when unanswered
	Answered  int      `json:"answered"`
	Questions int      `json:"questions"`
}

// ThemeResult is the score of a single theme
type ThemeResult struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`  // 0.0 when unscored
	Scored   bool    `json:"scored"` // at least one answer
	Weight   float64 `json:"weight"` // normalized
	Answered int     `json:"answered"`
	Total    int     `json:"questions"`
}

// Progress counts answered questions against the catalog
type Progress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
	Percent  int `json:"percent"`
}

// Result is everything the presentation and export layers need
type Result struct {
	Indicators       []IndicatorResult    `json:"indicators"`
	Themes           []ThemeResult        `json:"themes"`
	Weights          map[string]float64   `json:"weights"`
	Overall          float64              `json:"overall"`
	OverallScaled    float64              `json:"overallScaled"`
	Maturity         models.MaturityLevel `json:"maturity"`
	Progress         Progress             `json:"progress"`
	ImprovementAreas []string             `json:"improvementAreas"`
}

// IndicatorScores returns indicator scores keyed by theme and indicator name
func (r *Result) IndicatorScores() map[string]map[string]*float64 {
	out := make(map[string]map[string]*float64)
	for _, ind := range r.Indicators {
		if _, ok := out[ind.Theme]; !ok {
			out[ind.Theme] = make(map[string]*float64)
		}
		out[ind.Theme][ind.Name] = ind.Score
	}
	return out
}

// ThemeScores returns display theme scores keyed by theme name
func (r *Result) ThemeScores() map[string]float64 {
	out := make(map[string]float64, len(r.Themes))
	for _, t := range r.Themes {
		out[t.Name] = t.Score
	}
	return out
}

// Evaluate recomputes every score from scratch.
// rawWeights may use any non-negative scale; they are normalized first.
func Evaluate(catalog *models.Catalog, answers models.Answers, rawWeights map[string]float64) Result {
	weights := NormalizeWeights(rawWeights)
	for _, name := range catalog.ThemeNames() {
		if _, ok := weights[name]; !ok {
			weights[name] = 0
		}
	}

	result := Result{
		Indicators:       make([]IndicatorResult, 0),
		Themes:           make([]ThemeResult, 0, len(catalog.Themes)),
		Weights:          weights,
		ImprovementAreas: make([]string, 0),
	}

	for i := range catalog.Themes {
		theme := &catalog.Themes[i]
		themeAnswered := 0

		for j := range theme.Indicators {
			ind := &theme.Indicators[j]
			ir := IndicatorResult{
				Theme:     theme.Name,
				ID:        ind.ID,
				Name:      ind.Name,
				Questions: len(ind.Questions),
			}
			for _, q := range ind.Questions {
				if _, ok := answers.Get(theme.Name, ind.Name, q.Code); ok {
					ir.Answered++
				}
			}
			if score, ok := IndicatorScore(theme.Name, ind, answers); ok {
				ir.Score = &score
			}
			themeAnswered += ir.Answered
			result.Indicators = append(result.Indicators, ir)
		}

		score, ok := ThemeScore(theme, answers)
		result.Themes = append(result.Themes, ThemeResult{
			ID:       theme.ID,
			Name:     theme.Name,
			Score:    score,
			Scored:   ok,
			Weight:   weights[theme.Name],
			Answered: themeAnswered,
			Total:    theme.QuestionCount(),
		})
		if ok && score < ImprovementThreshold {
			result.ImprovementAreas = append(result.ImprovementAreas, theme.Name)
		}

		result.Progress.Answered += themeAnswered
		result.Progress.Total += theme.QuestionCount()
	}

	if result.Progress.Total > 0 {
		result.Progress.Percent = result.Progress.Answered * 100 / result.Progress.Total
	}

	result.Overall = OverallScore(catalog, answers, weights)
	result.OverallScaled = result.Overall * DisplayScale
	result.Maturity = ClassifyMaturity(levelsOf(catalog), result.Overall)

	return result
}

func levelsOf(catalog *models.Catalog) []models.MaturityLevel {
	if len(catalog.Levels) > 0 {
		return catalog.Levels
	}
	return DefaultLevels()
}
