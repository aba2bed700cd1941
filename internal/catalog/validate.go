package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrInvalidAnswer   = errors.New("invalid answer")
)

// ValidationError lists every structural problem found in a catalog
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid catalog: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the structural invariants of a catalog: non-empty
// theme/indicator/question/option lists, unique IDs and question codes,
// option scores within [0,1], non-negative weights and contiguous maturity
// levels. All problems are reported at once.
func Validate(cat *models.Catalog) error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(cat.Themes) == 0 {
		addf("catalog has no themes")
	}

	themeIDs := make(map[string]bool)
	themeNames := make(map[string]bool)
	codes := make(map[string]string)

	for _, theme := range cat.Themes {
		if theme.Name == "" {
			addf("theme %q has no name", theme.ID)
		}
		if themeIDs[theme.ID] {
			addf("duplicate theme id %q", theme.ID)
		}
		if themeNames[theme.Name] {
			addf("duplicate theme name %q", theme.Name)
		}
		themeIDs[theme.ID] = true
		themeNames[theme.Name] = true

		if theme.DefaultWeight < 0 || math.IsNaN(theme.DefaultWeight) {
			addf("theme %q has a negative default weight", theme.Name)
		}
		if len(theme.Indicators) == 0 {
			addf("theme %q has no indicators", theme.Name)
		}

		indicatorNames := make(map[string]bool)
		for _, ind := range theme.Indicators {
			if ind.Name == "" {
				addf("indicator %q in theme %q has no name", ind.ID, theme.Name)
			}
			if indicatorNames[ind.Name] {
				addf("duplicate indicator %q in theme %q", ind.Name, theme.Name)
			}
			indicatorNames[ind.Name] = true

			if len(ind.Questions) == 0 {
				addf("indicator %q has no questions", ind.Name)
			}

			for _, q := range ind.Questions {
				if q.Code == "" {
					addf("question without code in indicator %q", ind.Name)
					continue
				}
				if prev, ok := codes[q.Code]; ok {
					addf("duplicate question code %q (indicators %q and %q)", q.Code, prev, ind.Name)
				}
				codes[q.Code] = ind.Name

				if len(q.Options) == 0 {
					addf("question %s has no options", q.Code)
				}
				for _, opt := range q.Options {
					if opt.Score < 0 || opt.Score > 1 || math.IsNaN(opt.Score) {
						addf("question %s option %q has score %g outside [0,1]", q.Code, opt.Label, opt.Score)
					}
				}
			}
		}
	}

	if err := scoring.ValidateLevels(cat.Levels); err != nil {
		addf("%v", err)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateAnswer checks that a score (nil clears) is one of the question's option scores
func ValidateAnswer(cat *models.Catalog, theme, indicator, code string, score *float64) error {
	q := cat.Question(theme, indicator, code)
	if q == nil {
		return fmt.Errorf("%w: %s / %s / %s", ErrUnknownQuestion, theme, indicator, code)
	}
	if score == nil {
		return nil
	}
	if !q.HasScore(*score) {
		return fmt.Errorf("%w: score %g is not an option of question %s", ErrInvalidAnswer, *score, code)
	}
	return nil
}

// ValidateAnswers checks every entry of an answer store
func ValidateAnswers(cat *models.Catalog, answers models.Answers) error {
	for theme, indicators := range answers {
		for indicator, questions := range indicators {
			for code, score := range questions {
				s := score
				if err := ValidateAnswer(cat, theme, indicator, code, &s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
