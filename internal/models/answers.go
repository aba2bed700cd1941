package models

import "encoding/json"

// Answers maps theme name → indicator name → question code → selected score.
// A missing entry means "no selection" and is distinct from a score of 0.0.
type Answers map[string]map[string]map[string]float64

// NewAnswers creates an empty answer store
func NewAnswers() Answers {
	return make(Answers)
}

// Set records a score for the question, or clears it when score is nil
func (a *Answers) Set(theme, indicator, code string, score *float64) {
	if *a == nil {
		*a = make(Answers)
	}

	if score == nil {
		indicators, ok := (*a)[theme]
		if !ok {
			return
		}
		questions, ok := indicators[indicator]
		if !ok {
			return
		}
		delete(questions, code)
		if len(questions) == 0 {
			delete(indicators, indicator)
		}
		if len(indicators) == 0 {
			delete(*a, theme)
		}
		return
	}

	indicators, ok := (*a)[theme]
	if !ok {
		indicators = make(map[string]map[string]float64)
		(*a)[theme] = indicators
	}
	questions, ok := indicators[indicator]
	if !ok {
		questions = make(map[string]float64)
		indicators[indicator] = questions
	}
	questions[code] = *score
}

// Get returns the recorded score and whether the question was answered
func (a Answers) Get(theme, indicator, code string) (float64, bool) {
	score, ok := a[theme][indicator][code]
	return score, ok
}

// Count returns the number of answered questions
func (a Answers) Count() int {
	n := 0
	for _, indicators := range a {
		for _, questions := range indicators {
			n += len(questions)
		}
	}
	return n
}

// Clone returns a deep copy
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for theme, indicators := range a {
		ic := make(map[string]map[string]float64, len(indicators))
		for indicator, questions := range indicators {
			qc := make(map[string]float64, len(questions))
			for code, score := range questions {
				qc[code] = score
			}
			ic[indicator] = qc
		}
		out[theme] = ic
	}
	return out
}

// Score is a convenience constructor for Set
func Score(v float64) *float64 {
	return &v
}

// UnmarshalJSON accepts the nested mapping; null scores are dropped so they
// read as "no selection" rather than 0.0.
func (a *Answers) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Answers, len(raw))
	for theme, indicators := range raw {
		for indicator, questions := range indicators {
			for code, score := range questions {
				if score != nil {
					out.Set(theme, indicator, code, score)
				}
			}
		}
	}
	*a = out
	return nil
}
