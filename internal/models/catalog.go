package models

// Option is one selectable answer of a question
type Option struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"` // 0.0 .. 1.0
}

// Question is a single leading question with discrete scored options
type Question struct {
	Code    string   `json:"code"` // "1.1.1"
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// HasScore reports whether score is one of the question's option scores
func (q *Question) HasScore(score float64) bool {
	for _, opt := range q.Options {
		if opt.Score == score {
			return true
		}
	}
	return false
}

// Indicator groups related questions within a theme
type Indicator struct {
	ID          string     `json:"id"`   // "1.1"
	Name        string     `json:"name"` // "1.1 Operative Demontierbarkeit"
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Theme is a top-level assessment dimension (e.g. Design)
type Theme struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	DefaultWeight float64     `json:"defaultWeight"`
	Indicators    []Indicator `json:"indicators"`
}

// Indicator returns the indicator with the given name or ID
func (t *Theme) Indicator(key string) *Indicator {
	for i := range t.Indicators {
		if t.Indicators[i].Name == key || t.Indicators[i].ID == key {
			return &t.Indicators[i]
		}
	}
	return nil
}

// QuestionCount returns the number of questions in the theme
func (t *Theme) QuestionCount() int {
	n := 0
	for _, ind := range t.Indicators {
		n += len(ind.Questions)
	}
	return n
}

// MaturityLevel is a named band over the unit score interval
type MaturityLevel struct {
	Name        string  `json:"name" yaml:"name"`
	Symbol      string  `json:"symbol" yaml:"symbol"`
	Description string  `json:"description" yaml:"description"`
	MinScore    float64 `json:"minScore" yaml:"min_score"`
	MaxScore    float64 `json:"maxScore" yaml:"max_score"`
}

// Catalog is the static theme → indicator → question → option nesting.
// Slice order is the canonical display and traversal order.
type Catalog struct {
	Name    string          `json:"name"`
	Version string          `json:"version,omitempty"`
	Themes  []Theme         `json:"themes"`
	Levels  []MaturityLevel `json:"levels"`
}

// Theme returns the theme with the given name or nil
func (c *Catalog) Theme(name string) *Theme {
	for i := range c.Themes {
		if c.Themes[i].Name == name {
			return &c.Themes[i]
		}
	}
	return nil
}

// ThemeByID returns the theme with the given ID or nil
func (c *Catalog) ThemeByID(id string) *Theme {
	for i := range c.Themes {
		if c.Themes[i].ID == id {
			return &c.Themes[i]
		}
	}
	return nil
}

// Question looks up a question by theme name, indicator name and code
func (c *Catalog) Question(theme, indicator, code string) *Question {
	t := c.Theme(theme)
	if t == nil {
		return nil
	}
	ind := t.Indicator(indicator)
	if ind == nil {
		return nil
	}
	for i := range ind.Questions {
		if ind.Questions[i].Code == code {
			return &ind.Questions[i]
		}
	}
	return nil
}

// QuestionCount returns the total number of questions
func (c *Catalog) QuestionCount() int {
	n := 0
	for i := range c.Themes {
		n += c.Themes[i].QuestionCount()
	}
	return n
}

// ThemeNames returns theme names in catalog order
func (c *Catalog) ThemeNames() []string {
	names := make([]string, 0, len(c.Themes))
	for _, t := range c.Themes {
		names = append(names, t.Name)
	}
	return names
}

// DefaultWeights returns the configured default weight per theme name
func (c *Catalog) DefaultWeights() map[string]float64 {
	weights := make(map[string]float64, len(c.Themes))
	for _, t := range c.Themes {
		weights[t.Name] = t.DefaultWeight
	}
	return weights
}

// ThemeSummary is a catalog listing entry without the question payload
type ThemeSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	DefaultWeight   float64 `json:"defaultWeight"`
	IndicatorsCount int     `json:"indicatorsCount"`
	QuestionsCount  int     `json:"questionsCount"`
}

// Summary returns the listing view of a theme
func (t *Theme) Summary() ThemeSummary {
	return ThemeSummary{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		DefaultWeight:   t.DefaultWeight,
		IndicatorsCount: len(t.Indicators),
		QuestionsCount:  t.QuestionCount(),
	}
}
