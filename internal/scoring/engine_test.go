package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/circular-readiness/internal/models"
)

func question(code string, scores ...float64) models.Question {
	q := models.Question{Code: code, Text: "Question " + code}
	for _, s := range scores {
		q.Options = append(q.Options, models.Option{Label: "option", Score: s})
	}
	return q
}

// testCatalog has two themes: T1 with two indicators, T2 with one
func testCatalog() *models.Catalog {
	return &models.Catalog{
		Name: "test",
		Themes: []models.Theme{
			{
				ID: "t1", Name: "T1", DefaultWeight: 0.7,
				Indicators: []models.Indicator{
					{ID: "1.1", Name: "1.1 First", Questions: []models.Question{
						question("1.1.1", 0, 0.5, 1),
						question("1.1.2", 0, 0.5, 1),
					}},
					{ID: "1.2", Name: "1.2 Second", Questions: []models.Question{
						question("1.2.1", 0, 0.4, 1),
					}},
				},
			},
			{
				ID: "t2", Name: "T2", DefaultWeight: 0.3,
				Indicators: []models.Indicator{
					{ID: "2.1", Name: "2.1 Only", Questions: []models.Question{
						question("2.1.1", 0, 0.25, 0.75, 1),
						question("2.1.2", 0, 1),
					}},
				},
			},
		},
		Levels: DefaultLevels(),
	}
}

func TestIndicatorScore(t *testing.T) {
	cat := testCatalog()
	ind := &cat.Themes[0].Indicators[0]

	t.Run("no answers is null", func(t *testing.T) {
		_, ok := IndicatorScore("T1", ind, models.NewAnswers())
		assert.False(t, ok)
	})

	t.Run("mean of answered questions", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(0.5))
		answers.Set("T1", "1.1 First", "1.1.2", models.Score(1.0))

		score, ok := IndicatorScore("T1", ind, answers)
		require.True(t, ok)
		assert.InDelta(t, 0.75, score, 1e-12)
	})

	t.Run("unanswered questions are excluded, not zero", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(0.5))

		score, ok := IndicatorScore("T1", ind, answers)
		require.True(t, ok)
		assert.InDelta(t, 0.5, score, 1e-12)
	})

	t.Run("cleared answer behaves like never answered", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(0.5))
		answers.Set("T1", "1.1 First", "1.1.1", nil)

		_, ok := IndicatorScore("T1", ind, answers)
		assert.False(t, ok)
	})

	t.Run("zero score counts as an answer", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(0))
		answers.Set("T1", "1.1 First", "1.1.2", models.Score(1))

		score, ok := IndicatorScore("T1", ind, answers)
		require.True(t, ok)
		assert.InDelta(t, 0.5, score, 1e-12)
	})
}

func TestIndicatorScore_WithinAnsweredRange(t *testing.T) {
	cat := testCatalog()
	ind := &cat.Themes[1].Indicators[0]

	pairs := [][2]float64{{0, 1}, {0.25, 1}, {0.75, 0}, {1, 1}, {0, 0}}
	for _, p := range pairs {
		answers := models.NewAnswers()
		answers.Set("T2", "2.1 Only", "2.1.1", models.Score(p[0]))
		answers.Set("T2", "2.1 Only", "2.1.2", models.Score(p[1]))

		score, ok := IndicatorScore("T2", ind, answers)
		require.True(t, ok)
		assert.GreaterOrEqual(t, score, min(p[0], p[1]))
		assert.LessOrEqual(t, score, max(p[0], p[1]))
	}
}

func TestThemeScore(t *testing.T) {
	cat := testCatalog()
	theme := &cat.Themes[0]

	t.Run("unanswered theme reports zero and not scored", func(t *testing.T) {
		score, ok := ThemeScore(theme, models.NewAnswers())
		assert.False(t, ok)
		assert.Equal(t, 0.0, score)
	})

	t.Run("mean of scored indicators only", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(1))
		answers.Set("T1", "1.1 First", "1.1.2", models.Score(0.5))

		score, ok := ThemeScore(theme, answers)
		require.True(t, ok)
		assert.InDelta(t, 0.75, score, 1e-12)

		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))
		score, ok = ThemeScore(theme, answers)
		require.True(t, ok)
		assert.InDelta(t, (0.75+0.4)/2, score, 1e-12)
	})

	t.Run("independent of answer order", func(t *testing.T) {
		a := models.NewAnswers()
		a.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))
		a.Set("T1", "1.1 First", "1.1.2", models.Score(0.5))
		a.Set("T1", "1.1 First", "1.1.1", models.Score(1))

		b := models.NewAnswers()
		b.Set("T1", "1.1 First", "1.1.1", models.Score(1))
		b.Set("T1", "1.1 First", "1.1.2", models.Score(0.5))
		b.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))

		sa, _ := ThemeScore(theme, a)
		sb, _ := ThemeScore(theme, b)
		assert.Equal(t, sa, sb)
	})
}

func TestOverallScore(t *testing.T) {
	cat := testCatalog()

	t.Run("single answered theme", func(t *testing.T) {
		single := &models.Catalog{Themes: []models.Theme{{
			ID: "a", Name: "A",
			Indicators: []models.Indicator{{ID: "1", Name: "ind", Questions: []models.Question{
				question("1", 0, 0.5, 1), question("2", 0, 0.5, 1),
			}}},
		}}}
		answers := models.NewAnswers()
		answers.Set("A", "ind", "1", models.Score(0.5))
		answers.Set("A", "ind", "2", models.Score(1.0))

		score, ok := IndicatorScore("A", &single.Themes[0].Indicators[0], answers)
		require.True(t, ok)
		assert.InDelta(t, 0.75, score, 1e-12)

		overall := OverallScore(single, answers, map[string]float64{"A": 1.0})
		assert.InDelta(t, 0.75, overall, 1e-12)
		assert.Equal(t, "Fortgeschritten", ClassifyMaturity(DefaultLevels(), overall).Name)
	})

	t.Run("unanswered theme leaves the denominator", func(t *testing.T) {
		weights := NormalizeWeights(map[string]float64{"T1": 70, "T2": 30})
		assert.InDelta(t, 0.7, weights["T1"], 1e-12)
		assert.InDelta(t, 0.3, weights["T2"], 1e-12)

		answers := models.NewAnswers()
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))

		assert.InDelta(t, 0.4, OverallScore(cat, answers, weights), 1e-12)
	})

	t.Run("all zero weights yield zero", func(t *testing.T) {
		weights := NormalizeWeights(map[string]float64{"T1": 0, "T2": 0})
		assert.Equal(t, map[string]float64{"T1": 0, "T2": 0}, weights)

		answers := models.NewAnswers()
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(1))
		answers.Set("T2", "2.1 Only", "2.1.1", models.Score(1))

		assert.Equal(t, 0.0, OverallScore(cat, answers, weights))
	})

	t.Run("no answers yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, OverallScore(cat, models.NewAnswers(), cat.DefaultWeights()))
	})

	t.Run("missing weight counts as zero", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))
		answers.Set("T2", "2.1 Only", "2.1.1", models.Score(1))

		assert.InDelta(t, 1.0, OverallScore(cat, answers, map[string]float64{"T2": 1}), 1e-12)
	})

	t.Run("convex combination of equal theme scores", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(0.5))
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(1))
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))
		answers.Set("T1", "1.1 First", "1.1.1", models.Score(1))
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(1))
		answers.Set("T2", "2.1 Only", "2.1.2", models.Score(1))

		for _, w := range []map[string]float64{
			{"T1": 1, "T2": 1},
			{"T1": 0.9, "T2": 0.1},
			{"T1": 0.01, "T2": 99},
		} {
			assert.InDelta(t, 1.0, OverallScore(cat, answers, NormalizeWeights(w)), 1e-12)
		}
	})

	t.Run("weighted mean over answered themes", func(t *testing.T) {
		answers := models.NewAnswers()
		answers.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))
		answers.Set("T2", "2.1 Only", "2.1.1", models.Score(1))

		got := OverallScore(cat, answers, map[string]float64{"T1": 0.7, "T2": 0.3})
		assert.InDelta(t, 0.4*0.7+1*0.3, got, 1e-12)
	})
}

func TestEvaluate(t *testing.T) {
	cat := testCatalog()
	answers := models.NewAnswers()
	answers.Set("T1", "1.1 First", "1.1.1", models.Score(0.5))
	answers.Set("T1", "1.1 First", "1.1.2", models.Score(0))
	answers.Set("T1", "1.2 Second", "1.2.1", models.Score(0.4))

	result := Evaluate(cat, answers, map[string]float64{"T1": 70, "T2": 30})

	require.Len(t, result.Indicators, 3)
	require.NotNil(t, result.Indicators[0].Score)
	assert.InDelta(t, 0.25, *result.Indicators[0].Score, 1e-12)
	assert.Equal(t, 2, result.Indicators[0].Answered)
	assert.Nil(t, result.Indicators[2].Score)

	require.Len(t, result.Themes, 2)
	assert.Equal(t, "T1", result.Themes[0].Name)
	assert.True(t, result.Themes[0].Scored)
	assert.InDelta(t, (0.25+0.4)/2, result.Themes[0].Score, 1e-12)
	assert.False(t, result.Themes[1].Scored)
	assert.Equal(t, 0.0, result.Themes[1].Score)
	assert.InDelta(t, 0.3, result.Themes[1].Weight, 1e-12)

	assert.InDelta(t, 0.325, result.Overall, 1e-12)
	assert.InDelta(t, 0.325*DisplayScale, result.OverallScaled, 1e-12)
	assert.Equal(t, "Gering", result.Maturity.Name)

	assert.Equal(t, Progress{Answered: 3, Total: 5, Percent: 60}, result.Progress)
	assert.Equal(t, []string{"T1"}, result.ImprovementAreas)

	scores := result.IndicatorScores()
	assert.Nil(t, scores["T2"]["2.1 Only"])
	assert.InDelta(t, 0.4, *scores["T1"]["1.2 Second"], 1e-12)
	assert.Equal(t, map[string]float64{"T1": result.Themes[0].Score, "T2": 0}, result.ThemeScores())
}

func TestEvaluate_EmptyAnswers(t *testing.T) {
	cat := testCatalog()
	result := Evaluate(cat, nil, cat.DefaultWeights())

	assert.Equal(t, 0.0, result.Overall)
	assert.Equal(t, "Sehr gering", result.Maturity.Name)
	assert.Equal(t, 0, result.Progress.Answered)
	assert.Empty(t, result.ImprovementAreas)
	for _, theme := range result.Themes {
		assert.False(t, theme.Scored)
	}
}

func TestEvaluate_Reproducible(t *testing.T) {
	cat := testCatalog()
	answers := models.NewAnswers()
	answers.Set("T1", "1.1 First", "1.1.1", models.Score(0.5))
	answers.Set("T2", "2.1 Only", "2.1.1", models.Score(0.25))
	answers.Set("T2", "2.1 Only", "2.1.2", models.Score(1))

	first := Evaluate(cat, answers, map[string]float64{"T1": 35, "T2": 15})
	for i := 0; i < 20; i++ {
		again := Evaluate(cat, answers.Clone(), map[string]float64{"T1": 35, "T2": 15})
		assert.Equal(t, first.Overall, again.Overall)
	}
}
