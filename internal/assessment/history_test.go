package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/circular-readiness/internal/models"
)

func smallCatalog() *models.Catalog {
	opts := []models.Option{{Label: "no", Score: 0}, {Label: "half", Score: 0.5}, {Label: "yes", Score: 1}}
	return &models.Catalog{
		Themes: []models.Theme{
			{ID: "a", Name: "A", DefaultWeight: 0.5, Indicators: []models.Indicator{
				{ID: "1", Name: "A1", Questions: []models.Question{{Code: "a.1", Options: opts}}},
			}},
			{ID: "b", Name: "B", DefaultWeight: 0.5, Indicators: []models.Indicator{
				{ID: "2", Name: "B1", Questions: []models.Question{{Code: "b.1", Options: opts}}},
			}},
		},
	}
}

func TestBuildComparison_Empty(t *testing.T) {
	cmp := BuildComparison(smallCatalog(), nil)
	assert.Equal(t, 0, cmp.Summary.Count)
	assert.Nil(t, cmp.Summary.AverageScaled)
	assert.Nil(t, cmp.Summary.LatestAt)
	assert.Empty(t, cmp.Rows)
	assert.Equal(t, []string{"A", "B"}, cmp.Themes)
}

func TestBuildComparison_WeightsFallback(t *testing.T) {
	cat := smallCatalog()
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	answers := models.NewAnswers()
	answers.Set("A", "A1", "a.1", models.Score(1))
	answers.Set("B", "B1", "b.1", models.Score(0))

	snaps := []*models.Snapshot{
		// legacy record without weights uses catalog defaults
		{ID: "old", Timestamp: ts, Product: "P", Answers: answers},
		{ID: "new", Timestamp: ts.Add(time.Hour), Product: "Q", Answers: answers,
			Weights: map[string]float64{"A": 0.9, "B": 0.1}},
	}

	cmp := BuildComparison(cat, snaps)
	require.Len(t, cmp.Rows, 2)
	assert.InDelta(t, 0.5, cmp.Rows[0].Overall, 1e-12)
	assert.InDelta(t, 2.5, cmp.Rows[0].OverallScaled, 1e-12)
	assert.InDelta(t, 0.9, cmp.Rows[1].Overall, 1e-12)
	assert.Equal(t, 1.0, cmp.Rows[0].ThemeScores["A"])
	assert.Equal(t, 0.0, cmp.Rows[0].ThemeScores["B"])

	require.NotNil(t, cmp.Summary.LatestAt)
	assert.Equal(t, ts.Add(time.Hour), *cmp.Summary.LatestAt)
	assert.Equal(t, "Q", cmp.Summary.LatestProduct)
	assert.Equal(t, "new", cmp.Summary.BestSnapshotID)
}

func TestBuildComparison_UnansweredThemeLeavesDenominator(t *testing.T) {
	answers := models.NewAnswers()
	answers.Set("A", "A1", "a.1", models.Score(0.5))

	cmp := BuildComparison(smallCatalog(), []*models.Snapshot{{ID: "x", Answers: answers}})
	assert.InDelta(t, 0.5, cmp.Rows[0].Overall, 1e-12)
}

func TestBuildDetails_SkipsUnansweredAndUnknown(t *testing.T) {
	answers := models.NewAnswers()
	answers.Set("B", "B1", "b.1", models.Score(0.5))
	answers.Set("Gone", "X", "x.1", models.Score(1))

	rows := BuildDetails(smallCatalog(), []*models.Snapshot{{ID: "s", Product: "P", Answers: answers}})
	require.Len(t, rows, 1)
	assert.Equal(t, DetailRow{SnapshotID: "s", Product: "P", Theme: "B", Indicator: "B1", Code: "b.1", Score: 0.5}, rows[0])
}
