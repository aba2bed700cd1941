package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/circular-readiness/internal/models"
)

func TestLoadDefault(t *testing.T) {
	loader := NewLoader()
	require.NoError(t, loader.LoadDefault())

	cat := loader.Catalog()
	require.NotNil(t, cat)
	assert.Equal(t, "v6", cat.Version)
	assert.Len(t, cat.Themes, 5)
	assert.Equal(t, 51, cat.QuestionCount())
	assert.Len(t, cat.Levels, 5)

	first := cat.Themes[0]
	assert.Equal(t, "design", first.ID)
	assert.Equal(t, "Design", first.Name)
	assert.InDelta(t, 0.35, first.DefaultWeight, 1e-12)
	assert.Equal(t, "1.1", first.Indicators[0].ID)

	var total float64
	for _, w := range cat.DefaultWeights() {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	themes := loader.ListThemes()
	require.Len(t, themes, 5)
	assert.Equal(t, len(first.Indicators), themes[0].IndicatorsCount)

	ind := loader.GetIndicator("design", "1.1")
	require.NotNil(t, ind)
	assert.Equal(t, "1.1 Operative Demontierbarkeit", ind.Name)

	assert.Nil(t, loader.GetTheme("unknown"))
	assert.Nil(t, loader.GetIndicator("design", "9.9"))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	// explicit order puts "beta" ahead of "alpha"
	write("alpha/theme.yaml", "name: Alpha\nweight: 1\norder: 2\n")
	write("alpha/a.yaml", `
id: a
name: A
questions:
  - code: a.1
    text: First
    options:
      - {label: no, score: 0}
      - {label: yes, score: 1}
`)
	write("beta/theme.yaml", "name: Beta\nweight: 3\norder: 1\n")
	write("beta/b.yaml", `
name: B
questions:
  - code: b.1
    text: Second
    options:
      - {label: maybe, score: 0.5}
`)
	write("notes/readme.txt", "ignored")

	loader := NewLoader()
	require.NoError(t, loader.LoadFromDir(dir))

	cat := loader.Catalog()
	require.Len(t, cat.Themes, 2)
	assert.Equal(t, "beta", cat.Themes[0].ID)
	assert.Equal(t, "alpha", cat.Themes[1].ID)
	assert.Equal(t, "b", cat.Themes[0].Indicators[0].ID)
	assert.Equal(t, "Circular Readiness Assessment", cat.Name)
	assert.Len(t, loader.Levels(), 5)
}

func TestLoadFromDir_Missing(t *testing.T) {
	loader := NewLoader()
	assert.Error(t, loader.LoadFromDir(filepath.Join(t.TempDir(), "nope")))
	assert.Nil(t, loader.Catalog())
}

func TestLoadFromFS_KeepsPreviousOnFailure(t *testing.T) {
	loader := NewLoader()
	require.NoError(t, loader.LoadDefault())

	bad := fstest.MapFS{
		"x/theme.yaml": {Data: []byte("name: X\n")},
	}
	err := loader.LoadFromFS(bad, "test")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, `theme "X" has no indicators`)
	assert.Len(t, loader.Catalog().Themes, 5)
}

func TestStripOrderPrefix(t *testing.T) {
	assert.Equal(t, "design", stripOrderPrefix("01-design"))
	assert.Equal(t, "systemische-befaehiger", stripOrderPrefix("05-systemische-befaehiger"))
	assert.Equal(t, "no-prefix", stripOrderPrefix("no-prefix"))
	assert.Equal(t, "plain", stripOrderPrefix("plain"))
}

func validCatalog() *models.Catalog {
	return &models.Catalog{
		Themes: []models.Theme{{
			ID: "t", Name: "T", DefaultWeight: 1,
			Indicators: []models.Indicator{{
				ID: "1", Name: "I",
				Questions: []models.Question{{
					Code:    "1.1",
					Options: []models.Option{{Label: "no", Score: 0}, {Label: "half", Score: 0.5}},
				}},
			}},
		}},
		Levels: []models.MaturityLevel{{Name: "all", MinScore: 0, MaxScore: 1}},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validCatalog()))

	tests := []struct {
		name   string
		mutate func(c *models.Catalog)
	}{
		{"no themes", func(c *models.Catalog) { c.Themes = nil }},
		{"no indicators", func(c *models.Catalog) { c.Themes[0].Indicators = nil }},
		{"no questions", func(c *models.Catalog) { c.Themes[0].Indicators[0].Questions = nil }},
		{"no options", func(c *models.Catalog) { c.Themes[0].Indicators[0].Questions[0].Options = nil }},
		{"score above one", func(c *models.Catalog) {
			c.Themes[0].Indicators[0].Questions[0].Options[0].Score = 1.5
		}},
		{"negative weight", func(c *models.Catalog) { c.Themes[0].DefaultWeight = -1 }},
		{"duplicate code", func(c *models.Catalog) {
			ind := &c.Themes[0].Indicators[0]
			ind.Questions = append(ind.Questions, ind.Questions[0])
		}},
		{"duplicate theme", func(c *models.Catalog) { c.Themes = append(c.Themes, c.Themes[0]) }},
		{"bad levels", func(c *models.Catalog) { c.Levels = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCatalog()
			tt.mutate(c)
			err := Validate(c)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestValidateAnswer(t *testing.T) {
	c := validCatalog()

	assert.NoError(t, ValidateAnswer(c, "T", "I", "1.1", models.Score(0.5)))
	assert.NoError(t, ValidateAnswer(c, "T", "I", "1.1", nil))
	assert.ErrorIs(t, ValidateAnswer(c, "T", "I", "1.1", models.Score(0.7)), ErrInvalidAnswer)
	assert.ErrorIs(t, ValidateAnswer(c, "T", "I", "9.9", nil), ErrUnknownQuestion)
	assert.ErrorIs(t, ValidateAnswer(c, "X", "I", "1.1", models.Score(0)), ErrUnknownQuestion)

	answers := models.NewAnswers()
	answers.Set("T", "I", "1.1", models.Score(0))
	assert.NoError(t, ValidateAnswers(c, answers))
	answers.Set("T", "I", "1.1", models.Score(0.3))
	assert.ErrorIs(t, ValidateAnswers(c, answers), ErrInvalidAnswer)
}
