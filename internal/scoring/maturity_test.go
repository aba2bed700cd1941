package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terra-clan/circular-readiness/internal/models"
)

func TestClassifyMaturity(t *testing.T) {
	levels := DefaultLevels()

	tests := []struct {
		score float64
		want  string
	}{
		{0.0, "Sehr gering"},
		{0.1999, "Sehr gering"},
		{0.2, "Gering"},
		{0.3999, "Gering"},
		{0.4, "Mittel"},
		{0.6, "Fortgeschritten"},
		{0.75, "Fortgeschritten"},
		{0.8, "Sehr hoch"},
		{0.9999, "Sehr hoch"},
		{1.0, "Sehr hoch"},
		{1.0000001, "Sehr hoch"},
		{-0.1, "Sehr gering"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyMaturity(levels, tt.score).Name, "score %v", tt.score)
	}
}

func TestClassifyMaturity_Defaults(t *testing.T) {
	assert.Equal(t, "Sehr hoch", ClassifyMaturity(nil, 1.0).Name)
	assert.Equal(t, "Sehr gering", ClassifyMaturity(nil, math.NaN()).Name)
}

func TestValidateLevels(t *testing.T) {
	assert.NoError(t, ValidateLevels(DefaultLevels()))

	tests := []struct {
		name   string
		levels []models.MaturityLevel
	}{
		{"empty", nil},
		{"gap", []models.MaturityLevel{
			{Name: "low", MinScore: 0, MaxScore: 0.4},
			{Name: "high", MinScore: 0.5, MaxScore: 1},
		}},
		{"not starting at zero", []models.MaturityLevel{
			{Name: "only", MinScore: 0.1, MaxScore: 1},
		}},
		{"not ending at one", []models.MaturityLevel{
			{Name: "only", MinScore: 0, MaxScore: 1.01},
		}},
		{"empty range", []models.MaturityLevel{
			{Name: "low", MinScore: 0, MaxScore: 0},
			{Name: "high", MinScore: 0, MaxScore: 1},
		}},
		{"unnamed", []models.MaturityLevel{
			{MinScore: 0, MaxScore: 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateLevels(tt.levels))
		})
	}
}
