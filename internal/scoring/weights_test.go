package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]float64
		sum  float64
	}{
		{"percent inputs", map[string]float64{"a": 35, "b": 20, "c": 15, "d": 15, "e": 15}, 1},
		{"fractions", map[string]float64{"a": 0.35, "b": 0.65}, 1},
		{"uneven total", map[string]float64{"a": 30, "b": 30, "c": 50}, 1},
		{"single theme", map[string]float64{"a": 3}, 1},
		{"all zero", map[string]float64{"a": 0, "b": 0}, 0},
		{"empty", map[string]float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWeights(tt.raw)
			assert.Len(t, got, len(tt.raw))
			assert.InDelta(t, tt.sum, Sum(got), 1e-9)
		})
	}
}

func TestNormalizeWeights_Proportions(t *testing.T) {
	got := NormalizeWeights(map[string]float64{"T1": 70, "T2": 30})
	assert.InDelta(t, 0.7, got["T1"], 1e-12)
	assert.InDelta(t, 0.3, got["T2"], 1e-12)
}

func TestNormalizeWeights_NegativeCountsAsZero(t *testing.T) {
	got := NormalizeWeights(map[string]float64{"a": -5, "b": 10})
	assert.Equal(t, 0.0, got["a"])
	assert.InDelta(t, 1.0, got["b"], 1e-12)
}

func TestScaleWeights(t *testing.T) {
	got := ScaleWeights(map[string]float64{"a": 0.35, "b": 0.15})
	assert.Equal(t, map[string]float64{"a": 35, "b": 15}, got)
}

func TestValidateRawWeights(t *testing.T) {
	assert.NoError(t, ValidateRawWeights(map[string]float64{"a": 0, "b": 100}))
	assert.Error(t, ValidateRawWeights(map[string]float64{"a": -1}))
	assert.Error(t, ValidateRawWeights(map[string]float64{"a": math.NaN()}))
	assert.Error(t, ValidateRawWeights(map[string]float64{"a": math.Inf(1)}))
}
