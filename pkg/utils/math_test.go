package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClip(t *testing.T) {
	testCases := []struct {
		name     string
		x        float64
		lower    float64
		upper    float64
		expected float64
	}{
		{"valor dentro do intervalo permanece", 2, 0, 3, 2},
		{"valor acima do limite superior é cortado", 5, 0, 3, 3},
		{"valor abaixo do limite inferior é cortado", -1, 0, 3, 0},
		{"limite infinito não corta", 100, math.Inf(-1), math.Inf(1), 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Clip(tc.x, tc.lower, tc.upper))
		})
	}
}

func TestSafeExp(t *testing.T) {
	t.Run("expoente normal", func(t *testing.T) {
		assert.Equal(t, 1.0, SafeExp(0))
	})

	t.Run("expoente grande é limitado em 50", func(t *testing.T) {
		assert.Equal(t, math.Exp(50), SafeExp(100))
	})
}

func TestSafeDiv(t *testing.T) {
	testCases := []struct {
		name     string
		x        float64
		y        float64
		expected float64
	}{
		{"divisão normal", 4, 2, 2},
		{"denominador zero retorna zero", 1, 0, 0},
		{"numerador não finito retorna zero", math.NaN(), 2, 0},
		{"denominador não finito retorna zero", 1, math.Inf(1), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SafeDiv(tc.x, tc.y))
		})
	}
}

func TestWeightedMAWeights(t *testing.T) {
	weights := WeightedMAWeights(4)

	assert.Len(t, weights, 4)
	assert.InDelta(t, 1.0/3.0, weights[0], 1e-12)
	assert.InDelta(t, 2.0/3.0, weights[1], 1e-12)
	assert.Equal(t, 1.0, weights[2])
	assert.Equal(t, 1.0, weights[3])
}

func TestLastWeightedMA(t *testing.T) {
	t.Run("série vazia retorna zero", func(t *testing.T) {
		assert.Equal(t, 0.0, LastWeightedMA(nil, 7))
	})

	t.Run("série completa pondera os valores recentes", func(t *testing.T) {
		got := LastWeightedMA([]float64{1, 2, 3, 4}, 4)
		assert.InDelta(t, 26.0/9.0, got, 1e-12)
	})

	t.Run("série menor que a janela usa os pesos mais recentes", func(t *testing.T) {
		assert.Equal(t, 2.0, LastWeightedMA([]float64{2}, 4))
	})

	t.Run("série maior que a janela descarta os mais antigos", func(t *testing.T) {
		full := LastWeightedMA([]float64{99, 1, 2, 3, 4}, 4)
		window := LastWeightedMA([]float64{1, 2, 3, 4}, 4)
		assert.Equal(t, window, full)
	})
}

func TestWeightedCPC(t *testing.T) {
	t.Run("sem cliques retorna zero", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedCPC(3, []float64{0, 0, 0}, []float64{10, 10, 10}))
	})

	t.Run("razão das médias ponderadas", func(t *testing.T) {
		got := WeightedCPC(2, []float64{2, 2}, []float64{10, 10})
		assert.InDelta(t, 5.0, got, 1e-12)
	})
}

func TestEWMMean(t *testing.T) {
	t.Run("série vazia retorna zero", func(t *testing.T) {
		assert.Equal(t, 0.0, EWMMean(nil, 0.2))
	})

	t.Run("pondera os valores recentes com mais peso", func(t *testing.T) {
		got := EWMMean([]float64{1, 2, 3}, 0.2)
		assert.InDelta(t, 5.24/2.44, got, 1e-12)
	})
}

func TestSumLast(t *testing.T) {
	assert.Equal(t, 7.0, SumLast([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, 1.0, SumLast([]float64{1}, 3))
	assert.Equal(t, 0.0, SumLast(nil, 3))
}
