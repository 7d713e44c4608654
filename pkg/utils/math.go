package utils

import "math"

// Clip limita o valor de x ao intervalo [lower, upper].
// Use math.Inf(-1) ou math.Inf(1) para desabilitar um dos limites.
func Clip(x, lower, upper float64) float64 {
	if x < lower {
		x = lower
	}
	if x > upper {
		x = upper
	}
	return x
}

// SafeExp calcula a exponencial limitando o expoente para evitar overflow
func SafeExp(x float64) float64 {
	return math.Exp(Clip(x, math.Inf(-1), 50))
}

// SafeDiv divide x por y retornando 0 quando o denominador é zero ou
// quando algum dos operandos não é finito
func SafeDiv(x, y float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		y = 0
	}
	if y == 0 {
		return 0
	}
	return x / y
}

// WeightedMAWeights gera os pesos da média móvel ponderada: os dois valores
// mais recentes recebem peso 1.0 e os demais decaem linearmente
func WeightedMAWeights(windowSize int) []float64 {
	weights := make([]float64, windowSize)
	for t := 0; t < windowSize; t++ {
		if t < 2 {
			weights[windowSize-t-1] = 1.0
		} else {
			weights[windowSize-t-1] = float64(windowSize-t) / float64(windowSize-1)
		}
	}
	return weights
}

// LastWeightedMA calcula a média móvel ponderada da última posição da série,
// considerando no máximo windowSize valores (min_periods = 1)
func LastWeightedMA(xs []float64, windowSize int) float64 {
	if len(xs) == 0 {
		return 0
	}

	n := len(xs)
	if n > windowSize {
		xs = xs[n-windowSize:]
		n = windowSize
	}

	weights := WeightedMAWeights(windowSize)
	weights = weights[windowSize-n:]

	var num, den float64
	for i, x := range xs {
		num += x * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// WeightedCPC calcula o CPC como razão das médias móveis ponderadas de
// custos e cliques. Retorna 0 quando não houve cliques na janela.
func WeightedCPC(windowSize int, clicks, costs []float64) float64 {
	maClicks := LastWeightedMA(clicks, windowSize)
	maCosts := LastWeightedMA(costs, windowSize)
	if maClicks > 0 {
		return maCosts / maClicks
	}
	return 0
}

// EWMMean calcula a média exponencialmente ponderada da série (último valor),
// com pesos (1-alpha)^k para o k-ésimo valor mais antigo
func EWMMean(xs []float64, alpha float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	var num, den float64
	w := 1.0
	for i := len(xs) - 1; i >= 0; i-- {
		num += xs[i] * w
		den += w
		w *= 1 - alpha
	}
	return num / den
}

// SumLast soma os últimos n valores da série
func SumLast(xs []float64, n int) float64 {
	if len(xs) > n {
		xs = xs[len(xs)-n:]
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum
}
