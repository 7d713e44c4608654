package controlling

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/pkg/utils"
)

// pidStep executa um passo do controlador sobre o estado informado e devolve
// o novo estado. O estado recebido não é modificado. Os pesos weight e
// sumWeight não participam da atualização; são apenas validados como parte do
// contrato de chamada (negativos ou weight > sumWeight indicam configuração
// inválida da unidade).
func pidStep(cfg Config, state domain.State, target, observed float64, isBeginOfMonth bool, weight, sumWeight float64) (domain.State, error) {
	if state.Output == nil {
		return domain.State{}, errors.New("estado sem saída inicializada")
	}
	if weight < 0 || sumWeight < 0 {
		return domain.State{}, errors.New("pesos do passo PID não podem ser negativos")
	}
	if sumWeight < weight {
		return domain.State{}, errors.New("peso do passo PID maior que a soma dos pesos")
	}

	newState := state

	e := target - observed
	newState.Error = &e

	sumError := state.SumError + e
	if isBeginOfMonth {
		sumError = e
	}
	newState.SumError = sumError

	// Erro nulo é tratado como ausência de erro anterior
	lastError := state.Error
	deltaError := 0.0
	if lastError != nil && *lastError != 0 && !isBeginOfMonth {
		deltaError = e - *lastError
	}

	update := func() float64 {
		return cfg.Sign * (newState.Kp*e + newState.Ki*newState.SumError + newState.Kd*deltaError)
	}

	lr := 1.0
	if lastError != nil && *lastError != 0 && e*(*lastError) < 0 {
		// Oscilação: o acumulador é zerado e, se a amplitude for
		// relevante, os ganhos são reduzidos
		newState.SumError = 0
		if math.Abs(e) > target*cfg.ThRatioReduceOscillate {
			lr *= cfg.ReduceRate
		}
	}
	if math.Abs(newState.SumError) > target*cfg.ThRatioAccelerate {
		lr *= cfg.AccelerateRate
	}

	newState.Kp = state.Kp * lr
	newState.Ki = state.Ki * lr
	newState.Kd = state.Kd * lr

	dOutput := update()

	// Reescala os ganhos para que a variação da saída fique dentro da banda
	alpha := 1.0
	if utils.SafeExp(dOutput) > cfg.UBRatioOutput {
		alpha = math.Log(cfg.UBRatioOutput) / dOutput
	} else if utils.SafeExp(dOutput) < cfg.LBRatioOutput {
		alpha = math.Log(cfg.LBRatioOutput) / dOutput
	}
	newState.Kp *= alpha
	newState.Ki *= alpha
	newState.Kd *= alpha

	dOutput = update()

	original := *state.Output * utils.SafeExp(dOutput)
	newState.OriginalOutput = &original

	output := utils.Clip(original, *state.Output*cfg.LBRatioOutput, *state.Output*cfg.UBRatioOutput)
	newState.Output = &output

	return newState, nil
}

// tunePIDParams reescala os ganhos de um estado recém inicializado para que o
// primeiro passo do controlador respeite a banda de saída.
func tunePIDParams(cfg Config, state domain.State, initError float64) domain.State {
	d := cfg.Sign * (state.Kp*initError + state.Ki*initError + state.Kd*initError)

	beta := 1.0
	if d > 0 {
		beta = math.Log(cfg.UBRatioOutput) / d
	} else if d < 0 {
		beta = math.Log(cfg.LBRatioOutput) / d
	}

	state.Kp *= beta
	state.Ki *= beta
	state.Kd *= beta
	return state
}

// initializeP resolve p para unidades sem KPI alvo: o ganho que reproduz os
// lances atuais sob o modelo lance = p * custo * valor.
func initializeP(bids, values, costs []float64) (float64, error) {
	var num, den float64
	for i := range bids {
		num += costs[i] * costs[i] * values[i] * values[i]
		den += bids[i] * values[i] * costs[i] * costs[i]
	}
	if den == 0 {
		return 0, errors.New("não é possível inicializar p: denominador nulo")
	}
	return num / den, nil
}

// initializePAndQ resolve p e q sobre a variedade 1/(2p) + C/(2q) = t, onde t
// é o custo alvo implícito nos lances atuais.
func initializePAndQ(bids, values, costs []float64, c float64) (p, q float64, err error) {
	var num, den float64
	for i := range bids {
		num += bids[i] * values[i] * costs[i] * costs[i]
		den += costs[i] * costs[i] * values[i] * values[i]
	}
	if den == 0 {
		return 0, 0, errors.New("não é possível inicializar p e q: denominador nulo")
	}
	t := num / den
	t = math.Max(t, c*(1+manifoldEpsilon))

	p = 1 / (2 * t)
	q = 1 / (2 * (t - c))
	return p, q, nil
}

// reupdateStates reconcilia p e q projetando o par sobre a variedade definida
// por C. Quando algum dos lados não está disponível nada é alterado.
func reupdateStates(pState, qState domain.State, c *float64, hasQ bool) (domain.State, domain.State) {
	if !hasQ || pState.Output == nil || qState.Output == nil || c == nil {
		return pState, qState
	}

	t := math.Max((1+*qState.Output*(*c))/(*pState.Output+*qState.Output), *c*(1+manifoldEpsilon))

	newP := 1 / (2 * t)
	newQ := 1 / (2 * (t - *c))
	pState.Output = &newP
	qState.Output = &newQ
	return pState, qState
}

// linearWMA calcula a média ponderada com pesos lineares crescentes (1..n),
// usada na estimativa de custo por anúncio durante a inicialização.
func linearWMA(xs []float64) float64 {
	var num, den float64
	for i, x := range xs {
		w := float64(i + 1)
		num += w * x
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// weightedCPCByDate estima o CPC da unidade sobre a janela que termina em
// endDate, ponderando custos e cliques diários pelos pesos da média móvel.
func weightedCPCByDate(actuals []domain.CampaignActual, endDate time.Time, window int) float64 {
	type daily struct{ costs, clicks float64 }
	byDate := make(map[time.Time]*daily)
	for _, a := range actuals {
		d := utils.TruncateToDay(a.Date)
		if byDate[d] == nil {
			byDate[d] = &daily{}
		}
		byDate[d].costs += a.Costs
		byDate[d].clicks += a.Clicks
	}

	weights := utils.WeightedMAWeights(window)
	var wCosts, wClicks float64
	for i := 0; i < window; i++ {
		d := utils.TruncateToDay(endDate).AddDate(0, 0, -(window - 1 - i))
		if agg, ok := byDate[d]; ok {
			wCosts += weights[i] * agg.costs
			wClicks += weights[i] * agg.clicks
		}
	}
	return utils.SafeDiv(wCosts, wClicks)
}

// bidCPCLimit devolve o teto de lance derivado dos CPCs do anúncio e da
// unidade, ou nil quando nenhum dos dois está disponível.
func bidCPCLimit(adPeriodCPC, unitPeriodCPC float64) *float64 {
	switch {
	case adPeriodCPC > 0:
		limit := math.Max(adPeriodCPC*cpcLimitRate, unitPeriodCPC*cpcLimitRate)
		return &limit
	case unitPeriodCPC > 0:
		limit := unitPeriodCPC * cpcLimitRate
		return &limit
	default:
		return nil
	}
}
