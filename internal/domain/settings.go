package domain

import (
	"github.com/pkg/errors"
)

// Settings é a configuração imutável de uma unidade para uma rodada de
// otimização. É construída a partir da última linha da tabela de entrada.
type Settings struct {
	KPI              KPI
	Purpose          Purpose
	Mode             Mode
	BaseTargetCost   float64
	TargetCost       float64
	TargetKPIValue   *float64
	NotMLAppliedDays int
	YesterdayKPI     KPI
}

// NewSettings valida e constrói a configuração da unidade. Valores inválidos
// indicam violação de contrato do chamador e retornam erro imediatamente.
func NewSettings(
	kpi KPI,
	purpose Purpose,
	mode Mode,
	baseTargetCost float64,
	targetCost float64,
	targetKPIValue *float64,
	notMLAppliedDays int,
	yesterdayKPI KPI,
) (Settings, error) {
	if targetCost < 0 {
		return Settings{}, errors.New("target_cost deve ser não negativo")
	}
	if baseTargetCost < 0 {
		return Settings{}, errors.New("base_target_cost deve ser não negativo")
	}
	if targetKPIValue != nil && *targetKPIValue <= 0 {
		return Settings{}, errors.New("target_kpi_value deve ser positivo")
	}
	if notMLAppliedDays < 0 {
		return Settings{}, errors.New("not_ml_applied_days deve ser não negativo")
	}

	return Settings{
		KPI:              kpi,
		Purpose:          purpose,
		Mode:             mode,
		BaseTargetCost:   baseTargetCost,
		TargetCost:       targetCost,
		TargetKPIValue:   targetKPIValue,
		NotMLAppliedDays: notMLAppliedDays,
		YesterdayKPI:     yesterdayKPI,
	}, nil
}

// C retorna a restrição de KPI normalizada: para ROAS é o inverso do valor
// alvo, para os demais KPIs é o próprio valor. Nil quando não há restrição.
func (s Settings) C() *float64 {
	if s.TargetKPIValue == nil {
		return nil
	}
	if s.KPI == KPIROAS {
		c := 1 / *s.TargetKPIValue
		return &c
	}
	c := *s.TargetKPIValue
	return &c
}

// ObservedKPI retorna o valor observado da métrica restringida para o dia
// informado. Nil quando a unidade não tem restrição de KPI.
func (s Settings) ObservedKPI(p Performance) *float64 {
	var obs float64
	switch s.KPI {
	case KPICPC:
		obs = p.CostPerClick()
	case KPICPA:
		obs = p.CostPerAcquisition()
	case KPIROAS:
		obs = p.InverseROAS()
	default:
		return nil
	}
	return &obs
}

// Sigma retorna o fator que converte a restrição C para a escala do lance
// na fórmula de bidding. Nil quando não há restrição.
func (s Settings) Sigma(p Performance) *float64 {
	switch s.KPI {
	case KPICPC:
		one := 1.0
		return &one
	case KPICPA:
		return p.CVR
	case KPIROAS:
		return p.RPC
	default:
		return nil
	}
}

// StepWeight retorna a contribuição do dia para o mês na atualização do ganho
// q: cliques, conversões ou vendas conforme o KPI restringido
func (s Settings) StepWeight(p Performance) (float64, error) {
	switch s.KPI {
	case KPICPC:
		return p.Clicks, nil
	case KPICPA:
		return p.Conversions, nil
	case KPIROAS:
		return p.Sales, nil
	default:
		return 0, errors.New("peso do passo indefinido para unidade sem restrição de KPI")
	}
}
