package domain

import "time"

// Performance representa um dia de desempenho de um anúncio ou de uma unidade.
// CPC, CVR e RPC são as predições diárias e podem estar ausentes.
type Performance struct {
	Date         time.Time
	Impressions  float64
	Clicks       float64
	Conversions  float64
	Sales        float64
	Costs        float64
	BiddingPrice *float64
	CPC          *float64
	CVR          *float64
	RPC          *float64
}

// CostPerClick retorna o CPC observado (0 quando não houve cliques)
func (p Performance) CostPerClick() float64 {
	if p.Clicks > 0 {
		return p.Costs / p.Clicks
	}
	return 0
}

// CostPerAcquisition retorna o CPA observado (0 quando não houve conversões)
func (p Performance) CostPerAcquisition() float64 {
	if p.Conversions > 0 {
		return p.Costs / p.Conversions
	}
	return 0
}

// InverseROAS retorna custo sobre receita (0 quando não houve vendas)
func (p Performance) InverseROAS() float64 {
	if p.Sales > 0 {
		return p.Costs / p.Sales
	}
	return 0
}
