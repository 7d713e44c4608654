package domain

// Limiares de atividade mínima para um anúncio participar da otimização
const (
	ThresholdOfClicksWeekly  = 0.0
	ThresholdOfCVMonthly     = 0.0
	ThresholdOfSalesMonthly  = 0.0
	weeklyWindowPerformances = 7
	monthWindowPerformances  = 28
)

// Ad é um anúncio com seu histórico diário de desempenho (ordem cronológica)
// e as predições de valor para o dia corrente
type Ad struct {
	CampaignID                     int64
	AdType                         string
	AdID                           int64
	Performances                   []Performance
	IsEnabledBiddingAutoAdjustment bool
	CPCPrediction                  *float64
	CVRPrediction                  *float64
	RPCPrediction                  *float64
}

// LastBiddingPrice retorna o lance do último dia do histórico
func (a *Ad) LastBiddingPrice() *float64 {
	if len(a.Performances) == 0 {
		return nil
	}
	return a.Performances[len(a.Performances)-1].BiddingPrice
}

// Value retorna a estimativa de valor do anúncio conforme o objetivo:
// 1/cpc para cliques, cvr/cpc para conversões e rpc/cpc para vendas.
// Nil quando as predições necessárias estão ausentes ou o CPC previsto é zero.
func (a *Ad) Value(purpose Purpose) *float64 {
	if a.CPCPrediction == nil || *a.CPCPrediction == 0 {
		return nil
	}

	var v float64
	switch purpose {
	case PurposeClick:
		v = 1 / *a.CPCPrediction
	case PurposeConversion:
		if a.CVRPrediction == nil {
			return nil
		}
		v = *a.CVRPrediction / *a.CPCPrediction
	case PurposeSales:
		if a.RPCPrediction == nil {
			return nil
		}
		v = *a.RPCPrediction / *a.CPCPrediction
	default:
		return nil
	}
	return &v
}

// WeeklyClicks soma os cliques dos últimos 7 dias do histórico
func (a *Ad) WeeklyClicks() float64 {
	return a.sumLast(weeklyWindowPerformances, func(p Performance) float64 { return p.Clicks })
}

// MonthlyConversions soma as conversões dos últimos 28 dias do histórico
func (a *Ad) MonthlyConversions() float64 {
	return a.sumLast(monthWindowPerformances, func(p Performance) float64 { return p.Conversions })
}

// MonthlySales soma as vendas dos últimos 28 dias do histórico
func (a *Ad) MonthlySales() float64 {
	return a.sumLast(monthWindowPerformances, func(p Performance) float64 { return p.Sales })
}

// HasPredictions retorna verdadeiro quando as três predições do dia existem
func (a *Ad) HasPredictions() bool {
	return a.CPCPrediction != nil && a.CVRPrediction != nil && a.RPCPrediction != nil
}

// IsOptimizeTarget decide se o anúncio tem atividade mínima para participar
// do controle: cliques semanais para CLICK e, adicionalmente, conversões ou
// vendas mensais para CONVERSION e SALES
func (a *Ad) IsOptimizeTarget(purpose Purpose) bool {
	switch purpose {
	case PurposeClick:
		return a.WeeklyClicks() > ThresholdOfClicksWeekly
	case PurposeConversion:
		return a.WeeklyClicks() > ThresholdOfClicksWeekly &&
			a.MonthlyConversions() > ThresholdOfCVMonthly
	case PurposeSales:
		return a.WeeklyClicks() > ThresholdOfClicksWeekly &&
			a.MonthlySales() > ThresholdOfSalesMonthly
	}
	return false
}

func (a *Ad) sumLast(n int, field func(Performance) float64) float64 {
	ps := a.Performances
	if len(ps) > n {
		ps = ps[len(ps)-n:]
	}
	var sum float64
	for _, p := range ps {
		sum += field(p)
	}
	return sum
}
