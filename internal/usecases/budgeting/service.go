package budgeting

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/pkg/log"
	"github.com/vfg2006/bid-optimizer-api/pkg/utils"
)

// Allocator distribui o orçamento diário da unidade entre as campanhas
type Allocator interface {
	Calc(
		today time.Time,
		records []domain.CampaignBudgetRecord,
		daily []domain.CampaignDailyActual,
		campaignActuals []domain.CampaignActual,
	) ([]domain.DailyBudgetResult, error)
}

type Service struct {
	config Config
}

func NewService(config Config) *Service {
	return &Service{config: config}
}

// campaign acumula o estado intermediário de uma campanha durante o cálculo
type campaign struct {
	record domain.CampaignBudgetRecord
	daily  []domain.CampaignDailyActual

	weight           float64
	valueOfCampaign  float64
	q                float64
	gradient         float64
	hasPotential     bool
	lastWeekMaxCosts float64
	dailyBudgetUpper float64
}

// Calc executa o alocador para todas as unidades presentes nos registros.
// A falha de uma unidade é registrada e não interrompe as demais.
func (s *Service) Calc(
	today time.Time,
	records []domain.CampaignBudgetRecord,
	daily []domain.CampaignDailyActual,
	campaignActuals []domain.CampaignActual,
) ([]domain.DailyBudgetResult, error) {
	today = utils.TruncateToDay(today)

	recordsByUnit := make(map[string][]domain.CampaignBudgetRecord)
	for _, r := range records {
		recordsByUnit[r.UnitKey.ID()] = append(recordsByUnit[r.UnitKey.ID()], r)
	}
	dailyByUnit := make(map[string][]domain.CampaignDailyActual)
	for _, d := range daily {
		dailyByUnit[d.UnitKey.ID()] = append(dailyByUnit[d.UnitKey.ID()], d)
	}
	actualsByUnit := make(map[string][]domain.CampaignActual)
	for _, a := range campaignActuals {
		actualsByUnit[a.UnitKey.ID()] = append(actualsByUnit[a.UnitKey.ID()], a)
	}

	unitIDs := make([]string, 0, len(recordsByUnit))
	for id := range recordsByUnit {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)

	results := make([]domain.DailyBudgetResult, 0, len(records))
	for _, unitID := range unitIDs {
		rows, err := s.calcUnit(today, recordsByUnit[unitID], dailyByUnit[unitID], actualsByUnit[unitID])
		if err != nil {
			log.L.WithField("unit_id", unitID).WithError(err).
				Error("Falha no cálculo de orçamento da unidade. Nenhuma linha gerada")
			continue
		}
		results = append(results, rows...)
	}

	return results, nil
}

func (s *Service) calcUnit(
	today time.Time,
	records []domain.CampaignBudgetRecord,
	daily []domain.CampaignDailyActual,
	campaignActuals []domain.CampaignActual,
) ([]domain.DailyBudgetResult, error) {
	campaigns := s.clean(today, records, daily)
	if len(campaigns) == 0 {
		return nil, errors.New("não existem campanhas com atividade recente na unidade")
	}

	unitWeeklyCPC := unitWeeklyCPCForCap(campaignActuals, today)

	switch {
	// Orçamento do mês esgotado: cada campanha fica no orçamento mínimo
	case allBudgetExhausted(campaigns):
		for _, c := range campaigns {
			c.dailyBudgetUpper = c.record.MinimumDailyBudget
		}

	// Sem sinal de CPC na semana: o orçamento do dia anterior é mantido
	case unitWeeklyCPC == 0:
		rows := make([]domain.DailyBudgetResult, 0, len(campaigns))
		for _, c := range campaigns {
			upper := c.record.MinimumDailyBudget
			if c.record.YesterdayDailyBudget != nil {
				upper = *c.record.YesterdayDailyBudget
			}
			rows = append(rows, domain.DailyBudgetResult{
				UnitKey:                      c.record.UnitKey,
				CampaignID:                   c.record.CampaignID,
				Date:                         today,
				DailyBudgetUpper:             int64(upper),
				Weight:                       c.record.Weight,
				TodayTargetCost:              c.record.TodayTargetCost,
				IdealTargetCost:              c.record.IdealTargetCost,
				YesterdayDailyBudget:         c.record.YesterdayDailyBudget,
				IsDailyBudgetUndecidableUnit: true,
				UnitWeeklyCPCForCap:          unitWeeklyCPC,
			})
		}
		return rows, nil

	default:
		if err := s.initWeights(campaigns, campaignActuals); err != nil {
			return nil, err
		}
		if err := s.calcValueOfCampaigns(campaigns); err != nil {
			return nil, err
		}
		if err := s.updateWeights(campaigns); err != nil {
			return nil, err
		}
		totalExpectedCost := s.calcDailyBudgetUpper(campaigns, unitWeeklyCPC)
		s.clip(today, campaigns)

		rows := make([]domain.DailyBudgetResult, 0, len(campaigns))
		for _, c := range campaigns {
			weight := c.weight
			value := c.valueOfCampaign
			gradient := c.gradient
			q := c.q
			maxQ := maxQOfUnit(campaigns)
			hasPotential := c.hasPotential
			lastWeekMax := c.lastWeekMaxCosts
			total := totalExpectedCost
			rows = append(rows, domain.DailyBudgetResult{
				UnitKey:              c.record.UnitKey,
				CampaignID:           c.record.CampaignID,
				Date:                 today,
				DailyBudgetUpper:     int64(c.dailyBudgetUpper),
				Weight:               &weight,
				TodayTargetCost:      c.record.TodayTargetCost,
				IdealTargetCost:      c.record.IdealTargetCost,
				TotalExpectedCost:    &total,
				ValueOfCampaign:      &value,
				Gradient:             &gradient,
				Q:                    &q,
				MaxQ:                 &maxQ,
				HasPotential:         &hasPotential,
				YesterdayDailyBudget: c.record.YesterdayDailyBudget,
				LastWeekMaxCosts:     &lastWeekMax,
				UnitWeeklyCPCForCap:  unitWeeklyCPC,
			})
		}
		return rows, nil
	}

	// Ramo de orçamento esgotado
	rows := make([]domain.DailyBudgetResult, 0, len(campaigns))
	for _, c := range campaigns {
		rows = append(rows, domain.DailyBudgetResult{
			UnitKey:              c.record.UnitKey,
			CampaignID:           c.record.CampaignID,
			Date:                 today,
			DailyBudgetUpper:     int64(c.dailyBudgetUpper),
			Weight:               c.record.Weight,
			TodayTargetCost:      c.record.TodayTargetCost,
			IdealTargetCost:      c.record.IdealTargetCost,
			YesterdayDailyBudget: c.record.YesterdayDailyBudget,
			UnitWeeklyCPCForCap:  unitWeeklyCPC,
		})
	}
	return rows, nil
}

// clean remove o dia corrente do histórico e descarta campanhas sem atividade
// na janela de critério
func (s *Service) clean(
	today time.Time,
	records []domain.CampaignBudgetRecord,
	daily []domain.CampaignDailyActual,
) []*campaign {
	criterionStart := today.AddDate(0, 0, -s.config.TargetCriterionDays)

	active := make(map[int64]bool)
	dailyByCampaign := make(map[int64][]domain.CampaignDailyActual)
	for _, d := range daily {
		date := utils.TruncateToDay(d.Date)
		if !date.Before(today) {
			continue
		}
		d.Date = date
		dailyByCampaign[d.CampaignID] = append(dailyByCampaign[d.CampaignID], d)
		if !date.Before(criterionStart) {
			active[d.CampaignID] = true
		}
	}
	for id := range dailyByCampaign {
		rows := dailyByCampaign[id]
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
		dailyByCampaign[id] = rows
	}

	sorted := make([]domain.CampaignBudgetRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CampaignID < sorted[j].CampaignID })

	campaigns := make([]*campaign, 0, len(sorted))
	for _, r := range sorted {
		if !active[r.CampaignID] {
			continue
		}
		campaigns = append(campaigns, &campaign{
			record: r,
			daily:  dailyByCampaign[r.CampaignID],
		})
	}
	return campaigns
}

func allBudgetExhausted(campaigns []*campaign) bool {
	for _, c := range campaigns {
		if c.record.TodayTargetCost > 0 {
			return false
		}
	}
	return true
}

// initWeights define o peso inicial de cada campanha: o peso do dia anterior
// quando existe, senão a participação da campanha no custo da unidade, senão
// o peso uniforme. Os pesos são normalizados para somar um.
func (s *Service) initWeights(campaigns []*campaign, campaignActuals []domain.CampaignActual) error {
	unitCosts := unitSeriesMA(campaignActuals, func(a domain.CampaignActual) float64 { return a.Costs }, s.config.CostsWindowSize)
	countWeight := 1 / float64(len(campaigns))

	for _, c := range campaigns {
		emaCosts := campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Costs }, s.config.CostsWindowSize)

		switch {
		case c.record.Weight != nil:
			c.weight = *c.record.Weight
		case emaCosts > 0:
			c.weight = utils.SafeDiv(emaCosts, unitCosts)
		default:
			c.weight = countWeight
		}
	}

	return normalizeWeights(campaigns)
}

// calcValueOfCampaigns estima o valor de cada campanha: a média móvel do KPI
// do objetivo, descontada quando o custo virtual não cobre o custo recente
func (s *Service) calcValueOfCampaigns(campaigns []*campaign) error {
	for _, c := range campaigns {
		var kpi, costs float64
		switch c.record.Purpose {
		case domain.PurposeClick:
			kpi = campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Clicks }, s.config.ClickWindowSize)
			costs = campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Costs }, s.config.CostsWindowSize)
		case domain.PurposeConversion:
			kpi = campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Conversions }, s.config.CVWindowSize)
			costs = campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Costs }, s.config.SalesWindowSize)
		case domain.PurposeSales:
			kpi = campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Sales }, s.config.SalesWindowSize)
			costs = campaignSeriesMA(c.daily, func(d domain.CampaignDailyActual) float64 { return d.Costs }, s.config.SalesWindowSize)
		default:
			return errors.Errorf("objetivo desconhecido: %s", c.record.Purpose)
		}

		virtualCost := c.weight * c.record.YesterdayTargetCost
		discount := math.Min(utils.SafeDiv(virtualCost, costs), 1)

		if costs > 0 {
			c.valueOfCampaign = kpi * discount
		} else {
			c.valueOfCampaign = 0
		}
	}
	return nil
}

// updateWeights dá um passo de gradiente multiplicativo nos pesos: campanhas
// com maior valor por unidade de orçamento ganham peso, com regularização L2
// em direção ao peso uniforme
func (s *Service) updateWeights(campaigns []*campaign) error {
	u := 1 / float64(len(campaigns))

	maxQ := 0.0
	for _, c := range campaigns {
		b := c.weight * c.record.YesterdayTargetCost
		if b > 0 {
			c.q = utils.SafeDiv(c.valueOfCampaign, b)
		} else {
			c.q = 0
		}
		if c.q < 0 {
			return errors.New("valor por orçamento negativo")
		}
		if c.q > maxQ {
			maxQ = c.q
		}
	}

	for _, c := range campaigns {
		if maxQ > 0 {
			c.gradient = -utils.SafeDiv(c.q, maxQ) + s.config.L2Lambda*(c.weight-u)
		} else {
			c.gradient = 0
		}
		c.weight *= math.Exp(-s.config.Alpha * c.gradient)
	}

	return normalizeWeights(campaigns)
}

// calcDailyBudgetUpper converte os pesos em tetos de orçamento diário,
// redistribuindo a margem da unidade para as campanhas com potencial de
// gastar mais. Retorna o custo total esperado da unidade.
func (s *Service) calcDailyBudgetUpper(campaigns []*campaign, unitWeeklyCPC float64) float64 {
	var totalExpectedCost, potentialWeightSum float64
	for _, c := range campaigns {
		c.lastWeekMaxCosts = lastWeekMaxCosts(c.daily, s.config.CostsWindowSize)

		originUpper := c.weight * c.record.TodayNoboostTargetCost
		yesterdayUnderDelivered := c.record.YesterdayDailyBudget == nil ||
			c.record.YesterdayCosts < *c.record.YesterdayDailyBudget*c.record.YesterdayCoefficient*s.config.PotentialThreshold
		c.hasPotential = !(yesterdayUnderDelivered && c.record.YesterdayCosts < originUpper)

		if c.hasPotential {
			totalExpectedCost += c.weight * c.record.TodayTargetCost
			potentialWeightSum += c.weight
		} else {
			totalExpectedCost += c.record.YesterdayCosts
		}
	}

	for _, c := range campaigns {
		originUpper := c.weight * c.record.TodayNoboostTargetCost
		totalMargin := c.record.TodayTargetCost - totalExpectedCost
		noboostTotalMargin := totalMargin / c.record.TodayCoefficient

		if c.hasPotential {
			c.dailyBudgetUpper = math.Min(
				s.config.UpperRatioBounds*originUpper,
				originUpper+c.weight*utils.SafeDiv(noboostTotalMargin, potentialWeightSum),
			)
		} else {
			yesterdayBudget := math.Inf(1)
			if c.record.YesterdayDailyBudget != nil {
				yesterdayBudget = *c.record.YesterdayDailyBudget
			}
			c.dailyBudgetUpper = math.Max(
				math.Min(originUpper, math.Min(yesterdayBudget, c.lastWeekMaxCosts*s.config.UpperRatioBoundsNotPotential)),
				math.Min(yesterdayBudget, unitWeeklyCPC*s.config.UpperRatioBoundsCPCNotPotential),
			)

			// O peso acompanha o teto efetivamente definido
			c.weight = math.Min(utils.SafeDiv(c.dailyBudgetUpper, c.record.TodayNoboostTargetCost), c.weight)
		}
	}

	return totalExpectedCost
}

// clip aplica os limites finais: desempenho ruim não aumenta o orçamento,
// a variação diária fica limitada e os limites configurados prevalecem
func (s *Service) clip(today time.Time, campaigns []*campaign) {
	s.clipBadPerformance(today, campaigns)

	monthStartWithoutBudget := today.Day() == 1
	for _, c := range campaigns {
		if c.record.YesterdayTargetCost != 0 {
			monthStartWithoutBudget = false
			break
		}
	}

	for _, c := range campaigns {
		if monthStartWithoutBudget {
			// Virada do mês sem orçamento remanescente: o teto é o gasto
			// mensal planejado diluído pelos dias do mês
			c.dailyBudgetUpper = math.Min(
				c.dailyBudgetUpper,
				c.record.OptimizationCosts/float64(utils.DaysInMonth(today)),
			)
		} else if c.record.YesterdayDailyBudget != nil {
			c.dailyBudgetUpper = math.Min(c.dailyBudgetUpper, s.config.UpperRatioBounds**c.record.YesterdayDailyBudget)
		}

		c.dailyBudgetUpper = math.Max(c.dailyBudgetUpper, c.record.MinimumDailyBudget)
		c.dailyBudgetUpper = math.Min(c.dailyBudgetUpper, c.record.MaximumDailyBudget)
	}
}

// clipBadPerformance impede que campanhas fora da meta de KPI recebam mais
// orçamento do que no dia anterior
func (s *Service) clipBadPerformance(today time.Time, campaigns []*campaign) {
	if today.Day() == 1 {
		return
	}
	c0 := campaigns[0].record.C
	if c0 == nil {
		return
	}

	for _, c := range campaigns {
		r := c.record
		if r.YesterdayDailyBudget == nil || r.UnitExObservedC == nil || r.CampaignObservedCYesterdayInMonth == nil || r.C == nil {
			continue
		}

		unitOffTarget := (r.Mode == domain.ModeKPI && *r.UnitExObservedC > *r.C) ||
			(r.Mode != domain.ModeKPI && r.TodayTargetCost < r.IdealTargetCost && *r.UnitExObservedC > *r.C)
		campaignRelevant := r.CampaignWeeklyEmaCosts > r.UnitWeeklyEmaCosts*s.config.BadPerformanceCampaignCostsShare
		campaignOffTarget := *r.CampaignObservedCYesterdayInMonth > *r.C

		if unitOffTarget && campaignRelevant && campaignOffTarget {
			c.dailyBudgetUpper = math.Min(*r.YesterdayDailyBudget, c.dailyBudgetUpper)
		}
	}
}

func normalizeWeights(campaigns []*campaign) error {
	var sum float64
	for _, c := range campaigns {
		sum += c.weight
	}
	if sum <= 0 {
		return errors.New("a soma dos pesos das campanhas deve ser positiva")
	}
	for _, c := range campaigns {
		c.weight /= sum
	}
	return nil
}

func maxQOfUnit(campaigns []*campaign) float64 {
	var max float64
	for _, c := range campaigns {
		if c.q > max {
			max = c.q
		}
	}
	return max
}

// unitWeeklyCPCForCap calcula o CPC agregado da unidade na última semana,
// incluindo o dia corrente quando disponível
func unitWeeklyCPCForCap(campaignActuals []domain.CampaignActual, today time.Time) float64 {
	start := today.AddDate(0, 0, -unitWeeklyCPCWindowDays)

	var costs, clicks float64
	for _, a := range campaignActuals {
		date := utils.TruncateToDay(a.Date)
		if date.Before(start) || date.After(today) {
			continue
		}
		costs += a.Costs
		clicks += a.Clicks
	}
	if clicks <= 0 {
		return 0
	}
	return costs / clicks
}

// campaignSeriesMA agrega a série diária da campanha por data e devolve a
// média móvel ponderada do último dia
func campaignSeriesMA(daily []domain.CampaignDailyActual, field func(domain.CampaignDailyActual) float64, window int) float64 {
	byDate := make(map[time.Time]float64)
	dates := make([]time.Time, 0, len(daily))
	for _, d := range daily {
		if _, ok := byDate[d.Date]; !ok {
			dates = append(dates, d.Date)
		}
		byDate[d.Date] += field(d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([]float64, 0, len(dates))
	for _, date := range dates {
		values = append(values, byDate[date])
	}
	return utils.LastWeightedMA(values, window)
}

// unitSeriesMA agrega a série diária de todas as campanhas da unidade
func unitSeriesMA(actuals []domain.CampaignActual, field func(domain.CampaignActual) float64, window int) float64 {
	byDate := make(map[time.Time]float64)
	dates := make([]time.Time, 0, len(actuals))
	for _, a := range actuals {
		date := utils.TruncateToDay(a.Date)
		if _, ok := byDate[date]; !ok {
			dates = append(dates, date)
		}
		byDate[date] += field(a)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([]float64, 0, len(dates))
	for _, date := range dates {
		values = append(values, byDate[date])
	}
	return utils.LastWeightedMA(values, window)
}

// lastWeekMaxCosts devolve o maior custo diário da campanha na janela mais
// recente do histórico
func lastWeekMaxCosts(daily []domain.CampaignDailyActual, window int) float64 {
	byDate := make(map[time.Time]float64)
	dates := make([]time.Time, 0, len(daily))
	for _, d := range daily {
		if _, ok := byDate[d.Date]; !ok {
			dates = append(dates, d.Date)
		}
		byDate[d.Date] += d.Costs
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) > window {
		dates = dates[len(dates)-window:]
	}
	var max float64
	for i, date := range dates {
		if i == 0 || byDate[date] > max {
			max = byDate[date]
		}
	}
	return max
}
