package bidding

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/pkg/log"
	"github.com/vfg2006/bid-optimizer-api/pkg/utils"
)

// Bidder calcula o lance diário de cada anúncio a partir dos ganhos (p, q)
// da unidade
type Bidder interface {
	Calc(
		today time.Time,
		records []domain.AdBidRecord,
		campaignActuals []domain.CampaignActual,
		biddingAlgorithm string,
	) ([]domain.BiddingResult, error)
}

type Service struct {
	config Config
}

func NewService(config Config) *Service {
	return &Service{config: config}
}

// ad agrupa as linhas de um anúncio em ordem cronológica. A última linha é a
// do dia corrente e carrega as predições e os ganhos da unidade.
type ad struct {
	rows []domain.AdBidRecord
}

func (a *ad) last() domain.AdBidRecord {
	return a.rows[len(a.rows)-1]
}

func (a *ad) historical(before time.Time) []domain.AdBidRecord {
	historical := make([]domain.AdBidRecord, 0, len(a.rows))
	for _, r := range a.rows {
		if r.Date.Before(before) {
			historical = append(historical, r)
		}
	}
	return historical
}

// unitDay é o desempenho diário agregado de todas as campanhas da unidade
type unitDay struct {
	date        time.Time
	clicks      float64
	conversions float64
	sales       float64
	costs       float64
}

// Calc calcula o lance de todos os anúncios habilitados. A falha de um
// anúncio resulta na manutenção do lance anterior, nunca interrompe os demais.
func (s *Service) Calc(
	today time.Time,
	records []domain.AdBidRecord,
	campaignActuals []domain.CampaignActual,
	biddingAlgorithm string,
) ([]domain.BiddingResult, error) {
	today = utils.TruncateToDay(today)

	if len(records) == 0 || len(campaignActuals) == 0 {
		log.L.Info("Nenhum registro de entrada para o cálculo de lances")
		return []domain.BiddingResult{}, nil
	}

	recordsByUnit := make(map[string][]domain.AdBidRecord)
	for _, r := range records {
		r.Date = utils.TruncateToDay(r.Date)
		recordsByUnit[r.UnitKey.ID()] = append(recordsByUnit[r.UnitKey.ID()], r)
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

	results := make([]domain.BiddingResult, 0, len(records))
	for _, unitID := range unitIDs {
		unitDays := aggregateUnitDays(actualsByUnit[unitID])
		for _, a := range groupAds(recordsByUnit[unitID]) {
			if !a.last().IsEnabledBiddingAutoAdjustment {
				continue
			}
			row := s.calcAd(today, a, unitDays)
			row.BiddingAlgorithm = biddingAlgorithm
			results = append(results, row)
		}
	}

	log.L.WithField("records", len(results)).Info("Cálculo de lances concluído")
	return results, nil
}

func (s *Service) calcAd(today time.Time, a *ad, unitDays []unitDay) domain.BiddingResult {
	last := a.last()
	historical := a.historical(today)
	rawPrevBid := lastBid(historical)
	prevBid := s.prevBid(historical, last)

	result := domain.BiddingResult{
		UnitKey:    last.UnitKey,
		CampaignID: last.CampaignID,
		AdType:     last.AdType,
		AdID:       last.AdID,
		Date:       today,
	}

	isByML := s.isByML(today, a)
	isProvisional, err := s.isProvisionalBidding(today, a)
	result.IsMLApplied = isByML
	result.IsProvisionalBidding = isProvisional

	bid := prevBid
	if err == nil {
		if isByML {
			bid, err = s.calcBiddingPriceByML(today, a, unitDays, prevBid, isProvisional, &result)
		} else {
			bid = s.calcBiddingPriceByRule(a, prevBid)
		}
	}

	if err == nil {
		bid = s.clipBadPerformance(today, bid, rawPrevBid, last)

		if math.IsNaN(bid) || math.IsInf(bid, 0) {
			err = errors.New("lance calculado não é um número finito")
		}
	}

	if err == nil {
		bid = utils.Clip(bid, last.MinimumBiddingPrice, last.MaximumBiddingPrice)

		// Arredonda para cima na casa configurada
		ceilPoint := math.Pow(10, float64(last.RoundUpPoint-1))
		bid = math.Ceil(bid*ceilPoint) / ceilPoint
	}

	if err != nil {
		log.L.WithFields(log.Fields{
			"advertising_account_id": last.AdvertisingAccountID,
			"portfolio_id":           last.PortfolioID,
			"campaign_id":            last.CampaignID,
			"ad_type":                last.AdType,
			"ad_id":                  last.AdID,
		}).WithError(err).Error("Falha no cálculo do lance. O lance anterior será mantido")
		bid = prevBid
		result.HasException = true
	}

	result.BiddingPrice = bid
	return result
}

// isByML decide se o anúncio teve cliques na última semana e portanto pode
// ser controlado pelos ganhos da unidade
func (s *Service) isByML(today time.Time, a *ad) bool {
	start := today.AddDate(0, 0, -(s.config.WeeklyClicksWindowDays + 1))

	var clicks float64
	for _, r := range a.rows {
		if !r.Date.Before(start) && r.Date.Before(today) {
			clicks += r.Clicks
		}
	}
	return clicks > domain.ThresholdOfClicksWeekly
}

// isProvisionalBidding decide se o anúncio ainda não tem o sinal de conversão
// ou venda exigido pelo objetivo e precisa da estimativa provisória de valor
func (s *Service) isProvisionalBidding(today time.Time, a *ad) (bool, error) {
	start := today.AddDate(0, 0, -(s.config.MonthlyWindowDays + 1))

	sum := func(field func(domain.AdBidRecord) float64) float64 {
		var total float64
		for _, r := range a.rows {
			if !r.Date.Before(start) && r.Date.Before(today) {
				total += field(r)
			}
		}
		return total
	}

	switch a.last().Purpose {
	case domain.PurposeClick:
		return false, nil
	case domain.PurposeConversion:
		return !(sum(func(r domain.AdBidRecord) float64 { return r.Conversions }) > domain.ThresholdOfCVMonthly), nil
	case domain.PurposeSales:
		return !(sum(func(r domain.AdBidRecord) float64 { return r.Sales }) > domain.ThresholdOfSalesMonthly), nil
	}
	return false, errors.Errorf("objetivo desconhecido: %s", a.last().Purpose)
}

// calcBiddingPriceByRule mantém o lance anterior, reforçando anúncios com
// poucas impressões na semana
func (s *Service) calcBiddingPriceByRule(a *ad, prevBid float64) float64 {
	lastDate := a.last().Date
	historical := a.historical(lastDate)

	rows := historical
	if len(rows) > 7 {
		rows = rows[len(rows)-7:]
	}
	var weeklyImpressions float64
	for _, r := range rows {
		weeklyImpressions += r.Impressions
	}

	if weeklyImpressions < s.config.ThresholdOfImpressionsWeekly {
		return prevBid * s.config.BiddingPriceUpRatio
	}
	return prevBid
}

func (s *Service) calcBiddingPriceByML(
	today time.Time,
	a *ad,
	unitDays []unitDay,
	prevBid float64,
	isProvisional bool,
	result *domain.BiddingResult,
) (float64, error) {
	last := a.last()
	ubRatio, lbRatio := s.bidRatioRange(last)

	originBid, err := s.calcOriginBid(today, a, unitDays, prevBid, isProvisional, result)
	if err != nil {
		return 0, err
	}
	result.OriginBiddingPrice = &originBid

	cpcLimit, unitPeriodCPC, adPeriodCPC := s.calcBidCPCLimit(today, a, unitDays)
	result.UnitCPC = unitPeriodCPC
	result.AdEmaWeeklyCPC = &adPeriodCPC

	upper := prevBid * ubRatio
	if cpcLimit != nil && *cpcLimit < upper {
		upper = *cpcLimit
	}

	return utils.Clip(originBid, prevBid*lbRatio, upper), nil
}

// bidRatioRange devolve a banda de variação conforme o ritmo do orçamento
func (s *Service) bidRatioRange(last domain.AdBidRecord) (ub, lb float64) {
	if last.TargetCost <= last.BaseTargetCost {
		return s.config.BiddingUBRatioOver, s.config.BiddingLBRatioOver
	}
	return s.config.BiddingUBRatioShort, s.config.BiddingLBRatioShort
}

// calcOriginBid calcula o lance bruto a partir do valor do anúncio e dos
// ganhos (p, q) da unidade
func (s *Service) calcOriginBid(
	today time.Time,
	a *ad,
	unitDays []unitDay,
	prevBid float64,
	isProvisional bool,
	result *domain.BiddingResult,
) (float64, error) {
	last := a.last()

	if last.P == nil {
		return 0, errors.New("ganho p ausente")
	}
	if (last.Q != nil && *last.Q == 0) || *last.P == 0 {
		return 0, errors.New("ganho p ou q zerado")
	}
	p := math.Max(gainFloor, *last.P)
	var q *float64
	if last.Q != nil {
		flooredQ := math.Max(gainFloor, *last.Q)
		q = &flooredQ
	}

	var value *float64
	var err error
	if isProvisional {
		value, err = s.calcProvisionalValue(today, a, unitDays, result)
	} else {
		value, err = s.calcValue(last)
	}
	if err != nil {
		return 0, err
	}
	result.AdValue = value

	// Sem valor calculável o lance anterior é mantido
	if value == nil {
		return prevBid, nil
	}

	return s.originBidByValue(last, *value, p, q)
}

func (s *Service) calcValue(last domain.AdBidRecord) (*float64, error) {
	if last.CPC == nil || *last.CPC == 0 {
		return nil, errors.New("predição de CPC ausente ou zerada")
	}

	var v float64
	switch last.Purpose {
	case domain.PurposeClick:
		v = 1 / *last.CPC
	case domain.PurposeConversion:
		if last.CVR == nil {
			return nil, errors.New("predição de CVR ausente")
		}
		v = *last.CVR / *last.CPC
	case domain.PurposeSales:
		if last.RPC == nil {
			return nil, errors.New("predição de RPC ausente")
		}
		v = *last.RPC / *last.CPC
	default:
		return nil, errors.Errorf("objetivo desconhecido: %s", last.Purpose)
	}
	return &v, nil
}

// calcProvisionalValue estima o valor do anúncio quando ainda não há sinal de
// conversão: assume CVR de uma conversão por clique observado e usa o CPC
// realizado das últimas quatro semanas
func (s *Service) calcProvisionalValue(
	today time.Time,
	a *ad,
	unitDays []unitDay,
	result *domain.BiddingResult,
) (*float64, error) {
	start := today.AddDate(0, 0, -(s.config.MonthlyWindowDays + 1))

	var sumClicks, sumCosts float64
	for _, r := range a.rows {
		if !r.Date.Before(start) && r.Date.Before(today) {
			sumClicks += r.Clicks
			sumCosts += r.Costs
		}
	}
	if sumClicks == 0 {
		return nil, errors.New("anúncio sem cliques nas últimas quatro semanas")
	}
	cpcLastFourWeeks := sumCosts / sumClicks

	result.SumClickLastFourWeeks = &sumClicks
	result.SumCostLastFourWeeks = &sumCosts
	result.CPCLastFourWeeks = &cpcLastFourWeeks

	var sales, conversions, clicks []float64
	for _, d := range unitDays {
		if !d.date.Before(start) && d.date.Before(today) {
			sales = append(sales, d.sales)
			conversions = append(conversions, d.conversions)
			clicks = append(clicks, d.clicks)
		}
	}
	if len(clicks) == 0 {
		return nil, errors.New("unidade sem histórico nas últimas quatro semanas")
	}

	unitEwmSales := utils.EWMMean(sales, s.config.ProvisionalEWMAlpha)
	unitEwmConversions := utils.EWMMean(conversions, s.config.ProvisionalEWMAlpha)
	unitEwmClicks := utils.EWMMean(clicks, s.config.ProvisionalEWMAlpha)
	if unitEwmClicks == 0 {
		return nil, errors.New("unidade sem cliques nas últimas quatro semanas")
	}
	unitEwmCVR := unitEwmConversions / unitEwmClicks

	switch a.last().Purpose {
	case domain.PurposeConversion:
		v := math.Min(1/sumClicks, unitEwmCVR) / cpcLastFourWeeks
		return &v, nil
	case domain.PurposeSales:
		if unitEwmConversions <= 0 {
			return nil, nil
		}
		v := math.Min(1/sumClicks, unitEwmCVR) * unitEwmSales / unitEwmConversions / cpcLastFourWeeks
		return &v, nil
	}
	return nil, errors.Errorf("valor provisório indefinido para o objetivo %s", a.last().Purpose)
}

func (s *Service) originBidByValue(last domain.AdBidRecord, v, p float64, q *float64) (float64, error) {
	kpi := last.TargetKPI
	purpose := last.Purpose

	if kpi == domain.KPINull {
		return v / p, nil
	}

	if q == nil {
		return 0, errors.New("ganho q é obrigatório para unidades com restrição de KPI")
	}
	if last.C == nil {
		return 0, errors.New("restrição C é obrigatória para unidades com restrição de KPI")
	}
	if last.CPC == nil || *last.CPC == 0 {
		return 0, errors.New("predição de CPC ausente ou zerada")
	}
	c := *last.C
	cpc := *last.CPC
	qv := *q

	switch {
	case purpose == domain.PurposeClick && kpi == domain.KPICPC:
		return v/(p+qv) + c*qv/cpc/(p+qv), nil
	case purpose == domain.PurposeConversion && kpi == domain.KPICPA:
		if last.CVR == nil {
			return 0, errors.New("predição de CVR ausente")
		}
		return v/(p+qv) + c*(*last.CVR)*qv/cpc/(p+qv), nil
	case purpose == domain.PurposeSales && kpi == domain.KPIROAS:
		if last.RPC == nil {
			return 0, errors.New("predição de RPC ausente")
		}
		return v/(p+qv) + c*(*last.RPC)*qv/cpc/(p+qv), nil
	}
	return 0, errors.Errorf("combinação de objetivo e KPI não suportada: %s, %s", purpose, kpi)
}

// calcBidCPCLimit calcula o teto de lance derivado dos CPCs das duas últimas
// semanas do anúncio e da unidade
func (s *Service) calcBidCPCLimit(today time.Time, a *ad, unitDays []unitDay) (limit, unitCPC *float64, adCPC float64) {
	start := today.AddDate(0, 0, -(s.config.CPCPeriodDays + 1))

	var unitClicks, unitCosts []float64
	for _, d := range unitDays {
		if !d.date.Before(start) && d.date.Before(today) {
			unitClicks = append(unitClicks, d.clicks)
			unitCosts = append(unitCosts, d.costs)
		}
	}
	unitPeriodCPC := 0.0
	if len(unitClicks) > 0 {
		unitPeriodCPC = utils.WeightedCPC(s.config.CPCPeriodDays, unitClicks, unitCosts)
	}

	var adClicks, adCosts []float64
	for _, r := range a.rows {
		if !r.Date.Before(start) && r.Date.Before(today) {
			adClicks = append(adClicks, r.Clicks)
			adCosts = append(adCosts, r.Costs)
		}
	}
	adPeriodCPC := 0.0
	if len(adClicks) > 0 {
		adPeriodCPC = utils.WeightedCPC(s.config.CPCPeriodDays, adClicks, adCosts)
	}

	switch {
	case adPeriodCPC > 0:
		l := math.Max(adPeriodCPC*s.config.CPCLimitRate, unitPeriodCPC*s.config.CPCLimitRate)
		return &l, &unitPeriodCPC, adPeriodCPC
	case unitPeriodCPC > 0:
		l := unitPeriodCPC * s.config.CPCLimitRate
		return &l, &unitPeriodCPC, adPeriodCPC
	default:
		return nil, nil, adPeriodCPC
	}
}

// clipBadPerformance impede que anúncios relevantes e fora da meta de KPI
// recebam lance maior que o do dia anterior
func (s *Service) clipBadPerformance(today time.Time, bid float64, rawPrevBid *float64, last domain.AdBidRecord) float64 {
	if today.Day() == 1 || last.C == nil || rawPrevBid == nil {
		return bid
	}
	if last.UnitExObservedC == nil || last.AdObservedCYesterdayInMonth == nil {
		return bid
	}

	unitOffTarget := (last.Mode == domain.ModeKPI && *last.UnitExObservedC > *last.C) ||
		(last.Mode != domain.ModeKPI && last.TargetCost < last.BaseTargetCost && *last.UnitExObservedC > *last.C)
	adRelevant := last.AdWeeklyEmaCosts > last.UnitWeeklyEmaCosts*s.config.BadPerformanceCostsShare
	adOffTarget := *last.AdObservedCYesterdayInMonth > *last.C

	if unitOffTarget && adRelevant && adOffTarget {
		return math.Min(bid, *rawPrevBid)
	}
	return bid
}

func (s *Service) prevBid(historical []domain.AdBidRecord, last domain.AdBidRecord) float64 {
	if bid := lastBid(historical); bid != nil {
		return *bid
	}
	return last.MinimumBiddingPrice
}

func lastBid(historical []domain.AdBidRecord) *float64 {
	if len(historical) == 0 {
		return nil
	}
	return historical[len(historical)-1].BiddingPrice
}

func groupAds(records []domain.AdBidRecord) []*ad {
	type adKey struct {
		campaignID int64
		adType     string
		adID       int64
	}

	byAd := make(map[adKey]*ad)
	order := make([]adKey, 0)
	for _, r := range records {
		key := adKey{campaignID: r.CampaignID, adType: r.AdType, adID: r.AdID}
		if byAd[key] == nil {
			byAd[key] = &ad{}
			order = append(order, key)
		}
		byAd[key].rows = append(byAd[key].rows, r)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].campaignID != order[j].campaignID {
			return order[i].campaignID < order[j].campaignID
		}
		if order[i].adType != order[j].adType {
			return order[i].adType < order[j].adType
		}
		return order[i].adID < order[j].adID
	})

	ads := make([]*ad, 0, len(order))
	for _, key := range order {
		a := byAd[key]
		sort.SliceStable(a.rows, func(i, j int) bool { return a.rows[i].Date.Before(a.rows[j].Date) })
		ads = append(ads, a)
	}
	return ads
}

func aggregateUnitDays(actuals []domain.CampaignActual) []unitDay {
	byDate := make(map[time.Time]*unitDay)
	for _, a := range actuals {
		date := utils.TruncateToDay(a.Date)
		d, ok := byDate[date]
		if !ok {
			d = &unitDay{date: date}
			byDate[date] = d
		}
		d.clicks += a.Clicks
		d.conversions += a.Conversions
		d.sales += a.Sales
		d.costs += a.Costs
	}

	days := make([]unitDay, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
	return days
}
