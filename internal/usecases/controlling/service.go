package controlling

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/pkg/log"
	"github.com/vfg2006/bid-optimizer-api/pkg/utils"
)

// Controller calcula os ganhos (p, q) de cada unidade a partir do histórico
// de desempenho dos anúncios
type Controller interface {
	Calc(today time.Time, records []domain.UnitPerformanceRecord, campaignActuals []domain.CampaignActual) ([]domain.PIDResult, error)
}

type Service struct {
	config Config
}

func NewService(config Config) *Service {
	return &Service{config: config}
}

// Calc executa o controlador para todas as unidades presentes nos registros.
// A falha de uma unidade é registrada e não interrompe as demais.
func (s *Service) Calc(
	today time.Time,
	records []domain.UnitPerformanceRecord,
	campaignActuals []domain.CampaignActual,
) ([]domain.PIDResult, error) {
	today = utils.TruncateToDay(today)

	groups := make(map[string][]domain.UnitPerformanceRecord)
	keys := make(map[string]domain.UnitKey)
	for _, r := range records {
		id := r.UnitKey.ID()
		groups[id] = append(groups[id], r)
		keys[id] = r.UnitKey
	}

	actualsByUnit := make(map[string][]domain.CampaignActual)
	for _, a := range campaignActuals {
		id := a.UnitKey.ID()
		actualsByUnit[id] = append(actualsByUnit[id], a)
	}

	unitIDs := make([]string, 0, len(groups))
	for id := range groups {
		unitIDs = append(unitIDs, id)
	}
	sort.Strings(unitIDs)

	maxConcurrent := s.config.MaxConcurrentUnits
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	semaphore := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	results := make([]domain.PIDResult, 0, len(unitIDs))
	for _, unitID := range unitIDs {
		wg.Add(1)
		semaphore <- struct{}{} // Adquirir semáforo

		go func(unitID string) {
			defer func() {
				<-semaphore // Liberar semáforo
				wg.Done()
			}()

			log.L.WithField("unit_id", unitID).Info("Iniciando cálculo PID da unidade")

			row, err := s.calcUnit(today, groups[unitID], actualsByUnit[unitID])
			if err != nil {
				log.L.WithField("unit_id", unitID).WithError(err).
					Error("Falha no cálculo PID da unidade. Nenhuma linha gerada")
				return
			}
			if row == nil {
				return
			}

			row.UnitKey = keys[unitID]
			row.Date = today

			mu.Lock()
			results = append(results, *row)
			mu.Unlock()

			log.L.WithField("unit_id", unitID).Info("Cálculo PID da unidade concluído")
		}(unitID)
	}

	wg.Wait()

	// A ordem de término das goroutines não é determinística
	sort.Slice(results, func(i, j int) bool {
		return results[i].UnitKey.ID() < results[j].UnitKey.ID()
	})

	return results, nil
}

func (s *Service) calcUnit(
	today time.Time,
	recs []domain.UnitPerformanceRecord,
	actuals []domain.CampaignActual,
) (*domain.PIDResult, error) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].AdID != recs[j].AdID {
			return recs[i].AdID < recs[j].AdID
		}
		if recs[i].AdType != recs[j].AdType {
			return recs[i].AdType < recs[j].AdType
		}
		return recs[i].Date.Before(recs[j].Date)
	})

	allBidsNull := true
	for _, r := range recs {
		if r.BiddingPrice != nil {
			allBidsNull = false
			break
		}
	}
	if allBidsNull {
		log.L.WithField("unit_id", recs[0].UnitKey.ID()).
			Warn("Todos os lances da unidade são inválidos. Nenhuma linha gerada")
		return nil, nil
	}

	last := recs[len(recs)-1]

	if last.TargetCost == 0 {
		log.L.WithField("unit_id", last.UnitKey.ID()).
			Warn("target_cost zerado. A unidade mantém o estado do dia anterior")
		return s.skipStateRow(last), nil
	}

	settings, err := settingsFromRecord(last)
	if err != nil {
		return nil, err
	}
	pState, qState := statesFromRecord(last)
	hasQ := true

	ads := buildAds(today, recs)
	if len(ads) == 0 {
		return nil, errors.New("unidade sem anúncios")
	}

	historical := aggregateDaily(today, recs)
	if len(historical) == 0 {
		return nil, errors.New("unidade sem histórico de desempenho")
	}
	lastDay := historical[len(historical)-1]

	obsKPI := settings.ObservedKPI(lastDay)
	obsCost := lastDay.Costs

	validAds := make([]*domain.Ad, 0, len(ads))
	for _, ad := range ads {
		if ad.IsOptimizeTarget(settings.Purpose) && ad.HasPredictions() && ad.IsEnabledBiddingAutoAdjustment {
			validAds = append(validAds, ad)
		}
	}
	validAdsNum := len(validAds)
	if validAdsNum == 0 {
		log.L.WithField("unit_id", last.UnitKey.ID()).
			Warn("Nenhum anúncio válido para o controle. Nenhuma linha gerada")
		return nil, nil
	}

	isPIDInitialized := false
	if s.isInitPQ(settings, pState, qState) {
		p, q, initHasQ, err := s.initPQ(today, settings, validAds, actuals, obsCost, obsKPI)
		if err != nil {
			return nil, err
		}
		pState = p
		if initHasQ {
			qState = q
		} else {
			hasQ = false
		}
		isPIDInitialized = true
	}

	if lastDay.BiddingPrice == nil {
		log.L.WithField("unit_id", last.UnitKey.ID()).
			Warn("Lance do último dia ausente. Nenhuma linha gerada")
		return nil, nil
	}

	isBeginOfMonth := today.Day() == 1

	if settings.KPI == domain.KPINull {
		pState, err = pidStep(s.config, pState, settings.TargetCost, obsCost, isBeginOfMonth, 1, 1)
		if err != nil {
			return nil, err
		}
	} else {
		c := settings.C()
		if c == nil {
			return nil, errors.New("target_kpi_value é obrigatório para unidades com restrição de KPI")
		}
		if obsKPI == nil {
			return nil, errors.New("KPI observado ausente para unidade com restrição de KPI")
		}

		if isBeginOfMonth {
			// Virada do mês: o erro é zerado usando o alvo como observado
			pState, err = pidStep(s.config, pState, settings.TargetCost, settings.TargetCost, true, 1, 1)
			if err != nil {
				return nil, err
			}
			qState, err = pidStep(s.config, qState, *c, *c, true, 1, 1)
			if err != nil {
				return nil, err
			}
		} else {
			if last.UnitExObservedC == nil {
				return nil, errors.New("unit_ex_observed_c não calculado para a unidade")
			}
			unitExObservedC := *last.UnitExObservedC

			sumWeight := 0.0
			for _, p := range historical {
				if utils.SameMonth(p.Date, today) {
					w, err := settings.StepWeight(p)
					if err != nil {
						return nil, err
					}
					sumWeight += w
				}
			}
			weight, err := settings.StepWeight(lastDay)
			if err != nil {
				return nil, err
			}
			sumWeight += weight

			switch {
			// Ritmo acima do planejado: o alvo de KPI é reduzido para
			// conter o custo
			case settings.TargetCost < settings.BaseTargetCost:
				targetC := *c
				if unitExObservedC != 0 && unitExObservedC <= *c {
					targetC = settings.TargetCost / settings.BaseTargetCost * unitExObservedC
				}
				pState, err = pidStep(s.config, pState, settings.TargetCost, obsCost, false, 1, 1)
				if err != nil {
					return nil, err
				}
				qState, err = pidStep(s.config, qState, targetC, *obsKPI, false, weight, sumWeight)
				if err != nil {
					return nil, err
				}

			// KPI sob controle, ou ROAS sem vendas no mês corrente:
			// ambos os ganhos são atualizados
			case (unitExObservedC < *c && *obsKPI < *c*latestKPIBoundBuff) ||
				(settings.KPI == domain.KPIROAS && monthlySales(historical) == 0):
				pState, err = pidStep(s.config, pState, settings.TargetCost, obsCost, false, 1, 1)
				if err != nil {
					return nil, err
				}
				qState, err = pidStep(s.config, qState, *c, *obsKPI, false, weight, sumWeight)
				if err != nil {
					return nil, err
				}

			case settings.Mode == domain.ModeBudget:
				pState, err = pidStep(s.config, pState, settings.TargetCost, obsCost, false, 1, 1)
				if err != nil {
					return nil, err
				}

			case settings.Mode == domain.ModeKPI:
				qState, err = pidStep(s.config, qState, *c, *obsKPI, false, weight, sumWeight)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if pState.OriginalOutput == nil {
		pState.OriginalOutput = pState.Output
	}
	if qState.OriginalOutput == nil {
		qState.OriginalOutput = qState.Output
	}

	preP, preQ := pState, qState
	pState, qState = reupdateStates(pState, qState, settings.C(), hasQ && settings.KPI != domain.KPINull)

	isError := pState.Output != nil && math.Abs(*pState.Output) <= degeneratePEpsilon

	return s.resultRow(settings, pState, qState, preP, preQ, hasQ, isError, isPIDInitialized, obsKPI, validAdsNum), nil
}

func (s *Service) isInitPQ(settings domain.Settings, pState, qState domain.State) bool {
	// Dias consecutivos sem aplicação do ML
	if settings.NotMLAppliedDays >= s.config.NotMLAppliedDaysThreshold {
		return true
	}
	if pState.Output == nil {
		return true
	}
	if settings.KPI != domain.KPINull && qState.Output == nil {
		return true
	}
	// A restrição mudou em relação ao dia anterior
	if settings.KPI != settings.YesterdayKPI {
		return true
	}
	return false
}

// initPQ resolve os ganhos iniciais a partir dos lances e valores atuais dos
// anúncios válidos, depois reescala os ganhos do controlador para o primeiro
// passo. Retorna hasQ falso para unidades sem restrição de KPI.
func (s *Service) initPQ(
	today time.Time,
	settings domain.Settings,
	validAds []*domain.Ad,
	actuals []domain.CampaignActual,
	obsCost float64,
	obsKPI *float64,
) (pState, qState domain.State, hasQ bool, err error) {
	unitPeriodCPC := weightedCPCByDate(actuals, today.AddDate(0, 0, -1), cpcPeriodDays)

	bids := make([]float64, len(validAds))
	values := make([]float64, len(validAds))
	costs := make([]float64, len(validAds))
	for i, ad := range validAds {
		lastBid := ad.LastBiddingPrice()
		if lastBid == nil {
			return domain.State{}, domain.State{}, false,
				errors.New("não é possível inicializar p e q: anúncio sem lance atual")
		}
		bid := *lastBid
		if upper := bidCPCLimit(adPeriodCPC(ad), unitPeriodCPC); upper != nil && *upper < bid {
			bid = *upper
		}
		bids[i] = bid

		value := ad.Value(settings.Purpose)
		if value == nil {
			return domain.State{}, domain.State{}, false,
				errors.New("não é possível inicializar p e q: anúncio sem estimativa de valor")
		}
		values[i] = *value

		costs[i] = linearWMA(lastCosts(ad, weeklyCostWindow))
	}

	var sumValues, sumBidValues float64
	for i := range bids {
		sumValues += values[i]
		sumBidValues += bids[i] * values[i]
	}
	if sumValues == 0 || sumBidValues == 0 {
		return domain.State{}, domain.State{}, false,
			errors.New("não é possível inicializar p e q: valores nulos")
	}

	pError := settings.TargetCost - obsCost

	if settings.KPI == domain.KPINull {
		p, err := initializeP(bids, values, costs)
		if err != nil {
			return domain.State{}, domain.State{}, false, err
		}
		pState = tunePIDParams(s.config, domain.NewInitializedState(p), pError)
		return pState, domain.State{}, false, nil
	}

	c := settings.C()
	if c == nil {
		return domain.State{}, domain.State{}, false,
			errors.New("target_kpi_value é obrigatório para inicializar q")
	}
	if obsKPI == nil {
		return domain.State{}, domain.State{}, false,
			errors.New("KPI observado é obrigatório para inicializar q")
	}

	p, q, err := initializePAndQ(bids, values, costs, *c)
	if err != nil {
		return domain.State{}, domain.State{}, false, err
	}

	pState = tunePIDParams(s.config, domain.NewInitializedState(p), pError)
	qState = tunePIDParams(s.config, domain.NewInitializedState(q), *c-*obsKPI)
	return pState, qState, true, nil
}

func (s *Service) skipStateRow(last domain.UnitPerformanceRecord) *domain.PIDResult {
	return &domain.PIDResult{
		Purpose:            last.Purpose,
		TargetKPI:          last.TargetKPI,
		TargetKPIValue:     last.TargetKPIValue,
		TargetCost:         last.TargetCost,
		BaseTargetCost:     last.BaseTargetCost,
		P:                  last.P,
		PKp:                last.PKp,
		PKi:                last.PKi,
		PKd:                last.PKd,
		PError:             last.PError,
		PSumError:          last.PSumError,
		Q:                  last.Q,
		QKp:                last.QKp,
		QKi:                last.QKi,
		QKd:                last.QKd,
		QError:             last.QError,
		QSumError:          last.QSumError,
		IsSkipPIDCalcState: true,
	}
}

func (s *Service) resultRow(
	settings domain.Settings,
	p, q, preP, preQ domain.State,
	hasQ, isError, isPIDInitialized bool,
	obsKPI *float64,
	validAdsNum int,
) *domain.PIDResult {
	row := &domain.PIDResult{
		Purpose:          settings.Purpose,
		TargetKPI:        settings.KPI,
		TargetKPIValue:   settings.TargetKPIValue,
		TargetCost:       settings.TargetCost,
		BaseTargetCost:   settings.BaseTargetCost,
		P:                p.Output,
		PKp:              &p.Kp,
		PKi:              &p.Ki,
		PKd:              &p.Kd,
		PError:           p.Error,
		PSumError:        &p.SumError,
		PreReupdateP:     preP.Output,
		OriginP:          p.OriginalOutput,
		Error:            isError,
		IsUpdated:        true,
		IsPIDInitialized: isPIDInitialized,
		ObsKPI:           obsKPI,
		ValidAdsNum:      validAdsNum,
	}
	if hasQ {
		row.Q = q.Output
		row.QKp = &q.Kp
		row.QKi = &q.Ki
		row.QKd = &q.Kd
		row.QError = q.Error
		row.QSumError = &q.SumError
		row.PreReupdateQ = preQ.Output
		row.OriginQ = q.OriginalOutput
	}
	return row
}

const weeklyCostWindow = 7

// buildAds agrupa os registros por anúncio: as linhas anteriores a hoje formam
// o histórico e a linha de hoje carrega as predições do dia
func buildAds(today time.Time, recs []domain.UnitPerformanceRecord) []*domain.Ad {
	type adKey struct {
		adType string
		adID   int64
	}

	byAd := make(map[adKey]*domain.Ad)
	order := make([]adKey, 0)
	for _, r := range recs {
		key := adKey{adType: r.AdType, adID: r.AdID}
		ad, ok := byAd[key]
		if !ok {
			ad = &domain.Ad{
				CampaignID: r.CampaignID,
				AdType:     r.AdType,
				AdID:       r.AdID,
			}
			byAd[key] = ad
			order = append(order, key)
		}

		date := utils.TruncateToDay(r.Date)
		switch {
		case date.Before(today):
			ad.Performances = append(ad.Performances, domain.Performance{
				Date:         date,
				Impressions:  r.Impressions,
				Clicks:       r.Clicks,
				Conversions:  r.Conversions,
				Sales:        r.Sales,
				Costs:        r.Costs,
				BiddingPrice: r.BiddingPrice,
				CPC:          r.CPC,
				CVR:          r.CVR,
				RPC:          r.RPC,
			})
			ad.IsEnabledBiddingAutoAdjustment = r.IsEnabledBiddingAutoAdjustment
		case date.Equal(today):
			ad.CPCPrediction = r.CPC
			ad.CVRPrediction = r.CVR
			ad.RPCPrediction = r.RPC
		}
	}

	ads := make([]*domain.Ad, 0, len(order))
	for _, key := range order {
		ads = append(ads, byAd[key])
	}
	return ads
}

// aggregateDaily agrega o desempenho diário da unidade somando as métricas de
// todos os anúncios e tirando a média dos lances informados
func aggregateDaily(today time.Time, recs []domain.UnitPerformanceRecord) []domain.Performance {
	type daily struct {
		perf     domain.Performance
		bidSum   float64
		bidCount int
	}

	byDate := make(map[time.Time]*daily)
	for _, r := range recs {
		date := utils.TruncateToDay(r.Date)
		if !date.Before(today) {
			continue
		}
		d, ok := byDate[date]
		if !ok {
			d = &daily{perf: domain.Performance{Date: date}}
			byDate[date] = d
		}
		d.perf.Impressions += r.Impressions
		d.perf.Clicks += r.Clicks
		d.perf.Conversions += r.Conversions
		d.perf.Sales += r.Sales
		d.perf.Costs += r.Costs
		if r.BiddingPrice != nil {
			d.bidSum += *r.BiddingPrice
			d.bidCount++
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	performances := make([]domain.Performance, 0, len(dates))
	for _, date := range dates {
		d := byDate[date]
		if d.bidCount > 0 {
			bid := d.bidSum / float64(d.bidCount)
			d.perf.BiddingPrice = &bid
		}
		performances = append(performances, d.perf)
	}
	return performances
}

func settingsFromRecord(r domain.UnitPerformanceRecord) (domain.Settings, error) {
	return domain.NewSettings(
		r.TargetKPI,
		r.Purpose,
		r.Mode,
		r.BaseTargetCost,
		r.TargetCost,
		r.TargetKPIValue,
		r.NotMLAppliedDays,
		r.YesterdayTargetKPI,
	)
}

func statesFromRecord(r domain.UnitPerformanceRecord) (pState, qState domain.State) {
	pState = domain.NewState()
	pState.Output = r.P
	pState.Error = r.PError
	if r.PSumError != nil {
		pState.SumError = *r.PSumError
	}
	if r.PKp != nil {
		pState.Kp = *r.PKp
	}
	if r.PKi != nil {
		pState.Ki = *r.PKi
	}
	if r.PKd != nil {
		pState.Kd = *r.PKd
	}

	qState = domain.NewState()
	qState.Output = r.Q
	qState.Error = r.QError
	if r.QSumError != nil {
		qState.SumError = *r.QSumError
	}
	if r.QKp != nil {
		qState.Kp = *r.QKp
	}
	if r.QKi != nil {
		qState.Ki = *r.QKi
	}
	if r.QKd != nil {
		qState.Kd = *r.QKd
	}
	return pState, qState
}

// adPeriodCPC estima o CPC do anúncio na janela de duas semanas do histórico
func adPeriodCPC(ad *domain.Ad) float64 {
	clicks := make([]float64, len(ad.Performances))
	costs := make([]float64, len(ad.Performances))
	for i, p := range ad.Performances {
		clicks[i] = p.Clicks
		costs[i] = p.Costs
	}
	return utils.WeightedCPC(cpcPeriodDays, clicks, costs)
}

func lastCosts(ad *domain.Ad, window int) []float64 {
	ps := ad.Performances
	if len(ps) > window {
		ps = ps[len(ps)-window:]
	}
	costs := make([]float64, len(ps))
	for i, p := range ps {
		costs[i] = p.Costs
	}
	return costs
}

func monthlySales(historical []domain.Performance) float64 {
	var sum float64
	for _, p := range historical {
		sum += p.Sales
	}
	return sum
}
