package controlling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

// unitRecords monta o histórico de um anúncio com cliques e custos diários
// constantes, mais a linha de hoje com as predições do dia
func unitRecords(today time.Time, days int, base domain.UnitPerformanceRecord) []domain.UnitPerformanceRecord {
	recs := make([]domain.UnitPerformanceRecord, 0, days+1)
	for i := days; i >= 1; i-- {
		r := base
		r.Date = today.AddDate(0, 0, -i)
		r.Impressions = 1000
		r.Clicks = 100
		r.Conversions = 10
		r.Sales = 500
		r.Costs = 120
		r.BiddingPrice = floatPtr(2.0)
		r.CPC = nil
		r.CVR = nil
		r.RPC = nil
		recs = append(recs, r)
	}

	prediction := base
	prediction.Date = today
	prediction.CPC = floatPtr(1.2)
	prediction.CVR = floatPtr(0.1)
	prediction.RPC = floatPtr(5.0)
	recs = append(recs, prediction)

	return recs
}

func TestServiceCalc(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	unitKey := domain.UnitKey{AdvertisingAccountID: 1}

	base := domain.UnitPerformanceRecord{
		UnitKey:                        unitKey,
		CampaignID:                     10,
		AdType:                         "product",
		AdID:                           100,
		IsEnabledBiddingAutoAdjustment: true,
		Mode:                           domain.ModeBudget,
		TargetKPI:                      domain.KPINull,
		YesterdayTargetKPI:             domain.KPINull,
		Purpose:                        domain.PurposeClick,
		BaseTargetCost:                 100,
		TargetCost:                     100,
		P:                              floatPtr(1.0),
	}

	service := NewService(DefaultConfig())

	t.Run("Unidade sem restrição de KPI - apenas p é atualizado", func(t *testing.T) {
		recs := unitRecords(today, 8, base)

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.Equal(t, unitKey, row.UnitKey)
		assert.True(t, row.Date.Equal(today))
		require.NotNil(t, row.P)
		// Custo observado 120 contra alvo 100: p sobe até o teto da banda
		assert.InDelta(t, 1.5, *row.P, 1e-9)
		assert.Nil(t, row.Q)
		assert.True(t, row.IsUpdated)
		assert.False(t, row.IsPIDInitialized)
		assert.False(t, row.IsSkipPIDCalcState)
		assert.False(t, row.Error)
		assert.Equal(t, 1, row.ValidAdsNum)
		assert.Nil(t, row.ObsKPI)
	})

	t.Run("Unidade com restrição de CPC - par reconciliado sobre a variedade", func(t *testing.T) {
		b := base
		b.TargetKPI = domain.KPICPC
		b.YesterdayTargetKPI = domain.KPICPC
		b.TargetKPIValue = floatPtr(2.0)
		b.Q = floatPtr(1.0)
		b.UnitExObservedC = floatPtr(1.0)
		recs := unitRecords(today, 8, b)

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		require.NotNil(t, row.P)
		require.NotNil(t, row.Q)
		assert.InDelta(t, 2.0, 1/(2**row.P)-1/(2**row.Q), 1e-9)
		require.NotNil(t, row.ObsKPI)
		// CPC observado de ontem: 120 / 100
		assert.InDelta(t, 1.2, *row.ObsKPI, 1e-9)
		require.NotNil(t, row.PreReupdateP)
		require.NotNil(t, row.PreReupdateQ)
	})

	t.Run("target_cost zerado - estado do dia anterior é mantido", func(t *testing.T) {
		b := base
		b.TargetCost = 0
		recs := unitRecords(today, 8, b)

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.True(t, row.IsSkipPIDCalcState)
		assert.False(t, row.IsUpdated)
		require.NotNil(t, row.P)
		assert.Equal(t, 1.0, *row.P)
	})

	t.Run("Todos os lances nulos - nenhuma linha gerada", func(t *testing.T) {
		recs := unitRecords(today, 8, base)
		for i := range recs {
			recs[i].BiddingPrice = nil
		}

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Nenhum anúncio válido - nenhuma linha gerada", func(t *testing.T) {
		b := base
		b.IsEnabledBiddingAutoAdjustment = false
		recs := unitRecords(today, 8, b)

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Anúncio sem predições não é válido", func(t *testing.T) {
		recs := unitRecords(today, 8, base)
		// Remove a linha de predições do dia
		recs = recs[:len(recs)-1]

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Sem p anterior - ganhos inicializados a partir dos anúncios", func(t *testing.T) {
		b := base
		b.P = nil
		recs := unitRecords(today, 8, b)
		actuals := []domain.CampaignActual{
			{UnitKey: unitKey, CampaignID: 10, Date: today.AddDate(0, 0, -1), Clicks: 100, Costs: 120},
		}

		results, err := service.Calc(today, recs, actuals)
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.True(t, row.IsPIDInitialized)
		require.NotNil(t, row.P)
		assert.Greater(t, *row.P, 0.0)
	})

	t.Run("Falha em uma unidade não interrompe as demais", func(t *testing.T) {
		good := unitRecords(today, 8, base)

		badKey := domain.UnitKey{AdvertisingAccountID: 2}
		b := base
		b.UnitKey = badKey
		b.TargetCost = -1 // configuração inválida
		bad := unitRecords(today, 8, b)

		results, err := service.Calc(today, append(bad, good...), nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, unitKey, results[0].UnitKey)
	})

	t.Run("Unidades agrupadas por portfólio", func(t *testing.T) {
		portfolioID := int64(7)
		b := base
		b.UnitKey = domain.UnitKey{AdvertisingAccountID: 1, PortfolioID: &portfolioID}
		recs := unitRecords(today, 8, b)

		results, err := service.Calc(today, recs, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.NotNil(t, results[0].PortfolioID)
		assert.Equal(t, portfolioID, *results[0].PortfolioID)
	})
}
