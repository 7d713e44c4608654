package bidding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

type adFixture struct {
	records []domain.AdBidRecord
	actuals []domain.CampaignActual
}

// singleAdFixture monta um anúncio com sete dias de histórico e a linha do
// dia corrente com as predições e os ganhos da unidade
func singleAdFixture(today time.Time, dailyClicks, dailyImpressions float64) adFixture {
	unitKey := domain.UnitKey{AdvertisingAccountID: 1}

	base := domain.AdBidRecord{
		UnitKey:                        unitKey,
		CampaignID:                     1,
		AdType:                         "product",
		AdID:                           100,
		IsEnabledBiddingAutoAdjustment: true,
		Purpose:                        domain.PurposeClick,
		TargetKPI:                      domain.KPINull,
		Mode:                           domain.ModeBudget,
		TargetCost:                     100,
		BaseTargetCost:                 100,
		MinimumBiddingPrice:            0.02,
		MaximumBiddingPrice:            1000,
		RoundUpPoint:                   2,
	}

	fixture := adFixture{}
	for i := 7; i >= 1; i-- {
		r := base
		r.Date = today.AddDate(0, 0, -i)
		r.Impressions = dailyImpressions
		r.Clicks = dailyClicks
		r.Costs = dailyClicks // CPC histórico de 1.0
		r.BiddingPrice = floatPtr(1.9)
		fixture.records = append(fixture.records, r)
	}

	prediction := base
	prediction.Date = today
	prediction.CPC = floatPtr(1.25)
	prediction.CVR = floatPtr(0.1)
	prediction.RPC = floatPtr(5.0)
	prediction.P = floatPtr(0.4)
	fixture.records = append(fixture.records, prediction)

	for i := 14; i >= 1; i-- {
		fixture.actuals = append(fixture.actuals, domain.CampaignActual{
			UnitKey:     unitKey,
			CampaignID:  1,
			Date:        today.AddDate(0, 0, -i),
			Clicks:      100,
			Conversions: 5,
			Sales:       500,
			Costs:       100,
		})
	}

	return fixture
}

func TestServiceCalc(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	service := NewService(DefaultConfig())

	t.Run("Anúncio com cliques - lance calculado pelos ganhos da unidade", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.True(t, row.IsMLApplied)
		assert.False(t, row.IsProvisionalBidding)
		assert.False(t, row.HasException)
		// v = 1/1.25 = 0.8; lance bruto = v/p = 0.8/0.4 = 2.0
		require.NotNil(t, row.OriginBiddingPrice)
		assert.InDelta(t, 2.0, *row.OriginBiddingPrice, 1e-9)
		assert.InDelta(t, 2.0, row.BiddingPrice, 1e-9)
		require.NotNil(t, row.UnitCPC)
		assert.InDelta(t, 1.0, *row.UnitCPC, 1e-9)
		assert.Equal(t, "v1", row.BiddingAlgorithm)
	})

	t.Run("Lance bruto acima da banda - limitado pela variação diária", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		fixture.records[len(fixture.records)-1].P = floatPtr(0.001)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		// Teto da banda: 1.9 * 1.2 = 2.28, arredondado para cima
		assert.InDelta(t, 2.3, results[0].BiddingPrice, 1e-9)
	})

	t.Run("Teto de CPC abaixo da banda prevalece", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		for i := range fixture.records {
			if fixture.records[i].BiddingPrice != nil {
				fixture.records[i].BiddingPrice = floatPtr(10.0)
			}
		}
		fixture.records[len(fixture.records)-1].P = floatPtr(0.001)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		// CPC do anúncio e da unidade em 1.0: teto 3.0 abaixo de 10 * 1.2
		assert.InDelta(t, 3.0, results[0].BiddingPrice, 1e-9)
	})

	t.Run("Anúncio sem cliques e poucas impressões - reforço pela regra", func(t *testing.T) {
		fixture := singleAdFixture(today, 0, 5)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.False(t, row.IsMLApplied)
		// 1.9 * 1.1 = 2.09, arredondado para cima
		assert.InDelta(t, 2.1, row.BiddingPrice, 1e-9)
		assert.Nil(t, row.OriginBiddingPrice)
	})

	t.Run("Anúncio sem cliques e impressões suficientes - lance mantido", func(t *testing.T) {
		fixture := singleAdFixture(today, 0, 1000)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 1.9, results[0].BiddingPrice, 1e-9)
	})

	t.Run("Ganho p zerado - lance anterior mantido com exceção", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		fixture.records[len(fixture.records)-1].P = floatPtr(0)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.True(t, row.HasException)
		assert.InDelta(t, 1.9, row.BiddingPrice, 1e-9)
	})

	t.Run("Conversão sem sinal - valor provisório", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		for i := range fixture.records {
			fixture.records[i].Purpose = domain.PurposeConversion
			fixture.records[i].Conversions = 0
		}
		last := len(fixture.records) - 1
		fixture.records[last].P = floatPtr(0.001)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		row := results[0]
		assert.True(t, row.IsProvisionalBidding)
		assert.False(t, row.HasException)
		require.NotNil(t, row.SumClickLastFourWeeks)
		assert.InDelta(t, 70.0, *row.SumClickLastFourWeeks, 1e-9)
		require.NotNil(t, row.CPCLastFourWeeks)
		assert.InDelta(t, 1.0, *row.CPCLastFourWeeks, 1e-9)
		require.NotNil(t, row.AdValue)
		assert.Greater(t, *row.AdValue, 0.0)
	})

	t.Run("Desempenho ruim - lance não sobe além do dia anterior", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		last := len(fixture.records) - 1
		fixture.records[last].Mode = domain.ModeKPI
		fixture.records[last].C = floatPtr(1.0)
		fixture.records[last].UnitExObservedC = floatPtr(2.0)
		fixture.records[last].UnitWeeklyEmaCosts = 100
		fixture.records[last].AdWeeklyEmaCosts = 10
		fixture.records[last].AdObservedCYesterdayInMonth = floatPtr(2.0)

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)

		// Sem o clip o lance seria 2.0
		assert.InDelta(t, 1.9, results[0].BiddingPrice, 1e-9)
	})

	t.Run("Anúncio com ajuste automático desabilitado é ignorado", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		for i := range fixture.records {
			fixture.records[i].IsEnabledBiddingAutoAdjustment = false
		}

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Entrada vazia - resultado vazio", func(t *testing.T) {
		results, err := service.Calc(today, nil, nil, "v1")
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Lance respeita o mínimo e o máximo configurados", func(t *testing.T) {
		fixture := singleAdFixture(today, 10, 1000)
		last := len(fixture.records) - 1
		fixture.records[last].MaximumBiddingPrice = 1.5

		results, err := service.Calc(today, fixture.records, fixture.actuals, "v1")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 1.5, results[0].BiddingPrice, 1e-9)
	})
}
