package budgeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

type unitFixture struct {
	records []domain.CampaignBudgetRecord
	daily   []domain.CampaignDailyActual
	actuals []domain.CampaignActual
}

// twoCampaignsFixture monta uma unidade com duas campanhas ativas: a segunda
// com o dobro de custo e de cliques da primeira
func twoCampaignsFixture(today time.Time) unitFixture {
	unitKey := domain.UnitKey{AdvertisingAccountID: 1}

	record := func(campaignID int64, yesterdayCosts float64, yesterdayBudget float64) domain.CampaignBudgetRecord {
		return domain.CampaignBudgetRecord{
			UnitKey:                unitKey,
			CampaignID:             campaignID,
			Date:                   today,
			YesterdayCosts:         yesterdayCosts,
			Purpose:                domain.PurposeClick,
			Mode:                   domain.ModeBudget,
			OptimizationCosts:      9000,
			RemainingDays:          16,
			TodayTargetCost:        300,
			TodayNoboostTargetCost: 300,
			YesterdayTargetCost:    300,
			IdealTargetCost:        300,
			YesterdayDailyBudget:   floatPtr(yesterdayBudget),
			MinimumDailyBudget:     1,
			MaximumDailyBudget:     10000,
			TodayCoefficient:       1.0,
			YesterdayCoefficient:   1.0,
		}
	}

	fixture := unitFixture{
		records: []domain.CampaignBudgetRecord{
			record(1, 100, 120),
			record(2, 200, 240),
		},
	}

	for i := 7; i >= 1; i-- {
		date := today.AddDate(0, 0, -i)
		fixture.daily = append(fixture.daily,
			domain.CampaignDailyActual{UnitKey: unitKey, CampaignID: 1, Date: date, Clicks: 50, Costs: 100},
			domain.CampaignDailyActual{UnitKey: unitKey, CampaignID: 2, Date: date, Clicks: 100, Costs: 200},
		)
		fixture.actuals = append(fixture.actuals,
			domain.CampaignActual{UnitKey: unitKey, CampaignID: 1, Date: date, Clicks: 50, Costs: 100},
			domain.CampaignActual{UnitKey: unitKey, CampaignID: 2, Date: date, Clicks: 100, Costs: 200},
		)
	}

	return fixture
}

func TestServiceCalc(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	service := NewService(DefaultConfig())

	t.Run("Duas campanhas ativas - orçamento proporcional ao custo", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		require.Len(t, results, 2)

		byCampaign := make(map[int64]domain.DailyBudgetResult)
		for _, r := range results {
			byCampaign[r.CampaignID] = r
		}

		first := byCampaign[1]
		second := byCampaign[2]

		// Pesos iniciais 1/3 e 2/3 pela participação no custo da unidade
		require.NotNil(t, first.Weight)
		require.NotNil(t, second.Weight)
		assert.InDelta(t, 1.0, *first.Weight+*second.Weight, 1e-9)
		assert.Greater(t, *second.Weight, *first.Weight)

		// Sem margem na unidade o teto é o peso vezes o alvo do dia
		assert.Equal(t, int64(100), first.DailyBudgetUpper)
		assert.Equal(t, int64(199), second.DailyBudgetUpper)

		require.NotNil(t, first.HasPotential)
		assert.True(t, *first.HasPotential)
		require.NotNil(t, first.TotalExpectedCost)
		assert.InDelta(t, 300.0, *first.TotalExpectedCost, 1e-9)
		assert.False(t, first.IsDailyBudgetUndecidableUnit)
		assert.InDelta(t, 2.0, first.UnitWeeklyCPCForCap, 1e-9)
	})

	t.Run("Campanha única - peso um", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)
		fixture.records = fixture.records[:1]

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		require.Len(t, results, 1)

		require.NotNil(t, results[0].Weight)
		assert.InDelta(t, 1.0, *results[0].Weight, 1e-9)
	})

	t.Run("Orçamento do mês esgotado - teto no mínimo configurado", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)
		for i := range fixture.records {
			fixture.records[i].TodayTargetCost = 0
		}

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		require.Len(t, results, 2)

		for _, r := range results {
			assert.Equal(t, int64(1), r.DailyBudgetUpper)
		}
	})

	t.Run("Unidade sem cliques na semana - orçamento do dia anterior mantido", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)
		for i := range fixture.actuals {
			fixture.actuals[i].Clicks = 0
		}

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		require.Len(t, results, 2)

		byCampaign := make(map[int64]domain.DailyBudgetResult)
		for _, r := range results {
			byCampaign[r.CampaignID] = r
		}
		assert.True(t, byCampaign[1].IsDailyBudgetUndecidableUnit)
		assert.Equal(t, int64(120), byCampaign[1].DailyBudgetUpper)
		assert.Equal(t, int64(240), byCampaign[2].DailyBudgetUpper)
	})

	t.Run("Campanha sem atividade recente é descartada", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)
		// Move todo o histórico da campanha 2 para fora da janela de critério
		for i := range fixture.daily {
			if fixture.daily[i].CampaignID == 2 {
				fixture.daily[i].Date = fixture.daily[i].Date.AddDate(0, 0, -30)
			}
		}

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, int64(1), results[0].CampaignID)
	})

	t.Run("Unidade sem campanhas ativas - nenhuma linha gerada", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)

		results, err := service.Calc(today, fixture.records, nil, fixture.actuals)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Desempenho ruim - orçamento não sobe além do dia anterior", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)
		for i := range fixture.records {
			fixture.records[i].Mode = domain.ModeKPI
			fixture.records[i].C = floatPtr(2.0)
			fixture.records[i].UnitExObservedC = floatPtr(3.0)
			fixture.records[i].UnitWeeklyEmaCosts = 300
			fixture.records[i].CampaignWeeklyEmaCosts = 100
			fixture.records[i].CampaignObservedCYesterdayInMonth = floatPtr(3.0)
		}
		fixture.records[0].YesterdayDailyBudget = floatPtr(90)

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		require.Len(t, results, 2)

		byCampaign := make(map[int64]domain.DailyBudgetResult)
		for _, r := range results {
			byCampaign[r.CampaignID] = r
		}
		// Sem o clip o teto da campanha 1 seria o peso vezes o alvo (~100)
		assert.Equal(t, int64(90), byCampaign[1].DailyBudgetUpper)
	})

	t.Run("Limite máximo configurado prevalece", func(t *testing.T) {
		fixture := twoCampaignsFixture(today)
		for i := range fixture.records {
			fixture.records[i].MaximumDailyBudget = 50
		}

		results, err := service.Calc(today, fixture.records, fixture.daily, fixture.actuals)
		require.NoError(t, err)
		for _, r := range results {
			assert.LessOrEqual(t, r.DailyBudgetUpper, int64(50))
		}
	})
}

func TestUnitWeeklyCPCForCap(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	unitKey := domain.UnitKey{AdvertisingAccountID: 1}

	t.Run("Janela inclui o dia corrente", func(t *testing.T) {
		actuals := []domain.CampaignActual{
			{UnitKey: unitKey, CampaignID: 1, Date: today, Clicks: 10, Costs: 30},
			{UnitKey: unitKey, CampaignID: 1, Date: today.AddDate(0, 0, -7), Clicks: 10, Costs: 10},
			{UnitKey: unitKey, CampaignID: 1, Date: today.AddDate(0, 0, -8), Clicks: 100, Costs: 900},
		}
		assert.InDelta(t, 2.0, unitWeeklyCPCForCap(actuals, today), 1e-9)
	})

	t.Run("Sem cliques retorna zero", func(t *testing.T) {
		actuals := []domain.CampaignActual{
			{UnitKey: unitKey, CampaignID: 1, Date: today, Clicks: 0, Costs: 30},
		}
		assert.Zero(t, unitWeeklyCPCForCap(actuals, today))
	})
}

func TestLastWeekMaxCosts(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	unitKey := domain.UnitKey{AdvertisingAccountID: 1}

	daily := make([]domain.CampaignDailyActual, 0, 10)
	for i := 10; i >= 1; i-- {
		daily = append(daily, domain.CampaignDailyActual{
			UnitKey:    unitKey,
			CampaignID: 1,
			Date:       today.AddDate(0, 0, -i),
			Costs:      float64(i * 10),
		})
	}

	// Fora da janela de 7 dias ficam os custos mais altos (100, 90, 80)
	assert.InDelta(t, 70.0, lastWeekMaxCosts(daily, 7), 1e-9)
}
