package optimizing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/bid-optimizer-api/infrastructure/repository/mocks"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/bidding"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/budgeting"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/controlling"
)

func newTestService(t *testing.T) (
	*Service,
	*mocks.MockUnitPerformanceRepository,
	*mocks.MockCampaignRepository,
	*mocks.MockAdBiddingRepository,
	*mocks.MockOptimizationRunRepository,
) {
	t.Helper()
	ctrl := gomock.NewController(t)

	unitPerfRepo := mocks.NewMockUnitPerformanceRepository(ctrl)
	campaignRepo := mocks.NewMockCampaignRepository(ctrl)
	adBiddingRepo := mocks.NewMockAdBiddingRepository(ctrl)
	runRepo := mocks.NewMockOptimizationRunRepository(ctrl)

	service := NewService(
		DefaultConfig(),
		unitPerfRepo,
		campaignRepo,
		adBiddingRepo,
		runRepo,
		controlling.NewService(controlling.DefaultConfig()),
		budgeting.NewService(budgeting.DefaultConfig()),
		bidding.NewService(bidding.DefaultConfig()),
	)

	return service, unitPerfRepo, campaignRepo, adBiddingRepo, runRepo
}

func TestRun(t *testing.T) {
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("executa as três etapas e grava o resumo", func(t *testing.T) {
		service, unitPerfRepo, campaignRepo, adBiddingRepo, runRepo := newTestService(t)

		campaignRepo.EXPECT().GetActualsByDateRange(gomock.Any(), gomock.Any()).
			Return([]domain.CampaignActual{}, nil)
		unitPerfRepo.EXPECT().GetByDateRange(gomock.Any(), gomock.Any()).
			Return([]domain.UnitPerformanceRecord{}, nil)
		unitPerfRepo.EXPECT().SavePIDResults(gomock.Any(), gomock.Any()).Return(nil)
		campaignRepo.EXPECT().GetBudgetRecordsByDate(today).
			Return([]domain.CampaignBudgetRecord{}, nil)
		campaignRepo.EXPECT().GetDailyActualsByDateRange(gomock.Any(), gomock.Any()).
			Return([]domain.CampaignDailyActual{}, nil)
		adBiddingRepo.EXPECT().GetBidRecordsByDateRange(gomock.Any(), gomock.Any()).
			Return([]domain.AdBidRecord{}, nil)
		campaignRepo.EXPECT().SaveDailyBudgets(gomock.Any(), gomock.Any()).Return(nil)
		adBiddingRepo.EXPECT().SaveBiddingResults(gomock.Any(), gomock.Any()).Return(nil)

		var saved *domain.OptimizationRunSummary
		runRepo.EXPECT().Save(gomock.Any()).DoAndReturn(func(summary *domain.OptimizationRunSummary) error {
			saved = summary
			return nil
		})

		summary, err := service.Run(context.Background(), today)
		require.NoError(t, err)
		require.NotNil(t, summary)

		assert.True(t, strings.HasPrefix(summary.RunID, "20250315-"))
		assert.Equal(t, today, summary.Date)
		assert.Equal(t, 0, summary.Units)
		assert.Equal(t, 0, summary.PIDRows)
		assert.Equal(t, 0, summary.BudgetRows)
		assert.Equal(t, 0, summary.BiddingRows)
		assert.False(t, summary.CompletedAt.Before(summary.StartedAt))
		assert.Equal(t, saved, summary)
	})

	t.Run("propaga a falha de carga dos atuais", func(t *testing.T) {
		service, _, campaignRepo, _, _ := newTestService(t)

		campaignRepo.EXPECT().GetActualsByDateRange(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("conexão recusada"))

		summary, err := service.Run(context.Background(), today)
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.Contains(t, err.Error(), "atuais das campanhas")
	})

	t.Run("interrompe a execução com contexto cancelado", func(t *testing.T) {
		service, unitPerfRepo, campaignRepo, _, _ := newTestService(t)

		campaignRepo.EXPECT().GetActualsByDateRange(gomock.Any(), gomock.Any()).
			Return([]domain.CampaignActual{}, nil)
		unitPerfRepo.EXPECT().GetByDateRange(gomock.Any(), gomock.Any()).
			Return([]domain.UnitPerformanceRecord{}, nil)
		unitPerfRepo.EXPECT().SavePIDResults(gomock.Any(), gomock.Any()).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary, err := service.Run(ctx, today)
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.Contains(t, err.Error(), "cancelada")
	})
}

func TestApplyGains(t *testing.T) {
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	p := 0.4
	q := 0.2
	targetValue := 2.0

	unit := domain.UnitKey{AdvertisingAccountID: 1}
	records := []domain.AdBidRecord{
		{UnitKey: unit, AdID: 10, Date: yesterday},
		{UnitKey: unit, AdID: 10, Date: today},
		{UnitKey: domain.UnitKey{AdvertisingAccountID: 2}, AdID: 20, Date: today},
	}
	pidResults := []domain.PIDResult{
		{
			UnitKey:        unit,
			Date:           today,
			Purpose:        domain.PurposeConversion,
			TargetKPI:      domain.KPICPA,
			TargetKPIValue: &targetValue,
			TargetCost:     300,
			BaseTargetCost: 300,
			P:              &p,
			Q:              &q,
		},
	}

	applyGains(records, pidResults, today)

	// Linha histórica permanece intacta
	assert.Nil(t, records[0].P)
	assert.Nil(t, records[0].C)

	require.NotNil(t, records[1].P)
	assert.Equal(t, p, *records[1].P)
	require.NotNil(t, records[1].Q)
	assert.Equal(t, q, *records[1].Q)
	require.NotNil(t, records[1].C)
	assert.Equal(t, targetValue, *records[1].C)
	assert.Equal(t, domain.KPICPA, records[1].TargetKPI)
	assert.Equal(t, domain.PurposeConversion, records[1].Purpose)
	assert.Equal(t, 300.0, records[1].TargetCost)

	// Unidade sem resultado do controlador mantém os valores de entrada
	assert.Nil(t, records[2].P)
}

func TestCountUnits(t *testing.T) {
	unitA := domain.UnitKey{AdvertisingAccountID: 1}
	unitB := domain.UnitKey{AdvertisingAccountID: 2}

	count := countUnits(
		[]domain.PIDResult{{UnitKey: unitA}},
		[]domain.DailyBudgetResult{{UnitKey: unitA}, {UnitKey: unitB}},
		[]domain.BiddingResult{{UnitKey: unitB}},
	)

	assert.Equal(t, 2, count)
}
