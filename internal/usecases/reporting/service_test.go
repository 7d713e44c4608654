package reporting

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/bid-optimizer-api/infrastructure/repository/mocks"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

func TestReporter(t *testing.T) {
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("retorna os resultados do controlador da data", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		unitPerfRepo := mocks.NewMockUnitPerformanceRepository(ctrl)
		service := NewService(unitPerfRepo, nil, nil, nil)

		unitPerfRepo.EXPECT().GetPIDResultsByDate(date).
			Return([]domain.PIDResult{{Date: date}}, nil)

		results, err := service.PIDResultsByDate(date)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("encapsula a falha da consulta de orçamentos", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		campaignRepo := mocks.NewMockCampaignRepository(ctrl)
		service := NewService(nil, campaignRepo, nil, nil)

		campaignRepo.EXPECT().GetDailyBudgetsByDate(date).
			Return(nil, errors.New("timeout"))

		results, err := service.DailyBudgetsByDate(date)
		require.Error(t, err)
		assert.Nil(t, results)
		assert.Contains(t, err.Error(), "orçamentos diários")
	})

	t.Run("retorna nil quando nenhuma execução foi registrada", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runRepo := mocks.NewMockOptimizationRunRepository(ctrl)
		service := NewService(nil, nil, nil, runRepo)

		runRepo.EXPECT().GetLatest().Return(nil, nil)

		summary, err := service.LatestRun()
		require.NoError(t, err)
		assert.Nil(t, summary)
	})

	t.Run("retorna os lances da data", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		adBiddingRepo := mocks.NewMockAdBiddingRepository(ctrl)
		service := NewService(nil, nil, adBiddingRepo, nil)

		adBiddingRepo.EXPECT().GetResultsByDate(date).
			Return([]domain.BiddingResult{{AdID: 10, BiddingPrice: 2.0}}, nil)

		results, err := service.BiddingResultsByDate(date)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 2.0, results[0].BiddingPrice)
	})
}
