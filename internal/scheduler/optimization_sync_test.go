package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vfg2006/bid-optimizer-api/internal/config"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/optimizing/mocks"
)

func newSyncService(t *testing.T, enabled bool) (*OptimizationSyncService, *mocks.MockOptimizer) {
	t.Helper()
	ctrl := gomock.NewController(t)
	optimizer := mocks.NewMockOptimizer(ctrl)

	cfg := &config.Config{
		OptimizationSync: config.OptimizationSync{
			CronSchedule: "0 5 * * *",
			Enabled:      enabled,
		},
	}

	return NewOptimizationSyncService(optimizer, cfg), optimizer
}

func TestOptimizationSyncService(t *testing.T) {
	t.Run("executa o otimizador e registra a última execução", func(t *testing.T) {
		service, optimizer := newSyncService(t, true)

		summary := &domain.OptimizationRunSummary{
			RunID:       "20250315-abc123",
			Units:       3,
			PIDRows:     3,
			BudgetRows:  7,
			BiddingRows: 20,
		}
		optimizer.EXPECT().Run(gomock.Any(), gomock.Any()).Return(summary, nil)

		service.runOptimization(context.Background())

		assert.Equal(t, "20250315-abc123", service.lastRunID)
		assert.False(t, service.lastSyncCompletedAt.IsZero())
		assert.False(t, service.syncRunning)
	})

	t.Run("não registra conclusão quando o otimizador falha", func(t *testing.T) {
		service, optimizer := newSyncService(t, true)

		optimizer.EXPECT().Run(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("banco indisponível"))

		service.runOptimization(context.Background())

		assert.Empty(t, service.lastRunID)
		assert.True(t, service.lastSyncCompletedAt.IsZero())
		assert.False(t, service.syncRunning)
	})

	t.Run("executa com a data do dia no fuso local", func(t *testing.T) {
		service, optimizer := newSyncService(t, true)

		var got time.Time
		optimizer.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, today time.Time) (*domain.OptimizationRunSummary, error) {
				got = today
				return &domain.OptimizationRunSummary{RunID: "20250315-loc001"}, nil
			})

		before := time.Now()
		service.runOptimization(context.Background())
		after := time.Now()

		assert.Equal(t, 0, got.Hour())
		assert.Equal(t, 0, got.Minute())
		assert.Equal(t, time.Local, got.Location())

		wantBefore := time.Date(before.Year(), before.Month(), before.Day(), 0, 0, 0, 0, before.Location())
		wantAfter := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, after.Location())
		assert.True(t, got.Equal(wantBefore) || got.Equal(wantAfter))
	})

	t.Run("ignora execução quando outra já está em andamento", func(t *testing.T) {
		service, _ := newSyncService(t, true)

		service.syncRunning = true
		service.runOptimization(context.Background())

		assert.True(t, service.syncRunning)
	})

	t.Run("não agenda quando desabilitado por configuração", func(t *testing.T) {
		service, _ := newSyncService(t, false)

		err := service.Start(context.Background())
		require.NoError(t, err)

		status := service.GetStatus()
		assert.Equal(t, false, status["sync_enabled"])
	})

	t.Run("expõe o status do agendador", func(t *testing.T) {
		service, optimizer := newSyncService(t, true)

		optimizer.EXPECT().Run(gomock.Any(), gomock.Any()).
			Return(&domain.OptimizationRunSummary{RunID: "20250315-xyz789"}, nil)
		service.runOptimization(context.Background())

		status := service.GetStatus()
		assert.Equal(t, true, status["sync_enabled"])
		assert.Equal(t, "0 5 * * *", status["sync_cron"])
		assert.Equal(t, "20250315-xyz789", status["last_run_id"])
		assert.IsType(t, time.Time{}, status["last_sync_started_at"])
	})
}
