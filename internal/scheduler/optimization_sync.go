package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/bid-optimizer-api/internal/config"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/optimizing"
	"github.com/vfg2006/bid-optimizer-api/pkg/utils"
)

// OptimizationSyncConfig representa a configuração do agendador do otimizador
type OptimizationSyncConfig struct {
	CronSchedule string
	SyncEnabled  bool
}

// OptimizationSyncService gerencia o agendamento e execução do ciclo diário
// de otimização
type OptimizationSyncService struct {
	scheduler           *gocron.Scheduler
	config              OptimizationSyncConfig
	appConfig           *config.Config
	optimizer           optimizing.Optimizer
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastRunID           string
}

// NewOptimizationSyncService cria uma nova instância do serviço de agendamento do otimizador
func NewOptimizationSyncService(
	optimizer optimizing.Optimizer,
	appConfig *config.Config,
) *OptimizationSyncService {
	// Criar a configuração com base na config global
	syncConfig := OptimizationSyncConfig{
		CronSchedule: appConfig.OptimizationSync.CronSchedule,
		SyncEnabled:  appConfig.OptimizationSync.Enabled,
	}

	// Criar o agendador
	scheduler := gocron.NewScheduler(time.Local)

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"sync_enabled":  syncConfig.SyncEnabled,
	}).Info("Configuração do agendador do otimizador carregada")

	return &OptimizationSyncService{
		scheduler:   scheduler,
		config:      syncConfig,
		appConfig:   appConfig,
		optimizer:   optimizer,
		syncRunning: false,
	}
}

// Start inicia o agendador
func (s *OptimizationSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Execução agendada do otimizador desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador do otimizador")

	// Agendar a execução diária
	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.runOptimization(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar execução do otimizador: %w", err)
	}

	// Executar o agendador em uma goroutine separada
	s.scheduler.StartAsync()

	// Configurar o cancelamento do agendador quando o contexto for cancelado
	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador do otimizador")
		s.scheduler.Stop()
	}()

	return nil
}

// runOptimization executa o ciclo completo de otimização para o dia corrente
func (s *OptimizationSyncService) runOptimization(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Execução do otimizador já em andamento, ignorando")
		return
	}
	s.syncRunning = true
	s.syncMutex.Unlock()

	startTime := time.Now()
	s.lastSyncStartedAt = startTime

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	today := utils.TruncateToDay(time.Now())
	logrus.WithField("date", today.Format(time.DateOnly)).Info("Iniciando execução agendada do otimizador")

	summary, err := s.optimizer.Run(ctx, today)
	if err != nil {
		logrus.WithError(err).Error("Erro na execução agendada do otimizador")
		return
	}

	s.lastRunID = summary.RunID
	s.lastSyncCompletedAt = time.Now()

	logrus.WithFields(logrus.Fields{
		"run_id":       summary.RunID,
		"units":        summary.Units,
		"pid_rows":     summary.PIDRows,
		"budget_rows":  summary.BudgetRows,
		"bidding_rows": summary.BiddingRows,
		"duration":     time.Since(startTime).String(),
	}).Info("Execução agendada do otimizador concluída")
}

// TriggerManualSync inicia manualmente uma execução do otimizador
func (s *OptimizationSyncService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Execução do otimizador já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando execução manual do otimizador")
	go s.runOptimization(context.Background())
}

// GetStatus retorna o status atual do agendador
func (s *OptimizationSyncService) GetStatus() map[string]any {
	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_running":           s.syncRunning,
		"last_run_id":            s.lastRunID,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
