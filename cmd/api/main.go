package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/bid-optimizer-api/infrastructure/database/postgres"
	"github.com/vfg2006/bid-optimizer-api/infrastructure/repository"
	"github.com/vfg2006/bid-optimizer-api/internal/api"
	"github.com/vfg2006/bid-optimizer-api/internal/config"
	"github.com/vfg2006/bid-optimizer-api/internal/scheduler"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/authenticating"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/bidding"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/budgeting"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/controlling"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/optimizing"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/reporting"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	userRepo := repository.NewUserRepository(pgConn)
	unitPerfRepo := repository.NewUnitPerformanceRepository(pgConn)
	campaignRepo := repository.NewCampaignRepository(pgConn)
	adBiddingRepo := repository.NewAdBiddingRepository(pgConn)
	runRepo := repository.NewOptimizationRunRepository(pgConn)

	authenticator := authenticating.NewService(userRepo, cfg)

	// Calculadores das três etapas de otimização
	controller := controlling.NewService(controlling.DefaultConfig())
	allocator := budgeting.NewService(budgeting.DefaultConfig())
	bidder := bidding.NewService(bidding.DefaultConfig())

	optimizerConfig := optimizing.DefaultConfig()
	if cfg.OptimizationSync.PIDLookbackDays > 0 {
		optimizerConfig.PIDLookbackDays = cfg.OptimizationSync.PIDLookbackDays
	}
	if cfg.OptimizationSync.ActualsLookbackDays > 0 {
		optimizerConfig.ActualsLookbackDays = cfg.OptimizationSync.ActualsLookbackDays
	}
	if cfg.OptimizationSync.BiddingLookbackDays > 0 {
		optimizerConfig.BiddingLookbackDays = cfg.OptimizationSync.BiddingLookbackDays
	}
	if cfg.OptimizationSync.BiddingAlgorithm != "" {
		optimizerConfig.BiddingAlgorithm = cfg.OptimizationSync.BiddingAlgorithm
	}

	optimizer := optimizing.NewService(
		optimizerConfig,
		unitPerfRepo,
		campaignRepo,
		adBiddingRepo,
		runRepo,
		controller,
		allocator,
		bidder,
	)

	reporter := reporting.NewService(
		unitPerfRepo,
		campaignRepo,
		adBiddingRepo,
		runRepo,
	)

	// Inicializa o agendador da rotina diária de otimização
	optimizationSyncService := scheduler.NewOptimizationSyncService(optimizer, cfg)

	if err := optimizationSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de otimização")
	} else {
		logrus.Info("Agendador de otimização iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		authenticator,
		reporter,
		optimizationSyncService,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
