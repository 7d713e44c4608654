package optimizing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vfg2006/bid-optimizer-api/infrastructure/repository"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/bidding"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/budgeting"
	"github.com/vfg2006/bid-optimizer-api/internal/usecases/controlling"
	"github.com/vfg2006/bid-optimizer-api/pkg/log"
	"github.com/vfg2006/bid-optimizer-api/pkg/utils"
)

// Optimizer executa o ciclo diário completo: ganhos por unidade, orçamento
// por campanha e lance por anúncio
type Optimizer interface {
	Run(ctx context.Context, today time.Time) (*domain.OptimizationRunSummary, error)
}

type Service struct {
	config Config

	unitPerfRepo  repository.UnitPerformanceRepository
	campaignRepo  repository.CampaignRepository
	adBiddingRepo repository.AdBiddingRepository
	runRepo       repository.OptimizationRunRepository

	controller controlling.Controller
	allocator  budgeting.Allocator
	bidder     bidding.Bidder
}

func NewService(
	config Config,
	unitPerfRepo repository.UnitPerformanceRepository,
	campaignRepo repository.CampaignRepository,
	adBiddingRepo repository.AdBiddingRepository,
	runRepo repository.OptimizationRunRepository,
	controller controlling.Controller,
	allocator budgeting.Allocator,
	bidder bidding.Bidder,
) *Service {
	return &Service{
		config:        config,
		unitPerfRepo:  unitPerfRepo,
		campaignRepo:  campaignRepo,
		adBiddingRepo: adBiddingRepo,
		runRepo:       runRepo,
		controller:    controller,
		allocator:     allocator,
		bidder:        bidder,
	}
}

// Run executa as três etapas para a data informada. O controlador roda
// primeiro porque os ganhos alimentam o calculador de lances; orçamento e
// lances rodam em paralelo na sequência.
func (s *Service) Run(ctx context.Context, today time.Time) (*domain.OptimizationRunSummary, error) {
	startedAt := time.Now()

	id, err := utils.GenerateID()
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar o identificador da execução: %w", err)
	}
	runID := fmt.Sprintf("%s-%s", today.Format("20060102"), id)

	logger := log.L.WithFields(log.Fields{
		"run_id": runID,
		"date":   today.Format(time.DateOnly),
	})
	logger.Info("Iniciando execução do otimizador")

	campaignActuals, err := s.campaignRepo.GetActualsByDateRange(
		today.AddDate(0, 0, -s.config.ActualsLookbackDays), today,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar os atuais das campanhas: %w", err)
	}

	pidResults, err := s.runController(today, campaignActuals)
	if err != nil {
		return nil, err
	}

	if err = s.unitPerfRepo.SavePIDResults(runID, pidResults); err != nil {
		return nil, fmt.Errorf("erro ao salvar os resultados do controlador: %w", err)
	}
	logger.WithField("pid_rows", len(pidResults)).Info("Etapa do controlador concluída")

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("execução do otimizador cancelada: %w", err)
	}

	var (
		wg            sync.WaitGroup
		budgetResults []domain.DailyBudgetResult
		budgetErr     error
		bidResults    []domain.BiddingResult
		bidErr        error
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		budgetResults, budgetErr = s.runAllocator(today, campaignActuals)
	}()

	go func() {
		defer wg.Done()
		bidResults, bidErr = s.runBidder(today, pidResults, campaignActuals)
	}()

	wg.Wait()

	if budgetErr != nil {
		return nil, budgetErr
	}
	if bidErr != nil {
		return nil, bidErr
	}

	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("execução do otimizador cancelada: %w", err)
	}

	if err = s.campaignRepo.SaveDailyBudgets(runID, budgetResults); err != nil {
		return nil, fmt.Errorf("erro ao salvar os orçamentos diários: %w", err)
	}
	logger.WithField("budget_rows", len(budgetResults)).Info("Etapa do alocador concluída")

	if err = s.adBiddingRepo.SaveBiddingResults(runID, bidResults); err != nil {
		return nil, fmt.Errorf("erro ao salvar os resultados de lances: %w", err)
	}
	logger.WithField("bidding_rows", len(bidResults)).Info("Etapa do calculador de lances concluída")

	summary := &domain.OptimizationRunSummary{
		RunID:       runID,
		Date:        today,
		Units:       countUnits(pidResults, budgetResults, bidResults),
		PIDRows:     len(pidResults),
		BudgetRows:  len(budgetResults),
		BiddingRows: len(bidResults),
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
	}

	if err = s.runRepo.Save(summary); err != nil {
		return nil, fmt.Errorf("erro ao salvar o resumo da execução: %w", err)
	}

	logger.WithFields(log.Fields{
		"units":    summary.Units,
		"duration": summary.CompletedAt.Sub(summary.StartedAt).String(),
	}).Info("Execução do otimizador concluída")

	return summary, nil
}

func (s *Service) runController(today time.Time, campaignActuals []domain.CampaignActual) ([]domain.PIDResult, error) {
	records, err := s.unitPerfRepo.GetByDateRange(
		today.AddDate(0, 0, -s.config.PIDLookbackDays), today,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar o desempenho das unidades: %w", err)
	}

	results, err := s.controller.Calc(today, records, campaignActuals)
	if err != nil {
		return nil, fmt.Errorf("erro na etapa do controlador: %w", err)
	}

	return results, nil
}

func (s *Service) runAllocator(today time.Time, campaignActuals []domain.CampaignActual) ([]domain.DailyBudgetResult, error) {
	records, err := s.campaignRepo.GetBudgetRecordsByDate(today)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar as entradas de orçamento: %w", err)
	}

	daily, err := s.campaignRepo.GetDailyActualsByDateRange(
		today.AddDate(0, 0, -s.config.ActualsLookbackDays), today,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar o histórico diário das campanhas: %w", err)
	}

	results, err := s.allocator.Calc(today, records, daily, campaignActuals)
	if err != nil {
		return nil, fmt.Errorf("erro na etapa do alocador: %w", err)
	}

	return results, nil
}

func (s *Service) runBidder(
	today time.Time,
	pidResults []domain.PIDResult,
	campaignActuals []domain.CampaignActual,
) ([]domain.BiddingResult, error) {
	records, err := s.adBiddingRepo.GetBidRecordsByDateRange(
		today.AddDate(0, 0, -s.config.BiddingLookbackDays), today,
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar as entradas de lances: %w", err)
	}

	applyGains(records, pidResults, today)

	results, err := s.bidder.Calc(today, records, campaignActuals, s.config.BiddingAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("erro na etapa do calculador de lances: %w", err)
	}

	return results, nil
}

// applyGains propaga os ganhos recém-calculados para as linhas do dia
// corrente. Unidades sem resultado do controlador mantêm os valores da tabela
// de entrada.
func applyGains(records []domain.AdBidRecord, pidResults []domain.PIDResult, today time.Time) {
	gains := make(map[string]domain.PIDResult, len(pidResults))
	for _, result := range pidResults {
		gains[result.UnitKey.ID()] = result
	}

	for i := range records {
		if !records[i].Date.Equal(today) {
			continue
		}
		result, ok := gains[records[i].UnitKey.ID()]
		if !ok {
			continue
		}
		records[i].P = result.P
		records[i].Q = result.Q
		records[i].C = result.C()
		records[i].TargetKPI = result.TargetKPI
		records[i].Purpose = result.Purpose
		records[i].TargetCost = result.TargetCost
		records[i].BaseTargetCost = result.BaseTargetCost
	}
}

func countUnits(
	pidResults []domain.PIDResult,
	budgetResults []domain.DailyBudgetResult,
	bidResults []domain.BiddingResult,
) int {
	units := make(map[string]struct{})
	for _, r := range pidResults {
		units[r.UnitKey.ID()] = struct{}{}
	}
	for _, r := range budgetResults {
		units[r.UnitKey.ID()] = struct{}{}
	}
	for _, r := range bidResults {
		units[r.UnitKey.ID()] = struct{}{}
	}
	return len(units)
}
