package reporting

import (
	"fmt"
	"time"

	"github.com/vfg2006/bid-optimizer-api/infrastructure/repository"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

// Reporter expõe os resultados persistidos das execuções do otimizador
type Reporter interface {
	PIDResultsByDate(date time.Time) ([]domain.PIDResult, error)
	DailyBudgetsByDate(date time.Time) ([]domain.DailyBudgetResult, error)
	BiddingResultsByDate(date time.Time) ([]domain.BiddingResult, error)
	LatestRun() (*domain.OptimizationRunSummary, error)
}

type Service struct {
	unitPerfRepo  repository.UnitPerformanceRepository
	campaignRepo  repository.CampaignRepository
	adBiddingRepo repository.AdBiddingRepository
	runRepo       repository.OptimizationRunRepository
}

func NewService(
	unitPerfRepo repository.UnitPerformanceRepository,
	campaignRepo repository.CampaignRepository,
	adBiddingRepo repository.AdBiddingRepository,
	runRepo repository.OptimizationRunRepository,
) *Service {
	return &Service{
		unitPerfRepo:  unitPerfRepo,
		campaignRepo:  campaignRepo,
		adBiddingRepo: adBiddingRepo,
		runRepo:       runRepo,
	}
}

func (s *Service) PIDResultsByDate(date time.Time) ([]domain.PIDResult, error) {
	results, err := s.unitPerfRepo.GetPIDResultsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar os resultados do controlador: %w", err)
	}
	return results, nil
}

func (s *Service) DailyBudgetsByDate(date time.Time) ([]domain.DailyBudgetResult, error) {
	results, err := s.campaignRepo.GetDailyBudgetsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar os orçamentos diários: %w", err)
	}
	return results, nil
}

func (s *Service) BiddingResultsByDate(date time.Time) ([]domain.BiddingResult, error) {
	results, err := s.adBiddingRepo.GetResultsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar os resultados de lances: %w", err)
	}
	return results, nil
}

func (s *Service) LatestRun() (*domain.OptimizationRunSummary, error) {
	summary, err := s.runRepo.GetLatest()
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar a última execução: %w", err)
	}
	return summary, nil
}
