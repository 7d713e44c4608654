package domain

import "time"

// PIDResult é a linha de saída do controlador PID para uma unidade
type PIDResult struct {
	UnitKey
	Date time.Time

	Purpose        Purpose
	TargetKPI      KPI
	TargetKPIValue *float64
	TargetCost     float64
	BaseTargetCost float64

	P         *float64
	PKp       *float64
	PKi       *float64
	PKd       *float64
	PError    *float64
	PSumError *float64

	Q         *float64
	QKp       *float64
	QKi       *float64
	QKd       *float64
	QError    *float64
	QSumError *float64

	// Valores antes da reconciliação e antes do clip, para diagnóstico
	PreReupdateP *float64
	PreReupdateQ *float64
	OriginP      *float64
	OriginQ      *float64

	Error              bool
	IsUpdated          bool
	IsPIDInitialized   bool
	IsSkipPIDCalcState bool
	ObsKPI             *float64
	ValidAdsNum        int
}

// C retorna a restrição de KPI normalizada da unidade, na mesma convenção de
// Settings.C: inverso do valor alvo para ROAS, o próprio valor para os demais
func (r PIDResult) C() *float64 {
	if r.TargetKPIValue == nil {
		return nil
	}
	if r.TargetKPI == KPIROAS {
		c := 1 / *r.TargetKPIValue
		return &c
	}
	c := *r.TargetKPIValue
	return &c
}

// DailyBudgetResult é a linha de saída do alocador de orçamento para uma
// campanha
type DailyBudgetResult struct {
	UnitKey
	CampaignID int64
	Date       time.Time

	DailyBudgetUpper int64
	Weight           *float64

	TodayTargetCost   float64
	IdealTargetCost   float64
	TotalExpectedCost *float64

	ValueOfCampaign *float64
	Gradient        *float64
	Q               *float64
	MaxQ            *float64
	HasPotential    *bool

	YesterdayDailyBudget         *float64
	LastWeekMaxCosts             *float64
	IsDailyBudgetUndecidableUnit bool
	UnitWeeklyCPCForCap          float64
}

// BiddingResult é a linha de saída do calculador de lances para um anúncio
type BiddingResult struct {
	UnitKey
	CampaignID int64
	AdType     string
	AdID       int64
	Date       time.Time

	BiddingPrice       float64
	OriginBiddingPrice *float64

	IsMLApplied          bool
	IsProvisionalBidding bool
	HasException         bool

	UnitCPC        *float64
	AdEmaWeeklyCPC *float64
	AdValue        *float64

	SumClickLastFourWeeks *float64
	SumCostLastFourWeeks  *float64
	CPCLastFourWeeks      *float64

	BiddingAlgorithm string
}

// OptimizationRunSummary resume uma execução diária completa do otimizador
type OptimizationRunSummary struct {
	RunID       string
	Date        time.Time
	Units       int
	PIDRows     int
	BudgetRows  int
	BiddingRows int
	StartedAt   time.Time
	CompletedAt time.Time
}
