package domain

import "time"

// UnitPerformanceRecord é uma linha da tabela de entrada do controlador PID:
// um anúncio em um dia, com as colunas de configuração e de estado da unidade
// repetidas em todas as linhas
type UnitPerformanceRecord struct {
	UnitKey
	CampaignID int64
	AdType     string
	AdID       int64
	Date       time.Time

	Impressions  float64
	Clicks       float64
	Conversions  float64
	Sales        float64
	Costs        float64
	BiddingPrice *float64
	CPC          *float64
	CVR          *float64
	RPC          *float64

	IsEnabledBiddingAutoAdjustment bool

	Mode               Mode
	TargetKPI          KPI
	YesterdayTargetKPI KPI
	Purpose            Purpose
	TargetKPIValue     *float64
	BaseTargetCost     float64
	TargetCost         float64
	NotMLAppliedDays   int

	P         *float64
	PError    *float64
	PSumError *float64
	PKp       *float64
	PKi       *float64
	PKd       *float64
	Q         *float64
	QError    *float64
	QSumError *float64
	QKp       *float64
	QKi       *float64
	QKd       *float64

	UnitExObservedC *float64
}

// CampaignActual é uma linha da tabela de atuais de todas as campanhas,
// usada para calcular o CPC agregado da unidade
type CampaignActual struct {
	UnitKey
	CampaignID  int64
	Date        time.Time
	Impressions float64
	Clicks      float64
	Conversions float64
	Sales       float64
	Costs       float64
}

// CampaignBudgetRecord é uma linha da tabela de entrada do alocador de
// orçamento diário: uma campanha no dia corrente
type CampaignBudgetRecord struct {
	UnitKey
	CampaignID int64
	Date       time.Time

	YesterdayCosts         float64
	Purpose                Purpose
	Mode                   Mode
	OptimizationCosts      float64
	RemainingDays          int
	TodayTargetCost        float64
	TodayNoboostTargetCost float64
	YesterdayTargetCost    float64
	Weight                 *float64
	IdealTargetCost        float64
	YesterdayDailyBudget   *float64
	MinimumDailyBudget     float64
	MaximumDailyBudget     float64
	TodayCoefficient       float64
	YesterdayCoefficient   float64
	C                      *float64

	UnitWeeklyEmaCosts                float64
	UnitExObservedC                   *float64
	CampaignWeeklyEmaCosts            float64
	CampaignObservedCYesterdayInMonth *float64
}

// CampaignDailyActual é uma linha do histórico diário das campanhas de uma
// unidade, consumida pelo alocador de orçamento
type CampaignDailyActual struct {
	UnitKey
	CampaignID  int64
	Date        time.Time
	Clicks      float64
	Conversions float64
	Sales       float64
	Costs       float64
}

// AdBidRecord é uma linha da tabela de entrada do calculador de lances:
// um anúncio em um dia, com as colunas da unidade repetidas
type AdBidRecord struct {
	UnitKey
	CampaignID int64
	AdType     string
	AdID       int64
	Date       time.Time

	Impressions  float64
	Clicks       float64
	Conversions  float64
	Sales        float64
	Costs        float64
	BiddingPrice *float64
	CPC          *float64
	CVR          *float64
	RPC          *float64

	IsEnabledBiddingAutoAdjustment bool

	Purpose        Purpose
	TargetKPI      KPI
	Mode           Mode
	C              *float64
	P              *float64
	Q              *float64
	TargetCost     float64
	BaseTargetCost float64

	MinimumBiddingPrice float64
	MaximumBiddingPrice float64
	RoundUpPoint        int

	UnitWeeklyEmaCosts          float64
	UnitExObservedC             *float64
	AdWeeklyEmaCosts            float64
	AdObservedCYesterdayInMonth *float64
}
