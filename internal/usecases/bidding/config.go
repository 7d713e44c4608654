package bidding

// Config reúne os parâmetros do calculador de lances
type Config struct {
	// Regra simples para anúncios fora do controle por ML
	ThresholdOfImpressionsWeekly float64
	BiddingPriceUpRatio          float64

	// Banda de variação diária do lance calculado por ML
	BiddingUBRatioOver  float64
	BiddingLBRatioOver  float64
	BiddingUBRatioShort float64
	BiddingLBRatioShort float64

	// Teto de lance derivado do CPC recente
	CPCLimitRate  float64
	CPCPeriodDays int

	// Janelas de decisão
	WeeklyClicksWindowDays   int
	MonthlyWindowDays        int
	ProvisionalEWMAlpha      float64
	BadPerformanceCostsShare float64
}

// DefaultConfig retorna a configuração padrão do calculador
func DefaultConfig() Config {
	return Config{
		ThresholdOfImpressionsWeekly: 50,
		BiddingPriceUpRatio:          1.1,
		BiddingUBRatioOver:           1.2,
		BiddingLBRatioOver:           0.8,
		BiddingUBRatioShort:          1.2,
		BiddingLBRatioShort:          0.8,
		CPCLimitRate:                 3.0,
		CPCPeriodDays:                14,
		WeeklyClicksWindowDays:       7,
		MonthlyWindowDays:            28,
		ProvisionalEWMAlpha:          0.2,
		BadPerformanceCostsShare:     0.01,
	}
}

// Limiar mínimo dos ganhos ao calcular o lance
const gainFloor = 1e-16
