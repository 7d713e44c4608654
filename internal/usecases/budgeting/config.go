package budgeting

// Config reúne os parâmetros do alocador de orçamento diário
type Config struct {
	CostsWindowSize int
	ClickWindowSize int
	CVWindowSize    int
	SalesWindowSize int

	TargetCriterionDays int

	PotentialThreshold               float64
	UpperRatioBounds                 float64
	UpperRatioBoundsNotPotential     float64
	UpperRatioBoundsCPCNotPotential  float64
	BadPerformanceCampaignCostsShare float64

	L2Lambda float64
	Alpha    float64
}

// DefaultConfig retorna a configuração padrão do alocador
func DefaultConfig() Config {
	return Config{
		CostsWindowSize:                  7,
		ClickWindowSize:                  7,
		CVWindowSize:                     28,
		SalesWindowSize:                  28,
		TargetCriterionDays:              7,
		PotentialThreshold:               0.8,
		UpperRatioBounds:                 2.0,
		UpperRatioBoundsNotPotential:     1.2,
		UpperRatioBoundsCPCNotPotential:  2.0,
		BadPerformanceCampaignCostsShare: 0.1,
		L2Lambda:                         0.1,
		Alpha:                            0.1,
	}
}

const unitWeeklyCPCWindowDays = 7
