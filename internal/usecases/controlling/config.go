package controlling

// Config reúne os parâmetros do controlador PID. Os valores padrão vêm da
// calibração usada em produção e não devem ser rederivados.
type Config struct {
	Sign                      float64
	ThRatioReduceOscillate    float64
	ReduceRate                float64
	ThRatioAccelerate         float64
	AccelerateRate            float64
	UBRatioOutput             float64
	LBRatioOutput             float64
	NotMLAppliedDaysThreshold int

	// Número máximo de unidades calculadas em paralelo
	MaxConcurrentUnits int
}

// DefaultConfig retorna a configuração padrão do controlador
func DefaultConfig() Config {
	return Config{
		Sign:                      -1.0,
		ThRatioReduceOscillate:    0.05,
		ReduceRate:                0.8,
		ThRatioAccelerate:         5.0,
		AccelerateRate:            1.2,
		UBRatioOutput:             1.5,
		LBRatioOutput:             1 / 1.5,
		NotMLAppliedDaysThreshold: 3,
		MaxConcurrentUnits:        3,
	}
}

const (
	// Janela e fator do teto de lance baseado em CPC
	cpcLimitRate  = 3.0
	cpcPeriodDays = 14

	// Folga sobre C ao decidir se o KPI do dia anterior está sob controle
	latestKPIBoundBuff = 1.5

	// Valor de p abaixo do qual o controlador é considerado degenerado
	degeneratePEpsilon = 1e-10

	// Afastamento mínimo de t em relação a C na reconciliação
	manifoldEpsilon = 1e-6
)
