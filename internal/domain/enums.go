package domain

import "fmt"

// KPI é o tipo de restrição de desempenho configurada para a unidade
type KPI int

const (
	KPINull KPI = iota
	KPICPC
	KPICPA
	KPIROAS
)

func (k KPI) String() string {
	switch k {
	case KPICPC:
		return "CPC"
	case KPICPA:
		return "CPA"
	case KPIROAS:
		return "ROAS"
	default:
		return "NULL"
	}
}

// ParseKPI converte o valor textual da tabela de entrada para o enum.
// Valores desconhecidos ou vazios são tratados como ausência de restrição.
func ParseKPI(value string) KPI {
	switch value {
	case "CPC":
		return KPICPC
	case "CPA":
		return KPICPA
	case "ROAS":
		return KPIROAS
	default:
		return KPINull
	}
}

// Purpose é o objetivo de otimização da unidade
type Purpose int

const (
	PurposeSales Purpose = iota
	PurposeConversion
	PurposeClick
)

func (p Purpose) String() string {
	switch p {
	case PurposeConversion:
		return "CONVERSION"
	case PurposeClick:
		return "CLICK"
	default:
		return "SALES"
	}
}

// ParsePurpose converte o valor textual para o enum. SALES é o padrão.
func ParsePurpose(value string) Purpose {
	switch value {
	case "CONVERSION":
		return PurposeConversion
	case "CLICK":
		return PurposeClick
	default:
		return PurposeSales
	}
}

// Mode define qual restrição prevalece quando custo e KPI não podem ser
// atendidos ao mesmo tempo
type Mode int

const (
	ModeBudget Mode = iota
	ModeKPI
)

func (m Mode) String() string {
	if m == ModeKPI {
		return "KPI"
	}
	return "BUDGET"
}

// ParseMode converte o valor textual para o enum
func ParseMode(value string) Mode {
	if value == "KPI" {
		return ModeKPI
	}
	return ModeBudget
}

// UnitKey identifica uma unidade de otimização: uma conta de anúncios,
// opcionalmente restrita a um portfólio
type UnitKey struct {
	AdvertisingAccountID int64
	PortfolioID          *int64
}

// ID retorna o identificador textual da unidade, usado para agrupamento e logs
func (k UnitKey) ID() string {
	if k.PortfolioID == nil {
		return fmt.Sprintf("a_%d", k.AdvertisingAccountID)
	}
	return fmt.Sprintf("p_%d", *k.PortfolioID)
}
