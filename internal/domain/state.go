package domain

// Ganhos padrão do controlador PID
const (
	KpDefault = 0.1
	KiDefault = 0.01
	KdDefault = 1e-6
)

// State é o estado do controlador para um dos ganhos (p ou q). O estado é um
// valor imutável: cada passo do controlador produz um novo State, nunca altera
// o anterior.
type State struct {
	Output         *float64
	SumError       float64
	Error          *float64
	Kp             float64
	Ki             float64
	Kd             float64
	OriginalOutput *float64
}

// NewState cria um estado sem saída inicializada e com os ganhos padrão
func NewState() State {
	return State{
		Kp: KpDefault,
		Ki: KiDefault,
		Kd: KdDefault,
	}
}

// NewInitializedState cria um estado recém inicializado com a saída informada
func NewInitializedState(output float64) State {
	s := NewState()
	s.Output = &output
	zero := 0.0
	s.Error = &zero
	return s
}
