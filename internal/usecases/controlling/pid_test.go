package controlling

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

func TestPidStep(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name           string
		state          domain.State
		target         float64
		observed       float64
		isBeginOfMonth bool
		validate       func(t *testing.T, newState domain.State)
	}{
		{
			name:     "Custo acima do alvo - saída limitada pelo teto da banda",
			state:    domain.NewInitializedState(1.0),
			target:   100,
			observed: 120,
			validate: func(t *testing.T, newState domain.State) {
				// O ajuste dos ganhos faz o passo parar exatamente no teto
				require.NotNil(t, newState.Output)
				assert.InDelta(t, 1.5, *newState.Output, 1e-9)
				require.NotNil(t, newState.Error)
				assert.InDelta(t, -20.0, *newState.Error, 1e-9)
				assert.InDelta(t, -20.0, newState.SumError, 1e-9)
			},
		},
		{
			name:     "Custo abaixo do alvo - saída limitada pelo piso da banda",
			state:    domain.NewInitializedState(1.0),
			target:   100,
			observed: 80,
			validate: func(t *testing.T, newState domain.State) {
				require.NotNil(t, newState.Output)
				assert.InDelta(t, 1/1.5, *newState.Output, 1e-9)
			},
		},
		{
			name: "Oscilação de erro - acumulador zerado",
			state: func() domain.State {
				s := domain.NewInitializedState(1.0)
				lastError := 5.0
				s.Error = &lastError
				s.SumError = 5.0
				return s
			}(),
			target:   100,
			observed: 103,
			validate: func(t *testing.T, newState domain.State) {
				assert.Zero(t, newState.SumError)
				require.NotNil(t, newState.Output)
				// d = -(0.1*(-3) + kd*(-8)) = 0.300008, dentro da banda
				assert.InDelta(t, math.Exp(0.300008), *newState.Output, 1e-6)
			},
		},
		{
			name: "Erro anterior zerado é tratado como ausente",
			state: func() domain.State {
				s := domain.NewInitializedState(1.0)
				zero := 0.0
				s.Error = &zero
				s.SumError = 10.0
				return s
			}(),
			target:   100,
			observed: 103,
			validate: func(t *testing.T, newState domain.State) {
				// Sem oscilação: o acumulador segue somando
				assert.InDelta(t, 7.0, newState.SumError, 1e-9)
			},
		},
		{
			name:           "Virada do mês - acumulador reiniciado com o erro do dia",
			state:          domain.NewInitializedState(1.0),
			target:         100,
			observed:       110,
			isBeginOfMonth: true,
			validate: func(t *testing.T, newState domain.State) {
				assert.InDelta(t, -10.0, newState.SumError, 1e-9)
			},
		},
		{
			name:     "Alvo igual ao observado - saída inalterada",
			state:    domain.NewInitializedState(2.0),
			target:   100,
			observed: 100,
			validate: func(t *testing.T, newState domain.State) {
				require.NotNil(t, newState.Output)
				assert.InDelta(t, 2.0, *newState.Output, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newState, err := pidStep(cfg, tt.state, tt.target, tt.observed, tt.isBeginOfMonth, 1, 1)
			require.NoError(t, err)
			tt.validate(t, newState)
		})
	}
}

func TestPidStepValidations(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("Estado sem saída inicializada", func(t *testing.T) {
		_, err := pidStep(cfg, domain.NewState(), 100, 120, false, 1, 1)
		assert.Error(t, err)
	})

	t.Run("Peso negativo", func(t *testing.T) {
		_, err := pidStep(cfg, domain.NewInitializedState(1.0), 100, 120, false, -1, 1)
		assert.Error(t, err)
	})

	t.Run("Peso maior que a soma dos pesos", func(t *testing.T) {
		_, err := pidStep(cfg, domain.NewInitializedState(1.0), 100, 120, false, 2, 1)
		assert.Error(t, err)
	})

	t.Run("Soma dos pesos zerada é aceita", func(t *testing.T) {
		_, err := pidStep(cfg, domain.NewInitializedState(1.0), 100, 120, false, 0, 0)
		assert.NoError(t, err)
	})
}

func TestTunePIDParams(t *testing.T) {
	cfg := DefaultConfig()
	state := domain.NewInitializedState(1.0)

	tuned := tunePIDParams(cfg, state, -20)

	// Após o ajuste, o primeiro passo deve atingir exatamente o teto da banda
	d := cfg.Sign * (tuned.Kp*(-20) + tuned.Ki*(-20) + tuned.Kd*(-20))
	assert.InDelta(t, math.Log(cfg.UBRatioOutput), d, 1e-9)
}

func TestInitializeP(t *testing.T) {
	t.Run("Um anúncio - p reproduz o lance", func(t *testing.T) {
		p, err := initializeP([]float64{2.0}, []float64{0.5}, []float64{10.0})
		require.NoError(t, err)
		// lance = custo alvo implícito * valor → p = 1/(b/v... ) = v/b
		assert.InDelta(t, 0.25, p, 1e-9)
	})

	t.Run("Denominador nulo", func(t *testing.T) {
		_, err := initializeP([]float64{0}, []float64{0.5}, []float64{10.0})
		assert.Error(t, err)
	})
}

func TestInitializePAndQ(t *testing.T) {
	t.Run("Par sobre a variedade", func(t *testing.T) {
		p, q, err := initializePAndQ([]float64{2.0}, []float64{0.5}, []float64{10.0}, 0.2)
		require.NoError(t, err)
		// t = 4 → p = 1/8, q = 1/(2*(4-0.2))
		assert.InDelta(t, 0.125, p, 1e-9)
		assert.InDelta(t, 1/7.6, q, 1e-9)
	})

	t.Run("Custo alvo implícito abaixo de C é elevado até a variedade", func(t *testing.T) {
		p, q, err := initializePAndQ([]float64{2.0}, []float64{0.5}, []float64{10.0}, 10.0)
		require.NoError(t, err)
		assert.Greater(t, p, 0.0)
		assert.Greater(t, q, 0.0)
		// t = C*(1+eps) → 1/(2p) - 1/(2q) = C
		assert.InDelta(t, 10.0, 1/(2*p)-1/(2*q), 1e-3)
	})
}

func TestReupdateStates(t *testing.T) {
	c := 2.0

	t.Run("Par reconciliado satisfaz a restrição", func(t *testing.T) {
		pOut, qOut := 1.0, 1.0
		pState := domain.State{Output: &pOut}
		qState := domain.State{Output: &qOut}

		newP, newQ := reupdateStates(pState, qState, &c, true)

		require.NotNil(t, newP.Output)
		require.NotNil(t, newQ.Output)
		assert.InDelta(t, c, 1/(2**newP.Output)-1/(2**newQ.Output), 1e-9)
	})

	t.Run("Reconciliar duas vezes não altera o par", func(t *testing.T) {
		pOut, qOut := 1.0, 1.0
		pState := domain.State{Output: &pOut}
		qState := domain.State{Output: &qOut}

		onceP, onceQ := reupdateStates(pState, qState, &c, true)
		twiceP, twiceQ := reupdateStates(onceP, onceQ, &c, true)

		require.NotNil(t, twiceP.Output)
		require.NotNil(t, twiceQ.Output)
		assert.InDelta(t, *onceP.Output, *twiceP.Output, 1e-12)
		assert.InDelta(t, *onceQ.Output, *twiceQ.Output, 1e-12)
	})

	t.Run("Sem q nada é alterado", func(t *testing.T) {
		pOut := 1.0
		pState := domain.State{Output: &pOut}

		newP, _ := reupdateStates(pState, domain.State{}, &c, false)
		assert.Equal(t, pOut, *newP.Output)
	})

	t.Run("Sem restrição nada é alterado", func(t *testing.T) {
		pOut, qOut := 1.0, 1.0
		pState := domain.State{Output: &pOut}
		qState := domain.State{Output: &qOut}

		newP, newQ := reupdateStates(pState, qState, nil, true)
		assert.Equal(t, pOut, *newP.Output)
		assert.Equal(t, qOut, *newQ.Output)
	})
}

func TestLinearWMA(t *testing.T) {
	assert.InDelta(t, 14.0/6.0, linearWMA([]float64{1, 2, 3}), 1e-9)
	assert.Zero(t, linearWMA(nil))
}

func TestWeightedCPCByDate(t *testing.T) {
	endDate := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	t.Run("Custos e cliques em um único dia", func(t *testing.T) {
		actuals := []domain.CampaignActual{
			{CampaignID: 1, Date: endDate, Clicks: 100, Costs: 200},
		}
		assert.InDelta(t, 2.0, weightedCPCByDate(actuals, endDate, cpcPeriodDays), 1e-9)
	})

	t.Run("Campanhas do mesmo dia são somadas", func(t *testing.T) {
		actuals := []domain.CampaignActual{
			{CampaignID: 1, Date: endDate, Clicks: 100, Costs: 200},
			{CampaignID: 2, Date: endDate, Clicks: 100, Costs: 400},
		}
		assert.InDelta(t, 3.0, weightedCPCByDate(actuals, endDate, cpcPeriodDays), 1e-9)
	})

	t.Run("Dias fora da janela são ignorados", func(t *testing.T) {
		actuals := []domain.CampaignActual{
			{CampaignID: 1, Date: endDate.AddDate(0, 0, -30), Clicks: 100, Costs: 900},
		}
		assert.Zero(t, weightedCPCByDate(actuals, endDate, cpcPeriodDays))
	})
}

func TestBidCPCLimit(t *testing.T) {
	t.Run("CPC do anúncio disponível", func(t *testing.T) {
		limit := bidCPCLimit(2.0, 1.0)
		require.NotNil(t, limit)
		assert.InDelta(t, 6.0, *limit, 1e-9)
	})

	t.Run("Somente CPC da unidade disponível", func(t *testing.T) {
		limit := bidCPCLimit(0, 1.0)
		require.NotNil(t, limit)
		assert.InDelta(t, 3.0, *limit, 1e-9)
	})

	t.Run("Nenhum CPC disponível", func(t *testing.T) {
		assert.Nil(t, bidCPCLimit(0, 0))
	})
}
