package optimizing

// Config define as janelas de carga e o algoritmo de lances da execução diária
type Config struct {
	// Dias de histórico de desempenho carregados para o controlador PID.
	// Precisa cobrir o mês corrente inteiro mais a janela de CPC.
	PIDLookbackDays int

	// Dias de histórico de atuais das campanhas, compartilhado pelo
	// controlador, pelo alocador e pelo calculador de lances
	ActualsLookbackDays int

	// Dias de histórico carregados para o calculador de lances
	BiddingLookbackDays int

	// Identificador do algoritmo gravado em cada resultado de lance
	BiddingAlgorithm string
}

func DefaultConfig() Config {
	return Config{
		PIDLookbackDays:     62,
		ActualsLookbackDays: 35,
		BiddingLookbackDays: 35,
		BiddingAlgorithm:    "v1",
	}
}
