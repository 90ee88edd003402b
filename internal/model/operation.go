package model

// Operation is a trade record, real or simulated
type Operation struct {
	ContractID   Text `json:"numero_contrato"`
	Asset        Text `json:"activo"`
	Direction    Text `json:"direccion"`
	Result       Text `json:"resultado"`
	Profit       Text `json:"beneficio"`
	StartInstant Text `json:"hora_inicio"`
}

// SimulationSummaryRow is one start-hour bucket of the latest simulation
type SimulationSummaryRow struct {
	Asset           Text   `json:"activo"`
	StartInstant    Text   `json:"hora_inicio"`
	TotalOperations Number `json:"total_operaciones"`
	WonOperations   Number `json:"operaciones_ganadas"`
	LostOperations  Number `json:"operaciones_perdidas"`
	WinratePercent  Number `json:"winrate"`
}

// SimulationResults is served by the simulation resource
type SimulationResults struct {
	Summary    []SimulationSummaryRow `json:"resumen"`
	Operations []Operation            `json:"operaciones"`
}
